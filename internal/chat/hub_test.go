package chat

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
)

func newTestHub() *Hub {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewHub(l)
}

func decodeEnvelope(t *testing.T, payload []byte) (string, domain.Message) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	var msg domain.Message
	if env.Event == EventNewMessage {
		require.NoError(t, json.Unmarshal(env.Data, &msg))
	}
	return env.Event, msg
}

func TestHub_BroadcastReachesOnlyRoomMembers(t *testing.T) {
	hub := newTestHub()
	a := NewClient(hub, nil, "a", "Ann", 4)
	b := NewClient(hub, nil, "b", "Bob", 4)
	outsider := NewClient(hub, nil, "c", "Cat", 4)

	hub.Subscribe("ride-1", a)
	hub.Subscribe("ride-1", b)
	hub.Subscribe("ride-2", outsider)

	hub.Broadcast(&domain.Message{ID: "m1", RideID: "ride-1", Message: "hello", Timestamp: time.Now()})

	for _, c := range []*Client{a, b} {
		select {
		case payload := <-c.send:
			event, msg := decodeEnvelope(t, payload)
			assert.Equal(t, EventNewMessage, event)
			assert.Equal(t, "hello", msg.Message)
		default:
			t.Fatalf("client %s got nothing", c.UserID)
		}
	}
	assert.Len(t, outsider.send, 0)
}

func TestHub_ClientInSeveralRooms(t *testing.T) {
	hub := newTestHub()
	c := NewClient(hub, nil, "a", "Ann", 4)

	hub.Subscribe("ride-1", c)
	hub.Subscribe("ride-2", c)
	hub.Subscribe("ride-2", c)

	assert.ElementsMatch(t, []string{"ride-1", "ride-2"}, hub.Rooms(c))
	assert.Equal(t, 1, hub.Members("ride-2"))

	hub.Leave("ride-1", c)
	assert.Equal(t, 0, hub.Members("ride-1"))
	assert.Equal(t, []string{"ride-2"}, hub.Rooms(c))

	hub.Unsubscribe(c)
	assert.Equal(t, 0, hub.Members("ride-2"))
	assert.Empty(t, hub.Rooms(c))
}

func TestHub_SlowClientDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub()
	slow := NewClient(hub, nil, "slow", "Slow", 1)
	hub.Subscribe("ride-1", slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Broadcast(&domain.Message{ID: "m", RideID: "ride-1", Message: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client queue")
	}
	assert.Len(t, slow.send, 1)
}

func TestClient_CloseLeavesRoomsAndStopsDelivery(t *testing.T) {
	hub := newTestHub()
	c := NewClient(hub, nil, "a", "Ann", 4)
	hub.Subscribe("ride-1", c)

	c.Close()
	c.Close()

	assert.Equal(t, 0, hub.Members("ride-1"))
	assert.False(t, c.EmitError(CodeInternal, "gone"))
}

func TestClient_EmitErrorGoesToSenderOnly(t *testing.T) {
	hub := newTestHub()
	sender := NewClient(hub, nil, "a", "Ann", 4)
	other := NewClient(hub, nil, "b", "Bob", 4)
	hub.Subscribe("ride-1", sender)
	hub.Subscribe("ride-1", other)

	require.True(t, sender.EmitError(CodeInvalidInput, "message is required"))

	var env Envelope
	require.NoError(t, json.Unmarshal(<-sender.send, &env))
	assert.Equal(t, EventError, env.Event)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, CodeInvalidInput, payload.Code)
	assert.Len(t, other.send, 0)
}

func TestHub_ConcurrentMembershipChanges(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient(hub, nil, "u", "U", 2)
			hub.Subscribe("ride-1", c)
			hub.Broadcast(&domain.Message{ID: "m", RideID: "ride-1"})
			hub.Unsubscribe(c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Members("ride-1"))
}
