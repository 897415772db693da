package tests

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/auth"
	"rideshare/internal/chat"
	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// testEnv bundles services backed by in-memory repositories.
type testEnv struct {
	users    *MockUserRepository
	rides    *MockRideRepository
	bookings *MockBookingRepository
	messages *MockMessageRepository
	hub      *chat.Hub

	tokens         *auth.TokenManager
	userService    *service.UserService
	rideService    *service.RideService
	bookingService *service.BookingService
	chatService    *service.ChatService
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := discardLogger()

	users := NewMockUserRepository()
	rides := NewMockRideRepository()
	bookings := NewMockBookingRepository(rides)
	messages := NewMockMessageRepository()
	hub := chat.NewHub(log)
	tokens := auth.NewTokenManager("test-secret", "rideshare-test", 30*time.Minute)

	return &testEnv{
		users:          users,
		rides:          rides,
		bookings:       bookings,
		messages:       messages,
		hub:            hub,
		tokens:         tokens,
		userService:    service.NewUserService(users, auth.NewPasswordHasher(4), tokens, nil, log),
		rideService:    service.NewRideService(rides, log),
		bookingService: service.NewBookingService(rides, bookings, log),
		chatService:    service.NewChatService(messages, hub, hub, log),
	}
}

// seedRide stores an active ride departing at departure.
func seedRide(env *testEnv, id string, seats int, price float64, departure time.Time) *domain.Ride {
	ride := &domain.Ride{
		ID:             id,
		RiderID:        "rider-1",
		RiderName:      "Rita",
		Origin:         domain.Location{Name: "Airport", Lat: 12.97, Lng: 77.59},
		Destination:    domain.Location{Name: "Station", Lat: 12.29, Lng: 76.63},
		DepartureTime:  departure,
		AvailableSeats: seats,
		PricePerSeat:   price,
		Status:         domain.RideStatusActive,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	env.rides.AddRide(ride)
	return ride
}

func passenger(id, name string) *domain.User {
	return domain.NewUser(id, id+"@example.com", "hash", name, "555", time.Now().UTC())
}
