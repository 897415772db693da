package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewUser_Defaults(t *testing.T) {
	u := NewUser("u1", "a@example.com", "hash", "Ann", "555", time.Now())

	assert.False(t, u.IsRider)
	assert.True(t, u.IsPassenger)
}

func TestToggleRole_TwiceRestoresRider(t *testing.T) {
	u := NewUser("u1", "a@example.com", "hash", "Ann", "555", time.Now())

	u.ToggleRole(time.Now())
	assert.True(t, u.IsRider)
	assert.True(t, u.IsPassenger)

	u.ToggleRole(time.Now())
	assert.False(t, u.IsRider)
	assert.True(t, u.IsPassenger)
}

func TestToggleRole_LeavingRiderForcesPassenger(t *testing.T) {
	u := &User{IsRider: true, IsPassenger: false}

	u.ToggleRole(time.Now())

	assert.False(t, u.IsRider)
	assert.True(t, u.IsPassenger)
}

func TestToggleRole_BecomingRiderKeepsPassengerFlag(t *testing.T) {
	u := &User{IsRider: false, IsPassenger: false}

	u.ToggleRole(time.Now())

	assert.True(t, u.IsRider)
	assert.False(t, u.IsPassenger)
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	start, end := DayWindow(time.Date(2025, 3, 10, 2, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), end)
}
