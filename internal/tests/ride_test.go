package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

func validPublishRequest() service.PublishRideRequest {
	return service.PublishRideRequest{
		Origin:         domain.Location{Name: "Airport", Lat: 12.9716, Lng: 77.5946},
		Destination:    domain.Location{Name: "Station", Lat: 12.2958, Lng: 76.6394},
		DepartureTime:  time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		AvailableSeats: 3,
		PricePerSeat:   25.0,
		Description:    "no pets",
	}
}

// ──────────────────────────────────────────────
// 1. PUBLISHING
// ──────────────────────────────────────────────

func TestPublish_RiderCreatesActiveRide(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rider := passenger("rider-1", "Rita")
	rider.IsRider = true

	ride, err := env.rideService.Publish(context.Background(), rider, validPublishRequest())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if ride.ID == "" {
		t.Error("expected ride ID to be set")
	}
	if ride.Status != domain.RideStatusActive {
		t.Errorf("expected status active, got %s", ride.Status)
	}
	if ride.RiderID != "rider-1" || ride.RiderName != "Rita" {
		t.Errorf("expected rider snapshot rider-1/Rita, got %s/%s", ride.RiderID, ride.RiderName)
	}

	stored, err := env.rides.GetByID(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("expected ride to be stored, got: %v", err)
	}
	if stored.AvailableSeats != 3 {
		t.Errorf("expected 3 seats, got %d", stored.AvailableSeats)
	}
}

func TestPublish_NonRider_Forbidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.rideService.Publish(context.Background(), passenger("p1", "Bob"), validPublishRequest())
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPublish_InvalidInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*service.PublishRideRequest)
	}{
		{name: "latitude out of range", mutate: func(r *service.PublishRideRequest) { r.Origin.Lat = 91 }},
		{name: "longitude out of range", mutate: func(r *service.PublishRideRequest) { r.Destination.Lng = -181 }},
		{name: "missing origin name", mutate: func(r *service.PublishRideRequest) { r.Origin.Name = " " }},
		{name: "negative seats", mutate: func(r *service.PublishRideRequest) { r.AvailableSeats = -1 }},
		{name: "negative price", mutate: func(r *service.PublishRideRequest) { r.PricePerSeat = -0.5 }},
		{name: "missing departure", mutate: func(r *service.PublishRideRequest) { r.DepartureTime = time.Time{} }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			rider := passenger("rider-1", "Rita")
			rider.IsRider = true

			req := validPublishRequest()
			tc.mutate(&req)

			_, err := env.rideService.Publish(context.Background(), rider, req)
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. SEARCH
// ──────────────────────────────────────────────

func TestSearch_DateRestrictsToUTCDay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seedRide(env, "before", 2, 10, time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC))
	seedRide(env, "start", 2, 10, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	seedRide(env, "late", 2, 10, time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC))
	seedRide(env, "next", 2, 10, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	rides, err := env.rideService.Search(context.Background(), "2025-06-01")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(rides) != 2 {
		t.Fatalf("expected 2 rides on 2025-06-01, got %d", len(rides))
	}
	if rides[0].ID != "start" || rides[1].ID != "late" {
		t.Errorf("expected [start late] in departure order, got [%s %s]", rides[0].ID, rides[1].ID)
	}
}

func TestSearch_ZonelessTimestampFiltersByDay(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seedRide(env, "june-1", 2, 10, time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	seedRide(env, "june-2", 2, 10, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

	rides, err := env.rideService.Search(context.Background(), "2025-06-01T09:30:00")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != "june-1" {
		t.Errorf("expected only june-1, got %d rides", len(rides))
	}
}

func TestSearch_UnparsableDate_ReturnsEverythingBookable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seedRide(env, "a", 2, 10, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	seedRide(env, "b", 2, 10, time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))

	rides, err := env.rideService.Search(context.Background(), "first of june")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rides) != 2 {
		t.Errorf("expected unfiltered result of 2 rides, got %d", len(rides))
	}
}

func TestSearch_SkipsFullAndInactiveRides(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	departure := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedRide(env, "open", 2, 10, departure)
	seedRide(env, "full", 0, 10, departure)
	cancelled := seedRide(env, "cancelled", 2, 10, departure)
	cancelled.Status = domain.RideStatusCancelled
	env.rides.AddRide(cancelled)

	rides, err := env.rideService.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != "open" {
		t.Errorf("expected only the open ride, got %d rides", len(rides))
	}
}

func TestParseSearchDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in     string
		ok     bool
		wantDy int
	}{
		{in: "2025-06-01", ok: true, wantDy: 1},
		{in: "2025-06-01T23:30:00-05:00", ok: true, wantDy: 2},
		{in: "2025-06-01T09:30:00", ok: true, wantDy: 1},
		{in: "2025-06-01T23:59:59", ok: true, wantDy: 1},
		{in: "2025-06-01 09:30:00", ok: true, wantDy: 1},
		{in: "06/01/2025", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range testCases {
		got, ok := service.ParseSearchDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseSearchDate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok {
			start, _ := domain.DayWindow(got)
			if start.Day() != tc.wantDy {
				t.Errorf("ParseSearchDate(%q) day = %d, want %d", tc.in, start.Day(), tc.wantDy)
			}
		}
	}
}

// ──────────────────────────────────────────────
// 3. OWNED RIDES AND SEAT DECREMENT
// ──────────────────────────────────────────────

func TestListOwned_IncludesEveryStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	departure := time.Now().Add(time.Hour)
	seedRide(env, "a", 2, 10, departure)
	full := seedRide(env, "b", 0, 10, departure)
	full.Status = domain.RideStatusCompleted
	env.rides.AddRide(full)

	other := seedRide(env, "c", 2, 10, departure)
	other.RiderID = "someone-else"
	env.rides.AddRide(other)

	rides, err := env.rideService.ListOwned(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rides) != 2 {
		t.Errorf("expected 2 rides owned by rider-1, got %d", len(rides))
	}
}

func TestDecrementSeats_NeverGoesNegative(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seedRide(env, "ride-1", 2, 10, time.Now().Add(time.Hour))

	ride, err := env.rideService.DecrementSeats(context.Background(), "ride-1", 2)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ride.AvailableSeats != 0 {
		t.Errorf("expected 0 seats, got %d", ride.AvailableSeats)
	}

	if _, err := env.rideService.DecrementSeats(context.Background(), "ride-1", 1); !errors.Is(err, service.ErrInsufficientSeats) {
		t.Errorf("expected ErrInsufficientSeats, got %v", err)
	}
	if _, err := env.rideService.DecrementSeats(context.Background(), "missing", 1); !errors.Is(err, service.ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
}
