package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusActive    RideStatus = "active"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// Location is a named point on the map.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// RouteInfo carries the route metadata computed by the client's map provider.
type RouteInfo struct {
	Distance float64        `json:"distance"` // meters
	Duration float64        `json:"duration"` // seconds
	Route    map[string]any `json:"route,omitempty"`
}

// Ride is an offer by a rider to drive a route with free seats.
// RiderName is a snapshot of the rider's name at publish time.
type Ride struct {
	ID             string
	RiderID        string
	RiderName      string
	Origin         Location
	Destination    Location
	DepartureTime  time.Time
	AvailableSeats int
	PricePerSeat   float64
	Description    string
	RouteInfo      *RouteInfo
	Status         RideStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsBookable reports whether the ride shows up in searches.
func (r *Ride) IsBookable() bool {
	return r.Status == RideStatusActive && r.AvailableSeats > 0
}

// RideFilter narrows a ride search. A nil Date means no date restriction.
type RideFilter struct {
	Date *time.Time
}

// DayWindow returns the UTC calendar day [start, end) containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
