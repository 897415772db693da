package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a passenger's reservation of seats on a ride.
// TotalPrice is fixed at booking time and never recomputed.
type Booking struct {
	ID            string
	RideID        string
	PassengerID   string
	PassengerName string
	SeatsBooked   int
	TotalPrice    float64
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
