package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	GetByIDCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdateRoles(ctx context.Context, id string, isRider, isPassenger bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsRider = isRider
	user.IsPassenger = isPassenger
	user.UpdatedAt = updatedAt
	return nil
}

// Count returns the number of stored users.
func (m *MockUserRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Error injection
	CreateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddRide(ride)
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) Search(ctx context.Context, filter domain.RideFilter) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var start, end time.Time
	if filter.Date != nil {
		start, end = domain.DayWindow(*filter.Date)
	}

	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if !r.IsBookable() {
			continue
		}
		if filter.Date != nil && (r.DepartureTime.Before(start) || !r.DepartureTime.Before(end)) {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}
	sortRides(result)
	return result, nil
}

func (m *MockRideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.RiderID == riderID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortRides(result)
	return result, nil
}

func (m *MockRideRepository) DecrementSeats(ctx context.Context, id string, count int) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decrementLocked(id, count)
}

func (m *MockRideRepository) decrementLocked(id string, count int) (*domain.Ride, error) {
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ride.AvailableSeats < count {
		return nil, repository.ErrConflict
	}
	ride.AvailableSeats -= count
	ride.UpdatedAt = time.Now().UTC()
	copy := *ride
	return &copy, nil
}

func sortRides(rides []*domain.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		if rides[i].DepartureTime.Equal(rides[j].DepartureTime) {
			return rides[i].ID < rides[j].ID
		}
		return rides[i].DepartureTime.Before(rides[j].DepartureTime)
	})
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
// Reservations hold the ride repository's lock across the seat decrement
// and the insert, mirroring the database transaction.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	rides    *MockRideRepository

	// Counters for verification
	ReservationCallCount int32

	// Error injection
	InsertError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository(rides *MockRideRepository) *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
		rides:    rides,
	}
}

func (m *MockBookingRepository) CreateWithReservation(ctx context.Context, booking *domain.Booking) (*domain.Ride, error) {
	atomic.AddInt32(&m.ReservationCallCount, 1)

	m.rides.mu.Lock()
	defer m.rides.mu.Unlock()

	ride, ok := m.rides.rides[booking.RideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ride.AvailableSeats < booking.SeatsBooked {
		return nil, repository.ErrConflict
	}
	// A failed insert leaves the seats untouched, like a rolled back transaction.
	if m.InsertError != nil {
		return nil, m.InsertError
	}

	updated, err := m.rides.decrementLocked(booking.RideID, booking.SeatsBooked)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	m.mu.Unlock()

	return updated, nil
}

func (m *MockBookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0)
	for _, b := range m.bookings {
		if b.PassengerID == passengerID {
			copy := *b
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Count returns the number of stored bookings.
func (m *MockBookingRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// ──────────────────────────────────────────────
// MOCK MESSAGE REPOSITORY
// ──────────────────────────────────────────────

// MockMessageRepository is a mock implementation of MessageRepository.
type MockMessageRepository struct {
	mu       sync.RWMutex
	messages []*domain.Message

	// Error injection
	CreateError error
}

// NewMockMessageRepository creates a new mock message repository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *msg
	m.messages = append(m.messages, &copy)
	return nil
}

func (m *MockMessageRepository) ListByRide(ctx context.Context, rideID string, limit int) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Message, 0)
	for _, msg := range m.messages {
		if msg.RideID == rideID {
			copy := *msg
			result = append(result, &copy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK MESSAGE PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published messages.
type MockPublisher struct {
	mu        sync.Mutex
	Published []*domain.Message

	// Error injection
	PublishError error
}

func (m *MockPublisher) Publish(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.Published = append(m.Published, msg)
	return nil
}

// Ensure mocks implement interfaces.
var (
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ repository.RideRepository    = (*MockRideRepository)(nil)
	_ repository.BookingRepository = (*MockBookingRepository)(nil)
	_ repository.MessageRepository = (*MockMessageRepository)(nil)
)
