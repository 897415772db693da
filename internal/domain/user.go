package domain

import "time"

// User represents a registered account. A user can act as a rider
// (publishing rides), a passenger (booking seats), or both.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	IsRider      bool
	IsPassenger  bool
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser returns a user with the registration defaults: passenger, not rider.
func NewUser(id, email, passwordHash, name, phone string, now time.Time) *User {
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        phone,
		IsRider:      false,
		IsPassenger:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ToggleRole flips the rider flag. A user who stops being a rider is always
// left able to book as a passenger; becoming a rider keeps the passenger flag.
func (u *User) ToggleRole(now time.Time) {
	u.IsRider = !u.IsRider
	if !u.IsRider {
		u.IsPassenger = true
	}
	u.UpdatedAt = now
}
