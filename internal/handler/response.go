package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"rideshare/internal/domain"
	"rideshare/internal/middleware"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError names a request field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are attached to the context for the request logger and
// never shown to the caller.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondBindError reports a request body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Fields: fields})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrInsufficientSeats),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}

// currentUser returns the authenticated user or aborts with 401.
func currentUser(c *gin.Context) (*domain.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: service.ErrUnauthorized.Error()})
		return nil, false
	}
	return user, true
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	IsRider      bool      `json:"is_rider"`
	IsPassenger  bool      `json:"is_passenger"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		IsRider:     u.IsRider,
		IsPassenger: u.IsPassenger,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.ProfileImage != "" {
		img := u.ProfileImage
		resp.ProfileImage = &img
	}
	return resp
}

// RideResponse is the public view of a ride.
type RideResponse struct {
	ID             string            `json:"id"`
	RiderID        string            `json:"rider_id"`
	RiderName      string            `json:"rider_name"`
	Origin         domain.Location   `json:"origin"`
	Destination    domain.Location   `json:"destination"`
	DepartureTime  time.Time         `json:"departure_time"`
	AvailableSeats int               `json:"available_seats"`
	PricePerSeat   float64           `json:"price_per_seat"`
	Description    string            `json:"description"`
	RouteInfo      *domain.RouteInfo `json:"route_info"`
	Status         domain.RideStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func newRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:             r.ID,
		RiderID:        r.RiderID,
		RiderName:      r.RiderName,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		AvailableSeats: r.AvailableSeats,
		PricePerSeat:   r.PricePerSeat,
		Description:    r.Description,
		RouteInfo:      r.RouteInfo,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func newRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, newRideResponse(r))
	}
	return out
}

// BookingResponse is the public view of a booking.
type BookingResponse struct {
	ID            string               `json:"id"`
	RideID        string               `json:"ride_id"`
	PassengerID   string               `json:"passenger_id"`
	PassengerName string               `json:"passenger_name"`
	SeatsBooked   int                  `json:"seats_booked"`
	TotalPrice    float64              `json:"total_price"`
	Status        domain.BookingStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func newBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		RideID:        b.RideID,
		PassengerID:   b.PassengerID,
		PassengerName: b.PassengerName,
		SeatsBooked:   b.SeatsBooked,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
