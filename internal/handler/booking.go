package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookRequest is the HTTP request body for booking seats.
type BookRequest struct {
	RideID         string `json:"ride_id" binding:"required"`
	SeatsRequested int    `json:"seats_requested" binding:"required,gt=0"`
}

// Book handles POST /api/bookings
func (h *BookingHandler) Book(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.Book(c.Request.Context(), user, service.BookRequest{
		RideID:         req.RideID,
		SeatsRequested: req.SeatsRequested,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newBookingResponse(booking))
}

// ListMine handles GET /api/bookings/my
func (h *BookingHandler) ListMine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListForPassenger(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, newBookingResponse(b))
	}
	c.JSON(http.StatusOK, response)
}
