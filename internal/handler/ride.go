package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// LocationRequest is a named point in a request body.
type LocationRequest struct {
	Name string  `json:"name" binding:"required"`
	Lat  float64 `json:"lat" binding:"latitude"`
	Lng  float64 `json:"lng" binding:"longitude"`
}

func (l LocationRequest) toDomain() domain.Location {
	return domain.Location{Name: l.Name, Lat: l.Lat, Lng: l.Lng}
}

// RouteInfoRequest is the optional route metadata of a ride.
type RouteInfoRequest struct {
	Distance float64        `json:"distance" binding:"gte=0"`
	Duration float64        `json:"duration" binding:"gte=0"`
	Route    map[string]any `json:"route,omitempty"`
}

// PublishRideRequest is the HTTP request body for publishing a ride.
type PublishRideRequest struct {
	Origin         LocationRequest   `json:"origin"`
	Destination    LocationRequest   `json:"destination"`
	DepartureTime  time.Time         `json:"departure_time"`
	AvailableSeats int               `json:"available_seats" binding:"gte=0"`
	PricePerSeat   float64           `json:"price_per_seat" binding:"gte=0"`
	Description    string            `json:"description"`
	RouteInfo      *RouteInfoRequest `json:"route_info,omitempty"`
}

// Publish handles POST /api/rides
func (h *RideHandler) Publish(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PublishRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var routeInfo *domain.RouteInfo
	if req.RouteInfo != nil {
		routeInfo = &domain.RouteInfo{
			Distance: req.RouteInfo.Distance,
			Duration: req.RouteInfo.Duration,
			Route:    req.RouteInfo.Route,
		}
	}

	ride, err := h.rideService.Publish(c.Request.Context(), user, service.PublishRideRequest{
		Origin:         req.Origin.toDomain(),
		Destination:    req.Destination.toDomain(),
		DepartureTime:  req.DepartureTime,
		AvailableSeats: req.AvailableSeats,
		PricePerSeat:   req.PricePerSeat,
		Description:    req.Description,
		RouteInfo:      routeInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRideResponse(ride))
}

// Search handles GET /api/rides?date=YYYY-MM-DD
func (h *RideHandler) Search(c *gin.Context) {
	rides, err := h.rideService.Search(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRideResponses(rides))
}

// ListMine handles GET /api/rides/my
func (h *RideHandler) ListMine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rides, err := h.rideService.ListOwned(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRideResponses(rides))
}
