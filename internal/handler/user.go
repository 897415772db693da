package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ToggleRoleResponse is the HTTP response for a role toggle.
type ToggleRoleResponse struct {
	Message     string `json:"message"`
	IsRider     bool   `json:"is_rider"`
	IsPassenger bool   `json:"is_passenger"`
}

// ToggleRole handles PUT /api/users/toggle-role
func (h *UserHandler) ToggleRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.userService.ToggleRole(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetUser(c, updated)

	c.JSON(http.StatusOK, ToggleRoleResponse{
		Message:     "Role updated successfully",
		IsRider:     updated.IsRider,
		IsPassenger: updated.IsPassenger,
	})
}
