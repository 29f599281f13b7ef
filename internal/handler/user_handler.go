package handler

import (
	"net/http"
	"time"

	"go-gin-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group(apiPrefix+"/users", auth)
	{
		router.GET("me", h.Me)
		router.PUT("me/provider-token", h.LinkProvider)
	}
}

type LinkProviderRequest struct {
	AccessToken string     `json:"access_token" binding:"required"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "Me")
		return
	}
	handleSuccess(c, profile, http.StatusOK)
}

func (h *UserHandler) LinkProvider(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req LinkProviderRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.LinkProvider(c.Request.Context(), userID, req.AccessToken, req.ExpiresAt); err != nil {
		handleError(c, err, "LinkProvider")
		return
	}
	handleSuccess(c, nil, http.StatusNoContent)
}
