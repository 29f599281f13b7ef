package handler

import (
	"net/http"

	"go-gin-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// RegisterRoutes 驗票與入場路由不需登入（由現場設備呼叫）
func (h *TicketHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group(apiPrefix + "/tickets")
	{
		router.POST("validate/:code", h.Validate)
		router.POST("use/:code", h.Use)
	}

	authed := router.Group("", auth)
	{
		authed.POST("purchase/:eventId", h.Purchase)
		authed.GET("my-tickets", h.MyTickets)
		authed.POST("cancel/:code", h.Cancel)
		authed.GET("event/:eventId", h.EventTickets)
	}
}

type ticketCodeUri struct {
	Code string `uri:"code" binding:"required,max=64"`
}

func (h *TicketHandler) Purchase(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "eventId")
	if !ok {
		return
	}

	ticket, err := h.service.Purchase(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, "Purchase")
		return
	}
	handleSuccess(c, ticket, http.StatusCreated)
}

func (h *TicketHandler) MyTickets(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tickets, err := h.service.MyTickets(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err, "MyTickets")
		return
	}
	handleSuccess(c, tickets, http.StatusOK)
}

func (h *TicketHandler) Validate(c *gin.Context) {
	var uri ticketCodeUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	result, err := h.service.Validate(c.Request.Context(), uri.Code)
	if err != nil {
		handleError(c, err, "Validate")
		return
	}
	handleSuccess(c, result, http.StatusOK)
}

func (h *TicketHandler) Use(c *gin.Context) {
	var uri ticketCodeUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	ticket, err := h.service.Use(c.Request.Context(), uri.Code)
	if err != nil {
		handleError(c, err, "Use")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *TicketHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var uri ticketCodeUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	ticket, err := h.service.Cancel(c.Request.Context(), userID, uri.Code)
	if err != nil {
		handleError(c, err, "Cancel")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *TicketHandler) EventTickets(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "eventId")
	if !ok {
		return
	}

	tickets, err := h.service.EventTickets(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, "EventTickets")
		return
	}
	handleSuccess(c, tickets, http.StatusOK)
}
