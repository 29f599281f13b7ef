package handler

import (
	"context"
	"net/http"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group(apiPrefix + "/events")
	{
		router.GET("", h.List)
		router.GET(":uuid", h.Get)
		router.GET(":uuid/comments", h.ListComments)
	}

	authed := router.Group("", auth)
	{
		authed.POST("", h.Create)
		authed.PUT(":uuid", h.Update)
		authed.DELETE(":uuid", h.Delete)
		authed.POST(":uuid/publish", h.Publish)
		authed.POST(":uuid/cancel", h.Cancel)
		authed.POST(":uuid/complete", h.Complete)
		authed.POST(":uuid/like", h.Like)
		authed.POST(":uuid/comments", h.AddComment)
		authed.GET(":uuid/sales", h.Sales)
	}
}

func (h *EventHandler) List(c *gin.Context) {
	var page PageQuery
	if err := BindQuery(c, &page); err != nil {
		return
	}

	events, err := h.service.List(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		handleError(c, err, "List")
		return
	}
	handleSuccess(c, events, http.StatusOK)
}

func (h *EventHandler) Get(c *gin.Context) {
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}

	event, err := h.service.Get(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, err, "Get")
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := model.CreateEventParams{
		Title:           req.Title,
		Description:     req.Description,
		OrganizedBy:     req.OrganizedBy,
		EventDate:       req.EventDate,
		EventTime:       req.EventTime,
		Location:        req.Location,
		Image:           req.Image,
		TicketPrice:     *req.TicketPrice,
		MaxParticipants: req.MaxParticipants,
	}
	event, err := h.service.Create(c.Request.Context(), userID, params)
	if err != nil {
		handleError(c, err, "Create")
		return
	}
	handleSuccess(c, event, http.StatusCreated)
}

func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}
	var req model.UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := model.UpdateEventParams{
		Title:           req.Title,
		Description:     req.Description,
		OrganizedBy:     req.OrganizedBy,
		EventDate:       req.EventDate,
		EventTime:       req.EventTime,
		Location:        req.Location,
		Image:           req.Image,
		TicketPrice:     req.TicketPrice,
		MaxParticipants: req.MaxParticipants,
	}
	if params.IsEmpty() {
		handleError(c, apperrors.ErrInvalidInput, "Update")
		return
	}

	event, err := h.service.Update(c.Request.Context(), userID, eventID, params)
	if err != nil {
		handleError(c, err, "Update")
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, eventID); err != nil {
		handleError(c, err, "Delete")
		return
	}
	handleSuccess(c, nil, http.StatusNoContent)
}

func (h *EventHandler) Publish(c *gin.Context) {
	h.transition(c, "Publish", h.service.Publish)
}

func (h *EventHandler) Cancel(c *gin.Context) {
	h.transition(c, "Cancel", h.service.Cancel)
}

func (h *EventHandler) Complete(c *gin.Context) {
	h.transition(c, "Complete", h.service.Complete)
}

type transitionFunc func(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error)

func (h *EventHandler) transition(c *gin.Context, operation string, fn transitionFunc) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}

	event, err := fn(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, operation)
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) Like(c *gin.Context) {
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}

	likes, err := h.service.Like(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, err, "Like")
		return
	}
	handleSuccess(c, gin.H{"likes": likes}, http.StatusOK)
}

func (h *EventHandler) AddComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}
	var req model.CreateCommentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), userID, eventID, req.Text)
	if err != nil {
		handleError(c, err, "AddComment")
		return
	}
	handleSuccess(c, comment, http.StatusCreated)
}

func (h *EventHandler) ListComments(c *gin.Context) {
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}
	var page PageQuery
	if err := BindQuery(c, &page); err != nil {
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), eventID, page.Limit, page.Offset)
	if err != nil {
		handleError(c, err, "ListComments")
		return
	}
	handleSuccess(c, comments, http.StatusOK)
}

func (h *EventHandler) Sales(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "uuid")
	if !ok {
		return
	}

	summary, err := h.service.Sales(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, "Sales")
		return
	}
	handleSuccess(c, summary, http.StatusOK)
}
