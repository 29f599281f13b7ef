package handler

import (
	"encoding/json"
	"net/http"

	"go-gin-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type WebinarHandler struct {
	service service.WebinarService
}

func NewWebinarHandler(service service.WebinarService) *WebinarHandler {
	return &WebinarHandler{service: service}
}

func (h *WebinarHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group(apiPrefix+"/webinars", auth)
	{
		router.POST(":eventId", h.Create)
		router.GET(":eventId", h.Get)
		router.GET(":eventId/chat", h.ListChat)
		router.POST(":eventId/chat", h.PostChat)
	}
}

type ChatMessageRequest struct {
	Text string `json:"text" binding:"required,max=200"`
}

func (h *WebinarHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "eventId")
	if !ok {
		return
	}

	ids, err := h.service.Create(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, "CreateWebinar")
		return
	}
	handleSuccess(c, ids, http.StatusCreated)
}

func (h *WebinarHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "eventId")
	if !ok {
		return
	}

	ids, err := h.service.Get(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, "GetWebinar")
		return
	}
	handleSuccess(c, ids, http.StatusOK)
}

func (h *WebinarHandler) ListChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "eventId")
	if !ok {
		return
	}

	messages, err := h.service.ListChat(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, err, "ListChat")
		return
	}
	writeRaw(c, http.StatusOK, messages)
}

func (h *WebinarHandler) PostChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := eventUUID(c, "eventId")
	if !ok {
		return
	}
	var req ChatMessageRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	message, err := h.service.PostChat(c.Request.Context(), userID, eventID, req.Text)
	if err != nil {
		handleError(c, err, "PostChat")
		return
	}
	writeRaw(c, http.StatusCreated, message)
}

// writeRaw 平台回應原樣轉出
func writeRaw(c *gin.Context, status int, body json.RawMessage) {
	if len(body) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
