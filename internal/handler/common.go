package handler

import (
	"errors"
	"net/http"

	"go-gin-event-ticketing/internal/middleware"
	"go-gin-event-ticketing/internal/webinar"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		abortInvalidRequest(c)
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		abortInvalidRequest(c)
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		abortInvalidRequest(c)
		return err
	}
	return nil
}

func abortInvalidRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request format",
		"code":  apperrors.KindValidation,
	})
}

// eventUUID 解析路徑中的活動 uuid，失敗時直接回 400
func eventUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "Invalid event id",
			"code":  apperrors.KindValidation,
		})
		return uuid.Nil, false
	}
	return eventID, true
}

// currentUser 取得 Auth middleware 放入的使用者 id
func currentUser(c *gin.Context) (int, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": apperrors.ErrUnauthorized.Message,
			"code":  apperrors.KindUnauthorized,
		})
		return 0, false
	}
	return userID, true
}

type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// statusOf 錯誤分類對應的 HTTP 狀態碼
func statusOf(err error) int {
	switch {
	// 無法購買與已使用的票屬於請求本身的問題
	case errors.Is(err, apperrors.ErrEventNotAvailable), errors.Is(err, apperrors.ErrTicketNotActive):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrEventSoldOut):
		return http.StatusConflict
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func handleError(c *gin.Context, err error, operation string) {
	status := statusOf(err)
	log := logger.WithComponent("handler").With(
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError {
		log.Error("Unexpected error")
	} else {
		log.Warn("Request failed", zap.Int("status", status))
	}

	body := gin.H{
		"error": apperrors.MessageOf(err),
		"code":  apperrors.KindOf(err),
	}
	if pe, ok := webinar.IsProviderError(err); ok {
		body["provider_status"] = pe.Status
		body["details"] = pe.Body
	}
	c.AbortWithStatusJSON(status, body)
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
