package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-gin-event-ticketing/internal/handler"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service/mocks"
	"go-gin-event-ticketing/internal/webinar"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupWebinarTestRouter(mockService *mocks.WebinarServiceMock) *gin.Engine {
	router, auth := newTestRouter()
	handler.NewWebinarHandler(mockService).RegisterRoutes(router, auth)
	return router
}

func TestCreateWebinar(t *testing.T) {
	eventID := uuid.New()
	url := fmt.Sprintf("/api/v1/webinars/%s", eventID)

	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		mockService.On("Create", mock.Anything, 1, eventID).Return(&model.WebinarIDs{
			VideoID:  "vid",
			StreamID: "stream",
			ChatID:   "chat",
		}, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("POST", url, nil), 1))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"video_id":"vid","stream_id":"stream","chat_id":"chat"}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - Provider not linked", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		mockService.On("Create", mock.Anything, 1, eventID).Return(nil, apperrors.ErrProviderNotLinked).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("POST", url, nil), 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - Provider error body is surfaced", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		providerErr := &webinar.ProviderError{
			Status: http.StatusForbidden,
			Body:   json.RawMessage(`{"error":{"message":"liveStreamingNotEnabled"}}`),
		}
		mockService.On("Create", mock.Anything, 1, eventID).Return(nil, fmt.Errorf("insert live stream: %w", providerErr)).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("POST", url, nil), 1))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := decodeBody(t, w.Body.Bytes())
		assert.Equal(t, "UPSTREAM_ERROR", body["code"])
		assert.Equal(t, float64(http.StatusForbidden), body["provider_status"])
		assert.Contains(t, w.Body.String(), "liveStreamingNotEnabled")
		mockService.AssertExpectations(t)
	})
}

func TestGetWebinar(t *testing.T) {
	eventID := uuid.New()
	url := fmt.Sprintf("/api/v1/webinars/%s", eventID)

	cases := []struct {
		name   string
		ids    *model.WebinarIDs
		err    error
		status int
	}{
		{"Success", &model.WebinarIDs{VideoID: "vid"}, nil, http.StatusOK},
		{"No webinar", nil, apperrors.ErrWebinarNotFound, http.StatusNotFound},
		{"No qualifying ticket", nil, apperrors.ErrForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := mocks.NewWebinarServiceMock()
			router := setupWebinarTestRouter(mockService)

			if tc.ids != nil {
				mockService.On("Get", mock.Anything, 9, eventID).Return(tc.ids, nil).Once()
			} else {
				mockService.On("Get", mock.Anything, 9, eventID).Return(nil, tc.err).Once()
			}

			req, _ := http.NewRequest("GET", url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authorize(t, req, 9))

			assert.Equal(t, tc.status, w.Code)
			mockService.AssertExpectations(t)
		})
	}

	t.Run("Failed - Unauthenticated", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		req, _ := http.NewRequest("GET", url, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWebinarChat(t *testing.T) {
	eventID := uuid.New()
	url := fmt.Sprintf("/api/v1/webinars/%s/chat", eventID)

	t.Run("List passes provider response through", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		raw := json.RawMessage(`{"items":[{"id":"m1"}],"nextPageToken":"abc"}`)
		mockService.On("ListChat", mock.Anything, 9, eventID).Return(raw, nil).Once()

		req, _ := http.NewRequest("GET", url, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, req, 9))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, string(raw), w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		mockService.AssertExpectations(t)
	})

	t.Run("Post", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		raw := json.RawMessage(`{"id":"m2"}`)
		mockService.On("PostChat", mock.Anything, 9, eventID, "hello").Return(raw, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("POST", url, map[string]string{"text": "hello"}), 9))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":"m2"}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Post - Missing text", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("POST", url, map[string]string{}), 9))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "PostChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Post - Forbidden", func(t *testing.T) {
		mockService := mocks.NewWebinarServiceMock()
		router := setupWebinarTestRouter(mockService)

		mockService.On("PostChat", mock.Anything, 9, eventID, "hello").Return(nil, apperrors.ErrForbidden).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("POST", url, map[string]string{"text": "hello"}), 9))

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockService.AssertExpectations(t)
	})
}
