package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/handler"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service/mocks"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupUserTestRouter(mockService *mocks.UserServiceMock) *gin.Engine {
	router, auth := newTestRouter()
	handler.NewUserHandler(mockService).RegisterRoutes(router, auth)
	return router
}

func TestMe(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewUserServiceMock()
		router := setupUserTestRouter(mockService)

		token := "secret-provider-token"
		mockService.On("Me", mock.Anything, 4).Return(&model.UserProfile{
			User:             model.User{ID: 4, Name: "Ada", Role: model.RoleCreator, YoutubeAccessToken: &token},
			CreatedEvents:    2,
			PurchasedTickets: 5,
		}, nil).Once()

		req, _ := http.NewRequest("GET", "/api/v1/users/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, req, 4))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w.Body.Bytes())
		assert.Equal(t, float64(2), body["created_events"])
		assert.Equal(t, float64(5), body["purchased_tickets"])
		assert.NotContains(t, w.Body.String(), token)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - User deleted", func(t *testing.T) {
		mockService := mocks.NewUserServiceMock()
		router := setupUserTestRouter(mockService)

		mockService.On("Me", mock.Anything, 4).Return(nil, apperrors.ErrUserNotFound).Once()

		req, _ := http.NewRequest("GET", "/api/v1/users/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, req, 4))

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - Cookie with bad token", func(t *testing.T) {
		mockService := mocks.NewUserServiceMock()
		router := setupUserTestRouter(mockService)

		req, _ := http.NewRequest("GET", "/api/v1/users/me", nil)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: "garbage"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
	})
}

func TestLinkProvider(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewUserServiceMock()
		router := setupUserTestRouter(mockService)

		expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		mockService.On("LinkProvider", mock.Anything, 4, "ya29.token", mock.MatchedBy(func(e *time.Time) bool {
			return e != nil && e.Equal(expiry)
		})).Return(nil).Once()

		body := map[string]string{"access_token": "ya29.token", "expires_at": expiry.Format(time.RFC3339)}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("PUT", "/api/v1/users/me/provider-token", body), 4))

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - Missing token", func(t *testing.T) {
		mockService := mocks.NewUserServiceMock()
		router := setupUserTestRouter(mockService)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorize(t, createJSONHTTPRequest("PUT", "/api/v1/users/me/provider-token", map[string]string{}), 4))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "LinkProvider", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
