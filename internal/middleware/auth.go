package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey gin context 中已驗證的使用者 id
const UserIDKey = "user_id"

// Claims token 只帶使用者 id，角色等資料一律以資料庫為準
type Claims struct {
	UserID int `json:"id"`
	jwt.RegisteredClaims
}

// SignToken 簽發 HS256 token。登入流程不在此服務內，供測試與維運工具使用
func SignToken(secret string, userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken 驗證簽章與期限，回傳使用者 id
func ParseToken(secret, raw string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("token expired: %w", apperrors.ErrInvalidToken)
		}
		return 0, apperrors.ErrInvalidToken
	}
	if !token.Valid || claims.UserID <= 0 {
		return 0, apperrors.ErrInvalidToken
	}
	return claims.UserID, nil
}

// Auth 從 cookie 或 Authorization: Bearer 取得 token
func Auth(secret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" && cookieName != "" {
			raw, _ = c.Cookie(cookieName)
		}
		if raw == "" {
			abortUnauthorized(c, apperrors.ErrUnauthorized)
			return
		}

		userID, err := ParseToken(secret, raw)
		if err != nil {
			abortUnauthorized(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID 取得已驗證的使用者 id；未經 Auth 時回傳 false
func UserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok && id > 0
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, err *apperrors.Error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": err.Message,
		"code":  err.Kind,
	})
}
