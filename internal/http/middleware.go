package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxUserID = "userID"
	ctxOwner  = "owner"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// authRequired пропускает только запросы с валидным JWT
func (s *Server) authRequired(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, err := s.auth.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(ctxUserID, userID)
	c.Next()
}

// identity определяет владельца корзины: аутентифицированный пользователь
// либо гостевая сессия. Гость без X-Session-Id получает новый id в ответе.
func (s *Server) identity(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if userID, err := s.auth.ParseToken(token); err == nil {
			c.Set(ctxUserID, userID)
			c.Set(ctxOwner, userID)
			c.Next()
			return
		}
	}
	sid := c.GetHeader("X-Session-Id")
	if sid == "" {
		sid = uuid.NewString()
	}
	c.Header("X-Session-Id", sid)
	c.Set(ctxOwner, sid)
	c.Next()
}
