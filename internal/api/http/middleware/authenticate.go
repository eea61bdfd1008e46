package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/estatehub/auth-service/internal/logger"
	"github.com/estatehub/auth-service/internal/token"
)

const userIDKey = "auth.user_id"

// TokenParser validates presented access tokens.
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// Authenticate validates bearer tokens and injects the subject id into the
// request context.
type Authenticate struct {
	parser TokenParser
	logger *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(parser TokenParser, logger *logger.Logger) *Authenticate {
	return &Authenticate{parser: parser, logger: logger}
}

// Handler aborts with 401 unless the Authorization header carries a valid
// bearer token.
func (m *Authenticate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing bearer token"})
			return
		}

		claims, err := m.parser.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid bearer token"})
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			m.logger.Error("Authenticate middleware: malformed subject", "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid bearer token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext returns the authenticated subject id set by Handler.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
