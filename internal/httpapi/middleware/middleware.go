package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aimedguru/backend/internal/auth"
	"github.com/aimedguru/backend/internal/common"
	"github.com/aimedguru/backend/pkg/logger"
)

const (
	UserIDKey    = "auth.user_id"
	UserEmailKey = "auth.email"

	// AuthCookie is the session cookie set by login.
	AuthCookie = "auth_token"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header("X-Request-ID", rid)
		c.Set("request_id", rid)
		c.Next()
	}
}

// Recovery converts panics into 500s, except http.ErrAbortHandler which is
// re-raised so net/http drops the connection mid-stream.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok && err == http.ErrAbortHandler {
					panic(err)
				}
				logger.Errorf("panic recovered: %v", r)
				if !c.Writer.Written() {
					common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

// AuthRequired resolves the request identity from a bearer token or the
// session cookie and stores it on the context for handlers to pass along.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			if cookie, err := c.Cookie(AuthCookie); err == nil {
				token = cookie
			}
		}
		if token == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}

		claims, err := auth.ParseJWT(token, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Next()
	}
}
