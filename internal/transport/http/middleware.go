package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-router/internal/auth"
)

const (
	// ContextKeyIdentityID is the context key for storing the caller's identity id.
	ContextKeyIdentityID = "identity_id"
	// ContextKeyLogin is the context key for storing the caller's login.
	ContextKeyLogin = "login"

	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"
)

// credentialsFromRequest extracts a session token from, in order, the
// Authorization header, the token query parameter and the session cookie.
func credentialsFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware creates a middleware that resolves the session token to a
// live identity.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := credentialsFromRequest(c.Request)
		if token == "" {
			logger.Debug().Msg("missing session token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing session token"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyIdentityID, claims.IdentityID)
		c.Set(ContextKeyLogin, claims.Login)

		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
