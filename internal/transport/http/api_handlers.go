package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-router/internal/auth"
	"github.com/vovakirdan/wirechat-router/internal/core"
	"github.com/vovakirdan/wirechat-router/internal/service/chat"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	chats       core.ChatService
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, chats core.ChatService, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		chats:       chats,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=32"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register handles identity registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, identity, err := h.authService.Register(c.Request.Context(), req.Login, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidLogin), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("login", req.Login).Msg("failed to register identity")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("login", identity.Login).Str("identity_id", identity.ID).Msg("identity registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: token, Identity: identity.ID})
}

// Login handles password login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("login", req.Login).Msg("failed to login")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.SetCookie(SessionCookie, token, 3600*24, "/", "", false, true)

	h.log.Info().Str("login", req.Login).Msg("identity logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// Me returns the caller's own profile.
// GET /api/me
func (h *APIHandlers) Me(c *gin.Context) {
	identityID := c.GetString(ContextKeyIdentityID)

	profile, err := h.chats.GetProfile(c.Request.Context(), identityID, "")
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *APIHandlers) writeChatError(c *gin.Context, err error) {
	var de *chat.Error
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		switch de.Code {
		case chat.CodeNotFound:
			status = http.StatusNotFound
		case chat.CodeForbidden:
			status = http.StatusForbidden
		}
		c.JSON(status, ErrorResponse{Error: de.Message})
		return
	}

	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("chat operation failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
