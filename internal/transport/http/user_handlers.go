package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-router/internal/core"
	"github.com/vovakirdan/wirechat-router/internal/service/chat"
)

// UserHandlers provides HTTP handlers for identity lookups.
type UserHandlers struct {
	chats core.ChatService
	api   *APIHandlers
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(chats core.ChatService, api *APIHandlers, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		chats: chats,
		api:   api,
		log:   logger,
	}
}

// SearchUsers handles searching identities by login substring. The caller is
// left out of the results.
// GET /api/users/search?q=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	trimmed := strings.TrimSpace(c.Query("q"))
	if len(trimmed) < 3 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search query must be at least 3 characters"})
		return
	}

	identityID := c.GetString(ContextKeyIdentityID)

	profiles, err := h.chats.SearchByLogin(c.Request.Context(), identityID, trimmed)
	if err != nil {
		h.api.writeChatError(c, err)
		return
	}

	response := make([]chat.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID == identityID {
			continue
		}
		response = append(response, p)
	}

	c.JSON(http.StatusOK, response)
}

// GetUser returns one identity's profile.
// GET /api/profiles/:id
func (h *UserHandlers) GetUser(c *gin.Context) {
	profile, err := h.chats.GetProfile(c.Request.Context(), c.GetString(ContextKeyIdentityID), c.Param("id"))
	if err != nil {
		h.api.writeChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
