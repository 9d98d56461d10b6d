package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-router/internal/auth"
	"github.com/vovakirdan/wirechat-router/internal/config"
	"github.com/vovakirdan/wirechat-router/internal/core"
)

// NewServer builds the HTTP server: the websocket endpoint plus the small
// REST surface used to obtain session tokens.
func NewServer(router *core.Router, authService *auth.Service, chats core.ChatService, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)
	engine.GET("/ws", gin.WrapH(NewWSHandler(router, cfg, logger)))

	apiHandlers := NewAPIHandlers(authService, chats, logger)
	userHandlers := NewUserHandlers(chats, apiHandlers, logger)

	api := engine.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	protected := api.Group("", AuthMiddleware(authService, logger))
	protected.GET("/me", apiHandlers.Me)
	protected.GET("/users/search", userHandlers.SearchUsers)
	protected.GET("/profiles/:id", userHandlers.GetUser)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
