package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aimedguru/backend/internal/auth"
	"github.com/aimedguru/backend/internal/chat"
	"github.com/aimedguru/backend/internal/common"
	"github.com/aimedguru/backend/internal/config"
	"github.com/aimedguru/backend/internal/httpapi/handlers"
	"github.com/aimedguru/backend/internal/httpapi/middleware"
)

func NewRouter(cfg config.Config, authSvc *auth.Service, chatSvc *chat.Service) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(cfg, authSvc, chatSvc)

	r.GET("/ping", h.Ping)

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	// Chat (verified token required)
	authed := r.Group("/", middleware.AuthRequired(cfg.JWTSecret))
	authed.GET("/auth/me", h.Me)
	authed.POST("/chat", h.Chat)
	authed.POST("/chat/sessions", h.CreateChatSession)
	authed.GET("/chat/history", h.History)

	return r
}
