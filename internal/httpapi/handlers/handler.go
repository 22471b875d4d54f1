package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/aimedguru/backend/internal/auth"
	"github.com/aimedguru/backend/internal/chat"
	"github.com/aimedguru/backend/internal/common"
	"github.com/aimedguru/backend/internal/config"
	"github.com/aimedguru/backend/internal/httpapi/middleware"
)

type Handler struct {
	Cfg     config.Config
	AuthSvc *auth.Service
	ChatSvc *chat.Service
}

func NewHandler(cfg config.Config, authSvc *auth.Service, chatSvc *chat.Service) *Handler {
	return &Handler{Cfg: cfg, AuthSvc: authSvc, ChatSvc: chatSvc}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func identityFromContext(c *gin.Context) (auth.Identity, bool) {
	id, okID := c.Get(middleware.UserIDKey)
	email, okEmail := c.Get(middleware.UserEmailKey)
	if !okID || !okEmail {
		return auth.Identity{}, false
	}
	idStr, ok1 := id.(string)
	emailStr, ok2 := email.(string)
	if !ok1 || !ok2 {
		return auth.Identity{}, false
	}
	return auth.Identity{ID: idStr, Email: emailStr}, true
}
