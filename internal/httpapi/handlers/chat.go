package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aimedguru/backend/internal/chat"
	"github.com/aimedguru/backend/internal/common"
	"github.com/aimedguru/backend/pkg/logger"
)

type chatReq struct {
	Messages      []chat.IncomingMessage `json:"messages"`
	IsAntiGravity bool                   `json:"isAntiGravity"`
	SessionID     string                 `json:"sessionId"`
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	if _, ok := identityFromContext(c); !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	sid, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create session")
		return
	}
	// the conversation document itself is created by the first append
	common.OK(c, gin.H{"session_id": sid})
}

// Chat relays the upstream token stream as a plain-text body. Errors before
// the first fragment produce a JSON error; errors after it abort the
// connection so the client never mistakes a truncated reply for a complete
// one.
func (h *Handler) Chat(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	if strings.TrimSpace(h.Cfg.GeminiAPIKey) == "" {
		logger.Errorf("critical: GEMINI_API_KEY is missing from environment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "missing API key"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	ctx := c.Request.Context()
	chunks, errs := h.ChatSvc.Relay(ctx, chat.RelayRequest{
		Messages:    req.Messages,
		AntiGravity: req.IsAntiGravity,
		SessionID:   req.SessionID,
		UserEmail:   ident.Email,
	})

	wrote := false
	for frag := range chunks {
		if !wrote {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Status(http.StatusOK)
			wrote = true
		}
		// keep draining on write errors; the relay stops with the request
		// context and a dead client surfaces there
		if _, err := c.Writer.WriteString(frag); err == nil {
			flusher.Flush()
		}
	}

	if err := <-errs; err != nil {
		if !wrote {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("streaming error session=%s: %v", req.SessionID, err)
		panic(http.ErrAbortHandler)
	}

	if !wrote {
		// empty but successful stream
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
	}
}

func (h *Handler) History(c *gin.Context) {
	if _, ok := identityFromContext(c); !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		common.Fail(c, http.StatusBadRequest, 10004, "sessionId required")
		return
	}

	msgs := h.ChatSvc.History(c.Request.Context(), sessionID)
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
