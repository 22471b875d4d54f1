package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimedguru/backend/internal/auth"
	"github.com/aimedguru/backend/internal/common"
	"github.com/aimedguru/backend/internal/httpapi/middleware"
	"github.com/aimedguru/backend/pkg/logger"
)

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	err := h.AuthSvc.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		common.Created(c, gin.H{"email": req.Email})
	case errors.Is(err, auth.ErrMissingFields):
		common.Fail(c, http.StatusBadRequest, 10002, "email and password required")
	case errors.Is(err, auth.ErrUserExists):
		common.Fail(c, http.StatusBadRequest, 10003, "user already exists")
	default:
		// persistence is on the critical path here; surface it, but
		// only the generic message leaves the process
		logger.Errorf("register failed email=%s: %v", req.Email, err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ident, err := h.AuthSvc.Authorize(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Errorf("login failed email=%s: %v", req.Email, err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if ident == nil {
		// same rejection for unknown email and wrong password
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid email or password")
		return
	}

	token, err := auth.SignJWT(ident.ID, ident.Email, h.Cfg.JWTSecret, auth.TokenTTL)
	if err != nil {
		logger.Errorf("sign token email=%s: %v", req.Email, err)
		common.Fail(c, http.StatusInternalServerError, 50002, "internal error")
		return
	}

	c.SetCookie(middleware.AuthCookie, token, int(auth.TokenTTL.Seconds()), "/", "", false, true)
	common.OK(c, gin.H{
		"token": token,
		"user":  gin.H{"id": ident.ID, "email": ident.Email},
	})
}

func (h *Handler) Me(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	common.OK(c, gin.H{"id": ident.ID, "email": ident.Email})
}
