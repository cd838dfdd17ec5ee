package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"pousada/internal/app/dto"
	authsvc "pousada/internal/app/services/auth"
)

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id"`
}

type switchTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

func (h AuthHandler) Login(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		TenantID: req.TenantID,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapSession(sess, true))
}

func (h AuthHandler) Logout(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	sc, ok := currentSession(c)
	if !ok || sc.ConsoleToken == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.Service.Logout(c.Request.Context(), sc.ConsoleToken); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("logout failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Session(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.MapSession(&sess, false))
}

func (h AuthHandler) SwitchTenant(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	sc, ok := currentSession(c)
	if !ok || sc.ConsoleToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	var req switchTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.Service.SwitchTenant(c.Request.Context(), sc.ConsoleToken, req.TenantID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapSession(sess, false))
}

var _ AuthHTTP = AuthHandler{}
