package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"pousada/internal/app/services/auth"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/infra/obs"
)

const (
	sessionContextKey = "pousada.session"
	tenantHeader      = "X-Pousada-Id"
)

// AuthMiddleware attaches the caller's session to the request. A console
// token resolves to a stored session and is never forwarded once expired;
// any other bearer is passed through to the PMS together with the
// X-Pousada-Id header. The tenant header also
// overrides the stored tenant for a single request when the operator may
// act on it.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
	Now     func() time.Time
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.Next()
		return
	}
	tenant := strings.TrimSpace(c.GetHeader(tenantHeader))

	if m.Service != nil {
		sess, err := m.Service.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
			if tenant != "" && tenant != sess.TenantID {
				if err := sess.SelectTenant(tenant); err != nil {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant not available for this session"})
					return
				}
			}
			setSession(c, *sess, token)
			c.Next()
			return
		case !errors.Is(err, domainauth.ErrSessionNotFound):
			if m.Logger != nil {
				m.Logger.Warn("session lookup failed", "error", err)
			}
		}
	}

	if tenant == "" {
		c.Next()
		return
	}
	sess, err := domainauth.Passthrough(token, tenant, m.now())
	if err != nil {
		c.Next()
		return
	}
	setSession(c, *sess, "")
	c.Next()
}

func (m AuthMiddleware) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

type sessionContext struct {
	Session domainauth.Session
	// ConsoleToken is empty for passthrough sessions.
	ConsoleToken string
}

func setSession(c *gin.Context, sess domainauth.Session, consoleToken string) {
	c.Set(sessionContextKey, sessionContext{Session: sess, ConsoleToken: consoleToken})
	c.Set(obs.TenantKey, sess.TenantID)
}

func currentSession(c *gin.Context) (sessionContext, bool) {
	val, exists := c.Get(sessionContextKey)
	if !exists {
		return sessionContext{}, false
	}
	sc, ok := val.(sessionContext)
	return sc, ok
}

func requireSession(c *gin.Context) (domainauth.Session, bool) {
	sc, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return domainauth.Session{}, false
	}
	return sc.Session, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
