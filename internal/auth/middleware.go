package auth

import (
	"net/http"
	"strings"
	"time"

	"sales-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// bearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// RequireAccessToken guards /api. A valid access token puts the operator and
// role on the request context and tags the request logger with both; refresh
// tokens are refused here. Role checks are left to rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			deny(c, "missing bearer token")
			return
		}
		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			logger.FromGin(c).Info("access token rejected", "path", c.FullPath(), "err", err)
			deny(c, "invalid token")
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), claims.Operator, claims.Role))
		logger.Attach(c, logger.FromGin(c).With("operator", claims.Operator, "role", claims.Role))
		c.Next()
	}
}

func deny(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}
