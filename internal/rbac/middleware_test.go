package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-dialer/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(t *testing.T, role string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.DELETE("/x", func(c *gin.Context) {
		if role != "" {
			ctx := auth.WithIdentity(c.Request.Context(), "u", role)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveWithRole(t, RoleAdmin); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
}

func TestRequireAnyRole_AgentDeniedUnlessAllowed(t *testing.T) {
	if code := serveWithRole(t, RoleAgent, RoleAdmin); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := serveWithRole(t, RoleAgent, RoleAgent); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
}

func TestRequireAnyRole_RoleRequired(t *testing.T) {
	if code := serveWithRole(t, "", RoleAgent); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
