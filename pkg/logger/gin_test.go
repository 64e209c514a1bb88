package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(newWithWriter(&buf, "production")))
	r.GET("/x", func(c *gin.Context) {
		if From(c.Request.Context()) != FromGin(c) {
			t.Errorf("expected same logger on request context")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-Id") != "rid-1" {
		t.Fatalf("expected request id echoed, got %q", w.Header().Get("X-Request-Id"))
	}
	if !strings.Contains(buf.String(), `"request_id":"rid-1"`) {
		t.Fatalf("expected request id in log line: %s", buf.String())
	}
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(Discard()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestMiddleware_QuietPathsLogOnlyFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(newWithWriter(&buf, "production")))
	fail := false
	r.POST("/api/calls/webhook", func(c *gin.Context) {
		if fail {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/calls/webhook", nil))
	if buf.Len() != 0 {
		t.Fatalf("expected no log line for a delivered webhook: %s", buf.String())
	}

	fail = true
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/calls/webhook", nil))
	if !strings.Contains(buf.String(), `"status":500`) {
		t.Fatalf("expected failed webhook logged: %s", buf.String())
	}
}

func TestMiddleware_SummaryUsesAttachedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(newWithWriter(&buf, "production")))
	r.GET("/x", func(c *gin.Context) {
		Attach(c, FromGin(c).With("operator", "asha"))
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !strings.Contains(buf.String(), `"operator":"asha"`) {
		t.Fatalf("expected operator on summary line: %s", buf.String())
	}
}
