package httpapi

import (
	"net/http"
	"time"

	"sales-dialer/internal/appointments"
	"sales-dialer/internal/auth"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/importer"
	"sales-dialer/internal/leads"
	"sales-dialer/internal/reporting"
	"sales-dialer/internal/store"

	"github.com/gin-gonic/gin"
)

// ModeReporter exposes the active storage mode for health checks.
type ModeReporter interface {
	Mode() store.Mode
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Leads        *leads.Service
	Calls        *calls.Manager
	Appointments *appointments.Service
	Reporting    *reporting.Service
	Importer     *importer.Importer
	Auth         *auth.Manager
	Storage      ModeReporter

	Env            string
	UploadMaxBytes int64

	// Location is used to read date-only appointment inputs.
	Location *time.Location
	Now      func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handlers) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	mode := store.ModeVolatile
	if h.Storage != nil {
		mode = h.Storage.Mode()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"environment": h.Env,
		"storage":     mode,
		"timestamp":   h.now().UTC().Format(time.RFC3339),
	})
}

// NotFound is the fallback for unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
}

func ok(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func list[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "data": items})
}
