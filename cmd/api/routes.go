package main

import (
	"sales-dialer/internal/auth"
	"sales-dialer/internal/httpapi"
	"sales-dialer/internal/rbac"
	"sales-dialer/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes mounts the dialer API. The webhook and health check stay
// public; with a nil auth manager /api is open too and lead deletion is
// unguarded.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, webhook telephony.WebhookHandler, am *auth.Manager) {
	// public
	r.GET("/health", h.Health)
	r.NoRoute(httpapi.NotFound)

	// Provider webhook (public). Always answers 200.
	r.POST("/api/calls/webhook", webhook.Handle)

	if am != nil {
		tokens := r.Group("/api/auth")
		tokens.POST("/token", h.IssueToken)
		tokens.POST("/refresh", h.RefreshToken)
	}

	api := r.Group("/api")
	adminOnly := []gin.HandlerFunc{}
	if am != nil {
		api.Use(auth.RequireAccessToken(am))
		adminOnly = append(adminOnly, rbac.RequireAnyRole(rbac.RoleAdmin))
	}

	// LEADS routes
	leadsGroup := api.Group("/leads")
	{
		leadsGroup.GET("", h.ListLeads)
		leadsGroup.POST("", h.CreateLead)
		leadsGroup.GET("/stats", h.LeadStats)
		leadsGroup.GET("/:id", h.GetLead)
		leadsGroup.PUT("/:id", h.UpdateLead)
		leadsGroup.DELETE("/:id", append(adminOnly, h.DeleteLead)...)
	}

	// CALLS routes
	callsGroup := api.Group("/calls")
	{
		callsGroup.POST("/start", h.StartCall)
		callsGroup.GET("", h.ListCalls)
		callsGroup.GET("/stats", h.CallStats)
		callsGroup.GET("/:id", h.GetCall)
		callsGroup.PUT("/:id", h.UpdateCall)
		callsGroup.GET("/:id/recording", h.CallRecording)
	}

	// APPOINTMENTS routes
	appts := api.Group("/appointments")
	{
		appts.GET("", h.ListAppointments)
		appts.POST("", h.CreateAppointment)
		appts.PUT("/:id", h.UpdateAppointment)
	}

	// UPLOAD routes
	upload := api.Group("/upload")
	{
		upload.POST("", h.UploadLeads)
		upload.GET("/sample", h.SampleWorkbook)
	}
}
