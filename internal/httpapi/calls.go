package httpapi

import (
	"net/http"

	"sales-dialer/internal/auth"
	"sales-dialer/internal/calls"
	"sales-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

type startCallRequest struct {
	LeadID        string `json:"lead_id"`
	CustomMessage string `json:"custom_message"`
}

// StartCall dials a lead. A provider rejection is answered with 502 and the
// provider's message; the failed call stays recorded.
func (h Handlers) StartCall(c *gin.Context) {
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.LeadID == "" {
		badRequest(c, "Lead ID is required")
		return
	}
	call, err := h.Calls.StartCall(c.Request.Context(), req.LeadID, req.CustomMessage)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Call initiated successfully", call)
}

func (h Handlers) ListCalls(c *gin.Context) {
	out, err := h.Calls.List(c.Request.Context(), calls.Filter{
		LeadID: c.Query("lead_id"),
		Status: calls.Status(c.Query("status")),
	})
	if err != nil {
		fail(c, err)
		return
	}
	list(c, out)
}

func (h Handlers) GetCall(c *gin.Context) {
	call, err := h.Calls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", call)
}

// UpdateCall applies an operator edit. When auth is on the editor is stamped
// into the call metadata as updated_by.
func (h Handlers) UpdateCall(c *gin.Context) {
	var in calls.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if op, err := auth.Operator(c.Request.Context()); err == nil {
		md := make(map[string]any, len(in.Metadata)+1)
		for k, v := range in.Metadata {
			md[k] = v
		}
		md["updated_by"] = op
		in.Metadata = md
	}
	call, err := h.Calls.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	logger.FromGin(c).Info("call edited", "call_id", call.ID, "status", string(call.Status))
	ok(c, http.StatusOK, "Call updated successfully", call)
}

func (h Handlers) CallRecording(c *gin.Context) {
	url, err := h.Calls.Recording(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"recording_url": url})
}

func (h Handlers) CallStats(c *gin.Context) {
	st, err := h.Reporting.CallStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", st)
}
