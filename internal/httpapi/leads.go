package httpapi

import (
	"net/http"

	"sales-dialer/internal/auth"
	"sales-dialer/internal/leads"
	"sales-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListLeads(c *gin.Context) {
	out, err := h.Leads.List(c.Request.Context(), leads.Filter{
		Status:   leads.Status(c.Query("status")),
		Priority: leads.Priority(c.Query("priority")),
	})
	if err != nil {
		fail(c, err)
		return
	}
	list(c, out)
}

func (h Handlers) GetLead(c *gin.Context) {
	l, err := h.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", l)
}

func (h Handlers) CreateLead(c *gin.Context) {
	var in leads.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	l, err := h.Leads.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Lead created successfully", l)
}

func (h Handlers) UpdateLead(c *gin.Context) {
	var in leads.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	l, err := h.Leads.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Lead updated successfully", l)
}

// DeleteLead removes a lead. Routes guard it with the admin role when auth is on.
func (h Handlers) DeleteLead(c *gin.Context) {
	l, err := h.Leads.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	by, err := auth.Operator(c.Request.Context())
	if err != nil {
		by = "unauthenticated"
	}
	logger.FromGin(c).Info("lead deleted", "lead_id", l.ID, "phone", l.Phone, "deleted_by", by)
	ok(c, http.StatusOK, "Lead deleted successfully", l)
}

func (h Handlers) LeadStats(c *gin.Context) {
	st, err := h.Reporting.LeadStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", st)
}
