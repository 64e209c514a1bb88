package httpapi

import (
	"net/http"

	"sales-dialer/internal/appointments"

	"github.com/gin-gonic/gin"
)

// Dates arrive as strings so date-only and local layouts are accepted; the
// outer fields shadow the service inputs' time values during decoding.
type createAppointmentRequest struct {
	appointments.CreateInput
	AppointmentDate string `json:"appointment_date"`
}

type updateAppointmentRequest struct {
	appointments.UpdateInput
	AppointmentDate *string `json:"appointment_date"`
}

func (h Handlers) ListAppointments(c *gin.Context) {
	out, err := h.Appointments.List(c.Request.Context(), appointments.Filter{
		LeadID: c.Query("lead_id"),
		CallID: c.Query("call_id"),
		Status: appointments.Status(c.Query("status")),
	})
	if err != nil {
		fail(c, err)
		return
	}
	list(c, out)
}

func (h Handlers) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	in := req.CreateInput
	if req.AppointmentDate != "" {
		t, valid := appointments.ParseDate(req.AppointmentDate, in.AppointmentTime, h.location())
		if !valid {
			badRequest(c, "appointment_date is invalid")
			return
		}
		in.AppointmentDate = t
	}
	a, err := h.Appointments.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Appointment created successfully", a)
}

func (h Handlers) UpdateAppointment(c *gin.Context) {
	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	in := req.UpdateInput
	if req.AppointmentDate != nil {
		clock := ""
		if in.AppointmentTime != nil {
			clock = *in.AppointmentTime
		}
		t, valid := appointments.ParseDate(*req.AppointmentDate, clock, h.location())
		if !valid {
			badRequest(c, "appointment_date is invalid")
			return
		}
		in.AppointmentDate = &t
	}
	a, err := h.Appointments.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Appointment updated successfully", a)
}
