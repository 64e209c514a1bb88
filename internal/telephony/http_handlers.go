package telephony

import (
	"context"
	"errors"
	"io"
	"net/http"

	"sales-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Reconciler applies a normalized webhook event to local records.
type Reconciler interface {
	Reconcile(ctx context.Context, ev Event) error
}

const defaultWebhookMaxBody = 2 << 20

// WebhookHandler receives provider callbacks.
//
// The provider retries on any non-2xx response, so every delivery is
// acknowledged with 200 {"received": true}. Parse and reconcile failures are
// logged and swallowed.
type WebhookHandler struct {
	Reconciler Reconciler
	MaxBody    int64
}

func (h WebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	defer func() {
		if p := recover(); p != nil {
			log.Error("webhook handler panic", "panic", p)
		}
		if !c.Writer.Written() {
			c.JSON(http.StatusOK, gin.H{"received": true})
		}
	}()

	max := h.MaxBody
	if max <= 0 {
		max = defaultWebhookMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, max))
	if err != nil {
		log.Warn("webhook body read failed", "err", err)
		return
	}

	ev, err := ParseWebhook(body)
	if err != nil {
		if errors.Is(err, ErrMissingCallID) {
			log.Debug("webhook without call id ignored", "type", ev.Type)
			return
		}
		log.Warn("webhook parse failed", "err", err)
		return
	}
	if h.Reconciler == nil {
		log.Error("webhook reconciler not configured", "provider_call_id", ev.CallID)
		return
	}

	log.Debug("webhook received", "type", ev.Type, "provider_call_id", ev.CallID, "status", ev.Status)
	if err := h.Reconciler.Reconcile(c.Request.Context(), ev); err != nil {
		log.Error("webhook reconcile failed", "type", ev.Type, "provider_call_id", ev.CallID, "err", err)
	}
}
