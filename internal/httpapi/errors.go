package httpapi

import (
	"errors"
	"net/http"

	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

// fail maps a service error onto the response envelope. Internal errors are
// logged and answered with a generic message.
func fail(c *gin.Context, err error) {
	var ae *apperr.Error
	errors.As(err, &ae)

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": ae.Message})
	case apperr.KindValidation:
		body := gin.H{"success": false, "message": ae.Message}
		if ae.Details != nil {
			body["errors"] = ae.Details
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case apperr.KindConflict:
		body := gin.H{"success": false, "message": ae.Message}
		if ae.Details != nil {
			body["data"] = ae.Details
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case apperr.KindTransport:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"success": false, "message": ae.Message})
	default:
		_ = c.Error(err)
		logger.FromGin(c).Error("request failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgInternal})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}
