package httpapi

import (
	"errors"
	"net/http"

	"sales-dialer/internal/auth"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	Key      string `json:"key"`
	Operator string `json:"operator"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// IssueToken exchanges an operator or agent key for a token pair.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "auth not enabled"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		badRequest(c, "key required")
		return
	}
	pair, err := h.Auth.Exchange(h.now(), req.Key, req.Operator)
	if errors.Is(err, auth.ErrInvalidKey) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid key"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", pair)
}

func (h Handlers) RefreshToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "auth not enabled"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, "refresh_token required")
		return
	}
	pair, err := h.Auth.Refresh(h.now(), req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return
	}
	ok(c, http.StatusOK, "", pair)
}
