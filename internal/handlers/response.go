package handlers

import (
	"net/http"

	"flux_irrigation/internal/proxy"

	"github.com/gin-gonic/gin"
)

// Common error messages to avoid magic strings and typos.
const (
	errInvalidBodyPref   = "invalid body: "
	errCustomerNotFound  = "customer not found"
	errIssueNotFound     = "issue not found"
	errEventNotFound     = "event not found"
	errIssueNotActive    = "Issue not found or already resolved"
	errIssueNotResolved  = "Issue not found or not yet resolved"
	errNoServiceDate     = "No service date scheduled for this issue"
	errConnectionKey     = "connection key unavailable: set homeowner.url and homeowner.api_key"
	errChangeLogList     = "failed to load change log"
	errUnknownCategory   = "unknown notification category"
	errRequiredTitleText = "title is required"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// relayResponse passes a homeowner answer through unchanged, status included.
func relayResponse(c *gin.Context, resp proxy.Response) {
	if resp.Body == nil {
		c.Status(resp.StatusCode)
		return
	}
	c.JSON(resp.StatusCode, resp.Body)
}
