package handlers

import (
	"errors"
	"net/http"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateIssueRequest is the homeowner's issue report.
type CreateIssueRequest struct {
	// Allowed: clarification, annoyance, severe
	Severity    string `json:"severity" binding:"required" example:"annoyance"`
	Description string `json:"description" binding:"required" example:"Zone 3 sprinkler head is broken"`
}

func issueList(issues []models.Issue) gin.H {
	return gin.H{"issues": issues, "total": len(issues)}
}

// @Summary      List all issues
// @Tags         homeowner-api
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "issues, total"
// @Failure      401  {object}  map[string]string
// @Router       /api/issues [get]
// @Security     ApiKeyAuth
func (h *Handler) listIssues(c *gin.Context) {
	c.JSON(http.StatusOK, issueList(h.services.Issues.All()))
}

// @Summary      List active issues
// @Tags         homeowner-api
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "issues, total"
// @Failure      401  {object}  map[string]string
// @Router       /api/issues/active [get]
// @Security     ApiKeyAuth
func (h *Handler) activeIssues(c *gin.Context) {
	c.JSON(http.StatusOK, issueList(h.services.Issues.Active()))
}

// @Summary      Active issue summary
// @Tags         homeowner-api
// @Produce      json
// @Success      200  {object}  models.IssueSummary
// @Failure      401  {object}  map[string]string
// @Router       /api/issues/summary [get]
// @Security     ApiKeyAuth
func (h *Handler) issueSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Issues.Summary())
}

// @Summary      Acknowledge an issue
// @Description  A service_date (YYYY-MM-DD) schedules the visit.
// @Tags         homeowner-api
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true   "Issue id"
// @Param        body  body      service.AcknowledgeParams  false  "Note and service date"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /api/issues/{id}/acknowledge [put]
// @Security     ApiKeyAuth
func (h *Handler) acknowledgeIssue(c *gin.Context) {
	var req service.AcknowledgeParams
	if c.Request.ContentLength != 0 {
		if !h.bindJSONOrBadRequest(c, &req) {
			return
		}
	}
	issue := h.services.Issues.Acknowledge(c.Request.Context(), c.Param("id"), req.Note, req.ServiceDate)
	if issue == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errIssueNotActive})
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// @Summary      Resolve an issue
// @Tags         homeowner-api
// @Produce      json
// @Param        id   path      string  true  "Issue id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/issues/{id}/resolve [put]
// @Security     ApiKeyAuth
func (h *Handler) resolveIssue(c *gin.Context) {
	issue := h.services.Issues.Resolve(c.Request.Context(), c.Param("id"))
	if issue == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errIssueNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// @Summary      Report a new issue
// @Tags         homeowner-admin
// @Accept       json
// @Produce      json
// @Param        body  body      CreateIssueRequest  true  "Issue"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /admin/api/homeowner/issues [post]
// @Security     BearerAuth
func (h *Handler) createIssue(c *gin.Context) {
	var req CreateIssueRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	issue, err := h.services.Issues.Create(c.Request.Context(), models.Severity(req.Severity), req.Description)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSeverity) || errors.Is(err, service.ErrInvalidDescription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to create issue", "issue_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

// @Summary      Issues shown on the homeowner dashboard
// @Tags         homeowner-admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "issues, total"
// @Router       /admin/api/homeowner/issues/visible [get]
// @Security     BearerAuth
func (h *Handler) visibleIssues(c *gin.Context) {
	c.JSON(http.StatusOK, issueList(h.services.Issues.Visible()))
}

// @Summary      Dismiss a resolved issue
// @Tags         homeowner-admin
// @Produce      json
// @Param        id   path      string  true  "Issue id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /admin/api/homeowner/issues/{id}/dismiss [put]
// @Security     BearerAuth
func (h *Handler) dismissIssue(c *gin.Context) {
	issue := h.services.Issues.Dismiss(c.Request.Context(), c.Param("id"))
	if issue == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errIssueNotResolved})
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// @Summary      Calendar entry for a scheduled service visit
// @Tags         homeowner-admin
// @Produce      text/calendar
// @Param        id   path      string  true  "Issue id"
// @Success      200  {string}  string
// @Failure      404  {object}  map[string]string
// @Router       /admin/api/homeowner/issues/{id}/calendar.ics [get]
// @Security     BearerAuth
func (h *Handler) issueCalendar(c *gin.Context) {
	id := c.Param("id")
	if h.services.Issues.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errIssueNotFound})
		return
	}
	ics, ok := h.services.Issues.CalendarICS(id, h.services.Instance.CalendarInfo())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoServiceDate})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="irrigation-service.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", ics)
}
