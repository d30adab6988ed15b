package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"flux_irrigation/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultEventsLimit = 50

// feed is the part of a notification store the dashboard drives. Both the
// homeowner and the management stores satisfy it.
type feed[P, E any] interface {
	Preferences() P
	UpdatePreferences(patch map[string]any) P
	Events(limit int) []E
	UnreadCount() int
	MarkRead(id string) bool
	MarkAllRead() int
	ClearAll() int
}

// registerFeedRoutes mounts the preference and event endpoints of one
// feed on g.
func registerFeedRoutes[P, E any](g *gin.RouterGroup, f feed[P, E], h *Handler) {
	g.GET("/preferences", func(c *gin.Context) {
		c.JSON(http.StatusOK, f.Preferences())
	})

	g.PUT("/preferences", func(c *gin.Context) {
		var patch map[string]any
		if !h.bindJSONOrBadRequest(c, &patch) {
			return
		}
		c.JSON(http.StatusOK, f.UpdatePreferences(patch))
	})

	g.GET("/events", func(c *gin.Context) {
		limit := defaultEventsLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		events := f.Events(limit)
		c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events), "unread": f.UnreadCount()})
	})

	g.GET("/unread", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"unread": f.UnreadCount()})
	})

	g.PUT("/events/:id/read", func(c *gin.Context) {
		if !f.MarkRead(c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": errEventNotFound})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	g.PUT("/read-all", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"marked": f.MarkAllRead()})
	})

	g.DELETE("/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"cleared": f.ClearAll()})
	})
}

// @Summary      Report a remote settings change
// @Description  Management posts here after changing settings on this system.
// @Tags         homeowner-api
// @Accept       json
// @Produce      json
// @Param        body  body      service.RemoteChange  true  "Change"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/notifications [post]
// @Security     ApiKeyAuth
func (h *Handler) receiveRemoteChange(c *gin.Context) {
	var req service.RemoteChange
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if !req.Category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": errUnknownCategory})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errRequiredTitleText})
		return
	}

	ev := h.services.HomeownerNotifications.RecordEvent(req.Category, req.Title, req.Message)
	c.JSON(http.StatusOK, gin.H{"recorded": ev != nil, "event": ev})
}
