package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
		"mode":   h.opts.Mode,
	})
}

// @Summary      Homeowner health (no credential)
// @Description  Management probes this first. revoked=true means the homeowner cut management off.
// @Tags         homeowner-api
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/system/health [get]
func (h *Handler) systemHealth(c *gin.Context) {
	revoked := false
	if h.services.Access != nil {
		revoked = h.services.Access.State().Revoked
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"revoked": revoked,
	})
}

// @Summary      Homeowner system status
// @Tags         homeowner-api
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /api/system/status [get]
// @Security     ApiKeyAuth
func (h *Handler) systemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Instance.SystemStatus())
}

// @Summary      Connection key for management
// @Tags         homeowner-admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /admin/api/homeowner/connection-key [get]
// @Security     BearerAuth
func (h *Handler) getConnectionKey(c *gin.Context) {
	key, token, err := h.services.Instance.ConnectionKey()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errConnectionKey, "connection_key_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connection_key": token,
		"url":            key.URL,
		"mode":           key.Mode,
		"label":          key.Label,
	})
}

type accessRequest struct {
	Revoked *bool `json:"revoked" binding:"required"`
}

// @Summary      Management access state
// @Tags         homeowner-admin
// @Produce      json
// @Success      200  {object}  models.AccessState
// @Router       /admin/api/homeowner/access [get]
// @Security     BearerAuth
func (h *Handler) getAccess(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Access.State())
}

// @Summary      Revoke or restore management access
// @Tags         homeowner-admin
// @Accept       json
// @Produce      json
// @Param        body  body      accessRequest  true  "{\"revoked\": true}"
// @Success      200   {object}  models.AccessState
// @Failure      400   {object}  map[string]string
// @Router       /admin/api/homeowner/access [put]
// @Security     BearerAuth
func (h *Handler) setAccess(c *gin.Context) {
	var req accessRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	st := h.services.Access.SetRevoked(c.Request.Context(), *req.Revoked)
	h.log.Infow("management_access_changed", "revoked", st.Revoked)
	c.JSON(http.StatusOK, st)
}
