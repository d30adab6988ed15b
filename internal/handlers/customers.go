package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/service"

	"github.com/gin-gonic/gin"
)

// maxRelayBody caps request bodies forwarded to a homeowner.
const maxRelayBody = 1 << 20

// CustomerView is a customer as the dashboard sees it; credentials stay on
// the server.
type CustomerView struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	URL            string                `json:"url"`
	Notes          string                `json:"notes"`
	AddedAt        time.Time             `json:"added_at"`
	Address        string                `json:"address"`
	City           string                `json:"city"`
	State          string                `json:"state"`
	Zip            string                `json:"zip"`
	Phone          string                `json:"phone"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	ZoneCount      *int                  `json:"zone_count"`
	ConnectionMode models.ConnectionMode `json:"connection_mode"`
	LastSeenOnline *time.Time            `json:"last_seen_online"`
	LastStatus     *models.HealthResult  `json:"last_status"`
}

func newCustomerView(c models.Customer) CustomerView {
	return CustomerView{
		ID:             c.ID,
		Name:           c.Name,
		URL:            c.URL,
		Notes:          c.Notes,
		AddedAt:        c.AddedAt,
		Address:        c.Address,
		City:           c.City,
		State:          c.State,
		Zip:            c.Zip,
		Phone:          c.Phone,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		ZoneCount:      c.ZoneCount,
		ConnectionMode: c.ConnectionMode,
		LastSeenOnline: c.LastSeenOnline,
		LastStatus:     c.LastStatus,
	}
}

// AddCustomerRequest onboards a homeowner from the key they shared.
type AddCustomerRequest struct {
	ConnectionKey string `json:"connection_key" binding:"required"`
	Name          string `json:"name,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// UpdateCustomerRequest changes only the fields present.
type UpdateCustomerRequest struct {
	Name  *string `json:"name,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "customers, total"
// @Router       /admin/api/customers [get]
// @Security     BearerAuth
func (h *Handler) listCustomers(c *gin.Context) {
	list := h.services.Customers.List()
	views := make([]CustomerView, 0, len(list))
	for _, cu := range list {
		views = append(views, newCustomerView(cu))
	}
	c.JSON(http.StatusOK, gin.H{"customers": views, "total": len(views)})
}

// @Summary      Add a customer from a connection key
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body      AddCustomerRequest  true  "Connection key"
// @Success      201   {object}  CustomerView
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/api/customers [post]
// @Security     BearerAuth
func (h *Handler) addCustomer(c *gin.Context) {
	var req AddCustomerRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	cu, err := h.services.Customers.Add(req.ConnectionKey, req.Name, req.Notes)
	if err != nil {
		var dup *service.DuplicateCustomerError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "existing_id": dup.ExistingID})
		case errors.Is(err, connkey.ErrInvalidKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, "failed to add customer", "customer_add_failed", err)
		}
		return
	}
	h.log.Infow("customer_added", "customer_id", cu.ID, "name", cu.Name, "mode", cu.ConnectionMode)
	c.JSON(http.StatusCreated, newCustomerView(cu))
}

// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  CustomerView
// @Failure      404  {object}  map[string]string
// @Router       /admin/api/customers/{id} [get]
// @Security     BearerAuth
func (h *Handler) getCustomer(c *gin.Context) {
	cu := h.services.Customers.Get(c.Param("id"))
	if cu == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	c.JSON(http.StatusOK, newCustomerView(*cu))
}

// @Summary      Rename a customer or edit notes
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Customer id"
// @Param        body  body      UpdateCustomerRequest  true  "Fields to change"
// @Success      200   {object}  CustomerView
// @Failure      404   {object}  map[string]string
// @Router       /admin/api/customers/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateCustomer(c *gin.Context) {
	var req UpdateCustomerRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	cu := h.services.Customers.Update(c.Param("id"), req.Name, req.Notes)
	if cu == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	c.JSON(http.StatusOK, newCustomerView(*cu))
}

// @Summary      Remove a customer
// @Tags         customers
// @Produce      json
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  map[string]string
// @Router       /admin/api/customers/{id} [delete]
// @Security     BearerAuth
func (h *Handler) removeCustomer(c *gin.Context) {
	id := c.Param("id")
	if !h.services.Customers.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	h.log.Infow("customer_removed", "customer_id", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Run the reachability check now
// @Tags         customers
// @Produce      json
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  CustomerView
// @Failure      404  {object}  map[string]string
// @Router       /admin/api/customers/{id}/check [post]
// @Security     BearerAuth
func (h *Handler) checkCustomer(c *gin.Context) {
	cu, ok := h.services.Remote.CheckCustomer(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	c.JSON(http.StatusOK, newCustomerView(*cu))
}

// @Summary      A customer's issues
// @Tags         customers
// @Produce      json
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /admin/api/customers/{id}/issues [get]
// @Security     BearerAuth
func (h *Handler) customerIssues(c *gin.Context) {
	resp, ok := h.services.Remote.Relay(c.Request.Context(), c.Param("id"), proxy.Request{
		Method: http.MethodGet,
		Path:   "/api/issues",
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	relayResponse(c, resp)
}

// @Summary      Acknowledge a customer's issue
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id        path      string                     true   "Customer id"
// @Param        issue_id  path      string                     true   "Issue id"
// @Param        body      body      service.AcknowledgeParams  false  "Note and service date"
// @Success      200       {object}  map[string]interface{}
// @Failure      404       {object}  map[string]string
// @Router       /admin/api/customers/{id}/issues/{issue_id}/acknowledge [put]
// @Security     BearerAuth
func (h *Handler) acknowledgeCustomerIssue(c *gin.Context) {
	var req service.AcknowledgeParams
	if c.Request.ContentLength != 0 {
		if !h.bindJSONOrBadRequest(c, &req) {
			return
		}
	}
	resp, ok := h.services.Remote.AcknowledgeIssue(c.Request.Context(), c.Param("id"), c.Param("issue_id"), req)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	relayResponse(c, resp)
}

// @Summary      Resolve a customer's issue
// @Tags         customers
// @Produce      json
// @Param        id        path      string  true  "Customer id"
// @Param        issue_id  path      string  true  "Issue id"
// @Success      200       {object}  map[string]interface{}
// @Failure      404       {object}  map[string]string
// @Router       /admin/api/customers/{id}/issues/{issue_id}/resolve [put]
// @Security     BearerAuth
func (h *Handler) resolveCustomerIssue(c *gin.Context) {
	resp, ok := h.services.Remote.ResolveIssue(c.Request.Context(), c.Param("id"), c.Param("issue_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	relayResponse(c, resp)
}

// @Summary      Relay any request to a customer's system
// @Description  The path after /remote is forwarded with the query string and JSON body.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "Customer id"
// @Param        path  path      string  true  "Homeowner API path"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Failure      504   {object}  map[string]string
// @Router       /admin/api/customers/{id}/remote/{path} [get]
// @Security     BearerAuth
func (h *Handler) relayToCustomer(c *gin.Context) {
	body, err := readRelayBody(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	req := proxy.Request{
		Method: c.Request.Method,
		Path:   "/" + strings.TrimLeft(c.Param("path"), "/"),
		Body:   body,
		Query:  c.Request.URL.Query(),
	}
	resp, ok := h.services.Remote.Relay(c.Request.Context(), c.Param("id"), req)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errCustomerNotFound})
		return
	}
	if !resp.OK() {
		h.log.Infow("customer_relay_failed",
			"customer_id", c.Param("id"),
			"method", req.Method,
			"path", req.Path,
			"status", resp.StatusCode,
			"err", proxy.ErrorString(resp.Body))
	}
	relayResponse(c, resp)
}

// readRelayBody decodes an optional JSON request body. An empty body is nil.
func readRelayBody(r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRelayBody))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
