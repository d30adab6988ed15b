package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"flux_irrigation/internal/config"
	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/service"
)

func newManagementFixture() (*mockCustomers, *mockRemote, *service.Service) {
	customers := &mockCustomers{list: []models.Customer{
		{ID: "c1", Name: "Smith", URL: "http://h", APIKey: "secret", HAToken: "hub-secret"},
	}}
	remote := &mockRemote{
		known: map[string]bool{"c1": true},
		resp:  proxy.Response{StatusCode: http.StatusOK, Body: map[string]any{"issues": []any{}, "total": 0}},
	}
	s := &service.Service{
		Authorization:           &mockAuth{parseID: 1},
		Customers:               customers,
		Remote:                  remote,
		ManagementNotifications: &mockMgmtFeed{},
	}
	return customers, remote, s
}

func TestManagement_CustomersCRUD(t *testing.T) {
	customers, _, s := newManagementFixture()
	r := newModeRouter(s, config.ModeManagement)
	bearer := authHeader("valid")

	w := do(r, http.MethodGet, "/admin/api/customers", "", bearer)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Fatalf("credentials leaked: %s", w.Body.String())
	}

	w = do(r, http.MethodPost, "/admin/api/customers", `{"connection_key":"tok","name":"Jones","notes":"gate code 12"}`, bearer)
	if w.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", w.Code, w.Body.String())
	}
	if customers.lastToken != "tok" {
		t.Fatalf("token not forwarded: %q", customers.lastToken)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Fatalf("credentials leaked: %s", w.Body.String())
	}

	w = do(r, http.MethodGet, "/admin/api/customers/c1", "", bearer)
	if w.Code != http.StatusOK || decodeMap(t, w)["name"] != "Smith" {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/admin/api/customers/nope", "", bearer); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = do(r, http.MethodPut, "/admin/api/customers/c1", `{"name":"Smith Family"}`, bearer)
	if w.Code != http.StatusOK || decodeMap(t, w)["name"] != "Smith Family" {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodDelete, "/admin/api/customers/c1", "", bearer); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/admin/api/customers/nope", "", bearer); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestManagement_AddCustomerErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid key", fmt.Errorf("%w: bad base64", connkey.ErrInvalidKey), http.StatusBadRequest},
		{"duplicate", &service.DuplicateCustomerError{ExistingID: "c1", ExistingName: "Smith"}, http.StatusConflict},
		{"other", fmt.Errorf("disk gone"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			customers, _, s := newManagementFixture()
			customers.addErr = tc.err
			r := newModeRouter(s, config.ModeManagement)

			w := do(r, http.MethodPost, "/admin/api/customers", `{"connection_key":"tok"}`, authHeader("valid"))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
			if tc.want == http.StatusConflict && decodeMap(t, w)["existing_id"] != "c1" {
				t.Fatalf("existing_id missing: %s", w.Body.String())
			}
		})
	}
}

func TestManagement_CheckAndIssues(t *testing.T) {
	_, remote, s := newManagementFixture()
	r := newModeRouter(s, config.ModeManagement)
	bearer := authHeader("valid")

	w := do(r, http.MethodPost, "/admin/api/customers/c1/check", "", bearer)
	if w.Code != http.StatusOK {
		t.Fatalf("check status=%d", w.Code)
	}
	status := decodeMap(t, w)["last_status"].(map[string]any)
	if status["authenticated"] != true {
		t.Fatalf("unexpected status %v", status)
	}

	w = do(r, http.MethodGet, "/admin/api/customers/c1/issues", "", bearer)
	if w.Code != http.StatusOK || remote.lastReq.Path != "/api/issues" {
		t.Fatalf("issues: %d path=%q", w.Code, remote.lastReq.Path)
	}

	w = do(r, http.MethodPut, "/admin/api/customers/c1/issues/i9/acknowledge", `{"service_date":"2025-07-04"}`, bearer)
	if w.Code != http.StatusOK {
		t.Fatalf("ack status=%d", w.Code)
	}
	if remote.lastAck.ServiceDate == nil || *remote.lastAck.ServiceDate != "2025-07-04" {
		t.Fatalf("ack params: %+v", remote.lastAck)
	}

	if w := do(r, http.MethodPut, "/admin/api/customers/c1/issues/i9/resolve", "", bearer); w.Code != http.StatusOK {
		t.Fatalf("resolve status=%d", w.Code)
	}
	if w := do(r, http.MethodPost, "/admin/api/customers/nope/check", "", bearer); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestManagement_RelayPassesStatusThrough(t *testing.T) {
	_, remote, s := newManagementFixture()
	r := newModeRouter(s, config.ModeManagement)
	bearer := authHeader("valid")

	w := do(r, http.MethodPut, "/admin/api/customers/c1/remote/api/weather/settings?zone=2", `{"enabled":true}`, bearer)
	if w.Code != http.StatusOK {
		t.Fatalf("relay status=%d", w.Code)
	}
	if remote.lastReq.Method != http.MethodPut || remote.lastReq.Path != "/api/weather/settings" {
		t.Fatalf("relayed %s %s", remote.lastReq.Method, remote.lastReq.Path)
	}
	if remote.lastReq.Query.Get("zone") != "2" {
		t.Fatalf("query lost: %v", remote.lastReq.Query)
	}
	if body, ok := remote.lastReq.Body.(map[string]any); !ok || body["enabled"] != true {
		t.Fatalf("body: %#v", remote.lastReq.Body)
	}

	remote.resp = proxy.Response{StatusCode: http.StatusServiceUnavailable, Body: map[string]any{
		"error": "Cannot connect to homeowner system", "detail": "connection refused",
	}}
	w = do(r, http.MethodGet, "/admin/api/customers/c1/remote/api/system/status", "", bearer)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected relayed 503, got %d", w.Code)
	}

	if w := do(r, http.MethodPost, "/admin/api/customers/c1/remote/api/x", `{bad`, bearer); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestManagement_HomeownerRoutesAbsent(t *testing.T) {
	_, _, s := newManagementFixture()
	r := newModeRouter(s, config.ModeManagement)

	if w := do(r, http.MethodGet, "/api/system/health", ""); w.Code != http.StatusNotFound {
		t.Fatalf("management mode must not serve the homeowner API, got %d", w.Code)
	}
}
