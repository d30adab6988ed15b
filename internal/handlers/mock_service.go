package handlers

import (
	"context"
	"net/http"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockIssues struct {
	issues    []models.Issue
	createErr error
	summary   models.IssueSummary
	ics       []byte

	lastSeverity    models.Severity
	lastDescription string
	lastNote        *string
	lastServiceDate *string
}

func (m *mockIssues) find(id string) *models.Issue {
	for i := range m.issues {
		if m.issues[i].ID == id {
			cp := m.issues[i]
			return &cp
		}
	}
	return nil
}

func (m *mockIssues) Create(_ context.Context, severity models.Severity, description string) (models.Issue, error) {
	m.lastSeverity = severity
	m.lastDescription = description
	if m.createErr != nil {
		return models.Issue{}, m.createErr
	}
	issue := models.Issue{ID: "new", Severity: severity, Description: description, Status: models.IssueOpen}
	m.issues = append(m.issues, issue)
	return issue, nil
}
func (m *mockIssues) Acknowledge(_ context.Context, id string, note, serviceDate *string) *models.Issue {
	m.lastNote = note
	m.lastServiceDate = serviceDate
	issue := m.find(id)
	if issue == nil || !issue.Active() {
		return nil
	}
	issue.Status = models.IssueAcknowledged
	if serviceDate != nil {
		issue.Status = models.IssueScheduled
		issue.ServiceDate = serviceDate
	}
	return issue
}
func (m *mockIssues) Resolve(_ context.Context, id string) *models.Issue {
	issue := m.find(id)
	if issue != nil {
		issue.Status = models.IssueResolved
	}
	return issue
}
func (m *mockIssues) Dismiss(_ context.Context, id string) *models.Issue {
	issue := m.find(id)
	if issue == nil || issue.Active() {
		return nil
	}
	issue.HomeownerDismissed = true
	return issue
}
func (m *mockIssues) All() []models.Issue     { return m.issues }
func (m *mockIssues) Active() []models.Issue  { return m.issues }
func (m *mockIssues) Visible() []models.Issue { return m.issues }
func (m *mockIssues) Get(id string) *models.Issue {
	return m.find(id)
}
func (m *mockIssues) Summary() models.IssueSummary { return m.summary }
func (m *mockIssues) CalendarICS(id string, _ service.CalendarInfo) ([]byte, bool) {
	issue := m.find(id)
	if issue == nil || issue.ServiceDate == nil {
		return nil, false
	}
	return m.ics, true
}

type mockHomeFeed struct {
	prefs     models.HomeownerPreferences
	events    []models.HomeownerEvent
	unread    int
	patch     map[string]any
	recorded  []models.HomeownerEvent
	disabled  bool
	lastLimit int
}

func (m *mockHomeFeed) Preferences() models.HomeownerPreferences { return m.prefs }
func (m *mockHomeFeed) UpdatePreferences(patch map[string]any) models.HomeownerPreferences {
	m.patch = patch
	return m.prefs
}
func (m *mockHomeFeed) RecordEvent(category models.HomeownerCategory, title, message string) *models.HomeownerEvent {
	if m.disabled {
		return nil
	}
	ev := models.HomeownerEvent{EventBase: models.EventBase{ID: "ev", Title: title, Message: message}, Type: category}
	m.recorded = append(m.recorded, ev)
	return &ev
}
func (m *mockHomeFeed) Events(limit int) []models.HomeownerEvent {
	m.lastLimit = limit
	return m.events
}
func (m *mockHomeFeed) UnreadCount() int { return m.unread }
func (m *mockHomeFeed) MarkRead(id string) bool {
	for _, e := range m.events {
		if e.ID == id {
			return true
		}
	}
	return false
}
func (m *mockHomeFeed) MarkAllRead() int { return m.unread }
func (m *mockHomeFeed) ClearAll() int    { return len(m.events) }

type mockMgmtFeed struct {
	prefs  models.ManagementPreferences
	events []models.ManagementEvent
	unread int
}

func (m *mockMgmtFeed) Preferences() models.ManagementPreferences { return m.prefs }
func (m *mockMgmtFeed) UpdatePreferences(map[string]any) models.ManagementPreferences {
	return m.prefs
}
func (m *mockMgmtFeed) RecordEvent(service.ManagementEventParams) *models.ManagementEvent {
	return nil
}
func (m *mockMgmtFeed) Events(int) []models.ManagementEvent { return m.events }
func (m *mockMgmtFeed) UnreadCount() int                    { return m.unread }
func (m *mockMgmtFeed) MarkRead(string) bool                { return false }
func (m *mockMgmtFeed) MarkAllRead() int                    { return m.unread }
func (m *mockMgmtFeed) ClearAll() int                       { return len(m.events) }

type mockAccess struct {
	state models.AccessState
}

func (m *mockAccess) State() models.AccessState { return m.state }
func (m *mockAccess) SetRevoked(_ context.Context, revoked bool) models.AccessState {
	m.state.Revoked = revoked
	return m.state
}

type mockInstance struct {
	status map[string]any
	key    models.ConnectionKey
	token  string
	keyErr error
}

func (m *mockInstance) ConnectionKey() (models.ConnectionKey, string, error) {
	return m.key, m.token, m.keyErr
}
func (m *mockInstance) SystemStatus() map[string]any        { return m.status }
func (m *mockInstance) CalendarInfo() service.CalendarInfo { return service.CalendarInfo{} }

type mockCustomers struct {
	list   []models.Customer
	addErr error

	lastToken string
}

func (m *mockCustomers) Add(token, name, notes string) (models.Customer, error) {
	m.lastToken = token
	if m.addErr != nil {
		return models.Customer{}, m.addErr
	}
	c := models.Customer{ID: "c-new", Name: name, Notes: notes, APIKey: "secret", HAToken: "hub-secret"}
	m.list = append(m.list, c)
	return c, nil
}
func (m *mockCustomers) Remove(id string) bool { return m.Get(id) != nil }
func (m *mockCustomers) Get(id string) *models.Customer {
	for i := range m.list {
		if m.list[i].ID == id {
			cp := m.list[i]
			return &cp
		}
	}
	return nil
}
func (m *mockCustomers) Update(id string, name, notes *string) *models.Customer {
	c := m.Get(id)
	if c != nil && name != nil {
		c.Name = *name
	}
	if c != nil && notes != nil {
		c.Notes = *notes
	}
	return c
}
func (m *mockCustomers) UpdateStatus(id string, res models.HealthResult) *models.Customer {
	c := m.Get(id)
	if c != nil {
		c.LastStatus = &res
	}
	return c
}
func (m *mockCustomers) SetKnownIssues(id string, _ []string) bool { return m.Get(id) != nil }
func (m *mockCustomers) List() []models.Customer                   { return m.list }

// mockRemote answers every relay with resp for known customer ids.
type mockRemote struct {
	known map[string]bool
	resp  proxy.Response

	lastReq proxy.Request
	lastAck service.AcknowledgeParams
}

func (m *mockRemote) Relay(_ context.Context, customerID string, req proxy.Request) (proxy.Response, bool) {
	m.lastReq = req
	return m.resp, m.known[customerID]
}
func (m *mockRemote) CheckCustomer(_ context.Context, customerID string) (*models.Customer, bool) {
	if !m.known[customerID] {
		return nil, false
	}
	return &models.Customer{ID: customerID, LastStatus: &models.HealthResult{Reachable: true, Authenticated: true}}, true
}
func (m *mockRemote) AcknowledgeIssue(_ context.Context, customerID, issueID string, p service.AcknowledgeParams) (proxy.Response, bool) {
	m.lastReq = proxy.Request{Method: http.MethodPut, Path: "/api/issues/" + issueID + "/acknowledge"}
	m.lastAck = p
	return m.resp, m.known[customerID]
}
func (m *mockRemote) ResolveIssue(_ context.Context, customerID, issueID string) (proxy.Response, bool) {
	m.lastReq = proxy.Request{Method: http.MethodPut, Path: "/api/issues/" + issueID + "/resolve"}
	return m.resp, m.known[customerID]
}

type mockChangeLog struct {
	entries    []models.ChangeLogEntry
	err        error
	lastFilter service.ChangeLogFilter
}

func (m *mockChangeLog) Record(context.Context, string, string, string, any) {}
func (m *mockChangeLog) List(_ context.Context, f service.ChangeLogFilter) ([]models.ChangeLogEntry, error) {
	m.lastFilter = f
	return m.entries, m.err
}

// ---- Shared Test Helpers ----

const testAPIKey = "home-key"

func newTestRouter(s *service.Service) *gin.Engine {
	return newModeRouter(s, "")
}

func newModeRouter(s *service.Service, mode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, Options{Mode: mode, APIKey: testAPIKey}, nil)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func keyHeader(key string) http.Header {
	h := http.Header{}
	h.Set("X-API-Key", key)
	return h
}
