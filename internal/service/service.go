package service

import (
	"context"
	"time"

	"flux_irrigation/internal/config"
	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/repository"
)

// Relayer forwards a request to a homeowner instance. *proxy.Client is the
// production implementation.
type Relayer interface {
	Relay(ctx context.Context, conn models.ConnectionKey, req proxy.Request) proxy.Response
}

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Customers is the management-side registry of homeowner connections.
type Customers interface {
	Add(token, name, notes string) (models.Customer, error)
	Remove(id string) bool
	Get(id string) *models.Customer
	Update(id string, name, notes *string) *models.Customer
	UpdateStatus(id string, res models.HealthResult) *models.Customer
	SetKnownIssues(id string, ids []string) bool
	List() []models.Customer
}

// Reachability runs the two-phase health check against one connection.
type Reachability interface {
	Check(ctx context.Context, conn models.ConnectionKey) models.HealthResult
}

// Issues is the homeowner-side issue lifecycle store.
type Issues interface {
	Create(ctx context.Context, severity models.Severity, description string) (models.Issue, error)
	Acknowledge(ctx context.Context, id string, note, serviceDate *string) *models.Issue
	Resolve(ctx context.Context, id string) *models.Issue
	Dismiss(ctx context.Context, id string) *models.Issue
	All() []models.Issue
	Active() []models.Issue
	Visible() []models.Issue
	Get(id string) *models.Issue
	Summary() models.IssueSummary
	CalendarICS(id string, info CalendarInfo) ([]byte, bool)
}

type HomeownerNotifications interface {
	Preferences() models.HomeownerPreferences
	UpdatePreferences(patch map[string]any) models.HomeownerPreferences
	RecordEvent(category models.HomeownerCategory, title, message string) *models.HomeownerEvent
	Events(limit int) []models.HomeownerEvent
	UnreadCount() int
	MarkRead(id string) bool
	MarkAllRead() int
	ClearAll() int
}

type ManagementNotifications interface {
	Preferences() models.ManagementPreferences
	UpdatePreferences(patch map[string]any) models.ManagementPreferences
	RecordEvent(p ManagementEventParams) *models.ManagementEvent
	Events(limit int) []models.ManagementEvent
	UnreadCount() int
	MarkRead(id string) bool
	MarkAllRead() int
	ClearAll() int
}

// Access tracks whether the homeowner has revoked management access.
type Access interface {
	State() models.AccessState
	SetRevoked(ctx context.Context, revoked bool) models.AccessState
}

// ChangeLog records actor-attributed changes.
type ChangeLog interface {
	Record(ctx context.Context, actor, category, description string, details any)
	List(ctx context.Context, f ChangeLogFilter) ([]models.ChangeLogEntry, error)
}

// Instance describes this homeowner installation to management.
type Instance interface {
	ConnectionKey() (models.ConnectionKey, string, error)
	SystemStatus() map[string]any
	CalendarInfo() CalendarInfo
}

// Remote drives a customer's homeowner instance through the proxy.
type Remote interface {
	Relay(ctx context.Context, customerID string, req proxy.Request) (proxy.Response, bool)
	CheckCustomer(ctx context.Context, customerID string) (*models.Customer, bool)
	AcknowledgeIssue(ctx context.Context, customerID, issueID string, p AcknowledgeParams) (proxy.Response, bool)
	ResolveIssue(ctx context.Context, customerID, issueID string) (proxy.Response, bool)
}

// Poller runs the periodic customer sweep. Stop it by canceling ctx.
type Poller interface {
	Run(ctx context.Context, interval time.Duration)
	PollOnce(ctx context.Context)
}

// Service aggregates everything the HTTP layer and main need. Members that
// do not apply to the configured mode are still built; the router only
// exposes the ones for its role.
type Service struct {
	Authorization           Authorization
	ChangeLog               ChangeLog
	Customers               Customers
	Reachability            Reachability
	Issues                  Issues
	Access                  Access
	Instance                Instance
	Remote                  Remote
	Poller                  Poller
	HomeownerNotifications  HomeownerNotifications
	ManagementNotifications ManagementNotifications
}

// NewService wires repositories and the relay client into the concrete services.
func NewService(repos *repository.Repository, relay Relayer, cfg *config.Config, log *logger.Logger) *Service {
	changes := NewChangeLogService(repos.ChangeLog, log.Named("changelog"))
	homeFeed := NewHomeownerNotificationService(repos.HomeownerFeed)
	mgmtFeed := NewManagementNotificationService(repos.ManagementFeed)
	customers := NewCustomerService(repos.Customers)
	reach := NewReachabilityService(relay)
	issues := NewIssueService(repos.Issues, homeFeed, changes)
	access := NewAccessService(repos.Access, changes)

	return &Service{
		Authorization:           NewAuthService(repos.Auth, cfg.Auth.SigningKey, cfg.Auth.TokenTTL),
		ChangeLog:               changes,
		Customers:               customers,
		Reachability:            reach,
		Issues:                  issues,
		Access:                  access,
		Instance:                NewInstanceService(cfg.Homeowner, issues, access),
		Remote:                  NewRemoteService(customers, reach, relay, mgmtFeed, changes, log.Named("remote")),
		Poller:                  NewPollerService(customers, reach, relay, mgmtFeed, cfg.Management.PollConcurrency, log.Named("poller")),
		HomeownerNotifications:  homeFeed,
		ManagementNotifications: mgmtFeed,
	}
}
