package repository

import (
	"context"
	"database/sql"
	"path/filepath"

	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

type ChangeLogRepo interface {
	Append(ctx context.Context, e models.ChangeLogEntry) error
	List(ctx context.Context, q ChangeLogQuery) ([]models.ChangeLogEntry, error)
	Trim(ctx context.Context, keep int) (int64, error)
}

// File names of the JSON documents under the data directory.
const (
	CustomersFile               = "customers.json"
	IssuesFile                  = "issues.json"
	HomeownerNotificationsFile  = "homeowner_notifications.json"
	ManagementNotificationsFile = "management_notifications.json"
	AccessFile                  = "access.json"
)

type Repository struct {
	Customers      Store[models.CustomerRegistry]
	Issues         Store[models.IssueDocument]
	HomeownerFeed  Store[models.HomeownerFeed]
	ManagementFeed Store[models.ManagementFeed]
	Access         Store[models.AccessState]
	ChangeLog      ChangeLogRepo
	Auth           Authorization
}

// NewRepository wires the SQLite-backed repositories and the JSON documents
// kept under dataDir.
func NewRepository(db *sql.DB, dataDir string, log *logger.Logger) *Repository {
	docLog := log.Named("store")
	return &Repository{
		Customers: NewDocument(filepath.Join(dataDir, CustomersFile),
			models.DefaultCustomerRegistry, (*models.CustomerRegistry).Migrate, docLog),
		Issues: NewDocument(filepath.Join(dataDir, IssuesFile),
			models.DefaultIssueDocument, (*models.IssueDocument).Migrate, docLog),
		HomeownerFeed: NewDocument(filepath.Join(dataDir, HomeownerNotificationsFile),
			models.DefaultHomeownerFeed, (*models.HomeownerFeed).Migrate, docLog),
		ManagementFeed: NewDocument(filepath.Join(dataDir, ManagementNotificationsFile),
			models.DefaultManagementFeed, (*models.ManagementFeed).Migrate, docLog),
		Access: NewDocument(filepath.Join(dataDir, AccessFile),
			models.DefaultAccessState, (*models.AccessState).Migrate, docLog),
		ChangeLog: NewChangeLogSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
