package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/repository"
)

func newIssueStore(t *testing.T) *repository.Document[models.IssueDocument] {
	t.Helper()
	return repository.NewDocument(filepath.Join(t.TempDir(), repository.IssuesFile),
		models.DefaultIssueDocument, (*models.IssueDocument).Migrate, nil)
}

func newCustomerStore(t *testing.T) *repository.Document[models.CustomerRegistry] {
	t.Helper()
	return repository.NewDocument(filepath.Join(t.TempDir(), repository.CustomersFile),
		models.DefaultCustomerRegistry, (*models.CustomerRegistry).Migrate, nil)
}

func newHomeownerFeedStore(t *testing.T) *repository.Document[models.HomeownerFeed] {
	t.Helper()
	return repository.NewDocument(filepath.Join(t.TempDir(), repository.HomeownerNotificationsFile),
		models.DefaultHomeownerFeed, (*models.HomeownerFeed).Migrate, nil)
}

func newManagementFeedStore(t *testing.T) *repository.Document[models.ManagementFeed] {
	t.Helper()
	return repository.NewDocument(filepath.Join(t.TempDir(), repository.ManagementNotificationsFile),
		models.DefaultManagementFeed, (*models.ManagementFeed).Migrate, nil)
}

// fakeChangeLog captures recorded lines.
type fakeChangeLog struct {
	mu      sync.Mutex
	entries []models.ChangeLogEntry
}

func (f *fakeChangeLog) Record(_ context.Context, actor, category, description string, details any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, models.ChangeLogEntry{
		Actor: actor, Category: category, Description: description, Details: details,
	})
}

func (f *fakeChangeLog) List(context.Context, ChangeLogFilter) ([]models.ChangeLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ChangeLogEntry(nil), f.entries...), nil
}

func (f *fakeChangeLog) last() models.ChangeLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[len(f.entries)-1]
}

// fakeRelayer answers by request path and remembers every call.
type fakeRelayer struct {
	mu      sync.Mutex
	respond func(conn models.ConnectionKey, req proxy.Request) proxy.Response
	calls   []proxy.Request
}

func (f *fakeRelayer) Relay(_ context.Context, conn models.ConnectionKey, req proxy.Request) proxy.Response {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(conn, req)
}

func (f *fakeRelayer) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func jsonResp(status int, body any) proxy.Response {
	return proxy.Response{StatusCode: status, Body: body}
}

func strPtr(s string) *string { return &s }
