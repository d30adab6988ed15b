package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/repository"

	"github.com/google/uuid"
)

// Validation errors for issue reports.
var (
	ErrInvalidSeverity    = errors.New("invalid severity: must be one of clarification, annoyance, severe")
	ErrInvalidDescription = errors.New("invalid description: must be 1-1000 characters")
)

const (
	maxDescriptionLen   = 1000
	maxNoteLen          = 500
	summaryDescLen      = 200
	changeLogPreviewLen = 100
	issuesCategory      = "Issues"
)

// IssueService owns issues.json. Every transition writes a change log line;
// acknowledgements that set or move a service date also land in the
// homeowner feed.
type IssueService struct {
	store   repository.Store[models.IssueDocument]
	feed    HomeownerNotifications
	changes ChangeLog
	now     func() time.Time
}

func NewIssueService(store repository.Store[models.IssueDocument], feed HomeownerNotifications, changes ChangeLog) *IssueService {
	return &IssueService{store: store, feed: feed, changes: changes, now: time.Now}
}

// Create records a homeowner report in state open.
func (s *IssueService) Create(ctx context.Context, severity models.Severity, description string) (models.Issue, error) {
	if !severity.Valid() {
		return models.Issue{}, ErrInvalidSeverity
	}
	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(description); n < 1 || n > maxDescriptionLen {
		return models.Issue{}, ErrInvalidDescription
	}

	issue := models.Issue{
		ID:          uuid.NewString(),
		Severity:    severity,
		Description: description,
		Status:      models.IssueOpen,
		CreatedAt:   s.now().UTC(),
	}
	s.store.Update(func(doc *models.IssueDocument) bool {
		doc.Issues = append(doc.Issues, issue)
		return true
	})

	s.changes.Record(ctx, models.ActorHomeowner, issuesCategory,
		fmt.Sprintf("Reported %s: %s", severity.Label(), truncateRunes(description, changeLogPreviewLen)),
		map[string]any{"issue_id": issue.ID})
	return issue, nil
}

// Acknowledge moves an unresolved issue to scheduled (when serviceDate is
// given) or acknowledged. It returns nil when the issue is missing or
// already resolved.
func (s *IssueService) Acknowledge(ctx context.Context, id string, note, serviceDate *string) *models.Issue {
	if serviceDate != nil && strings.TrimSpace(*serviceDate) == "" {
		serviceDate = nil
	}

	var (
		out        *models.Issue
		oldDate    *string
		dateMoved  bool
		dateWasSet bool
	)
	s.update(id, func(issue *models.Issue) bool {
		if issue.Status == models.IssueResolved {
			return false
		}
		now := s.now().UTC()
		issue.AcknowledgedAt = &now
		if serviceDate != nil {
			issue.Status = models.IssueScheduled
		} else {
			issue.Status = models.IssueAcknowledged
		}

		if note != nil {
			if n := truncateRunes(strings.TrimSpace(*note), maxNoteLen); n != "" {
				issue.ManagementNote = &n
			} else {
				issue.ManagementNote = nil
			}
		}

		if serviceDate != nil {
			date := strings.TrimSpace(*serviceDate)
			oldDate = issue.ServiceDate
			switch {
			case oldDate == nil:
				dateWasSet = true
			case *oldDate != date:
				dateMoved = true
				issue.ServiceDateUpdatedAt = &now
			}
			issue.ServiceDate = &date
		}

		cp := *issue
		out = &cp
		return true
	})
	if out == nil {
		return nil
	}

	desc := fmt.Sprintf("Acknowledged issue (%s)", out.Severity)
	if out.Status == models.IssueScheduled {
		desc += ", service scheduled for " + *out.ServiceDate
	}
	if out.ManagementNote != nil && note != nil {
		desc += ": " + truncateRunes(*out.ManagementNote, changeLogPreviewLen)
	}
	s.changes.Record(ctx, models.ActorManagement, issuesCategory, desc, map[string]any{"issue_id": out.ID})

	switch {
	case dateWasSet:
		s.feed.RecordEvent(models.CategoryServiceAppointments, "Service Appointment Scheduled",
			fmt.Sprintf("A service visit has been scheduled for %s regarding your %s report.",
				*out.ServiceDate, strings.ToLower(out.Severity.Label())))
	case dateMoved:
		s.feed.RecordEvent(models.CategoryServiceAppointments, "Service Appointment Updated",
			fmt.Sprintf("Your service visit has been moved from %s to %s.", *oldDate, *out.ServiceDate))
	}
	return out
}

// Resolve closes an issue. Repeated calls re-stamp resolved_at.
func (s *IssueService) Resolve(ctx context.Context, id string) *models.Issue {
	var out *models.Issue
	s.update(id, func(issue *models.Issue) bool {
		now := s.now().UTC()
		issue.Status = models.IssueResolved
		issue.ResolvedAt = &now
		cp := *issue
		out = &cp
		return true
	})
	if out == nil {
		return nil
	}
	s.changes.Record(ctx, models.ActorManagement, issuesCategory,
		fmt.Sprintf("Resolved issue (%s): %s", out.Severity, truncateRunes(out.Description, changeLogPreviewLen)),
		map[string]any{"issue_id": out.ID})
	return out
}

// Dismiss hides a resolved issue from the homeowner dashboard. It is a no-op
// returning nil for any issue that is not resolved.
func (s *IssueService) Dismiss(ctx context.Context, id string) *models.Issue {
	var out *models.Issue
	s.update(id, func(issue *models.Issue) bool {
		if issue.Status != models.IssueResolved {
			return false
		}
		issue.HomeownerDismissed = true
		cp := *issue
		out = &cp
		return true
	})
	if out == nil {
		return nil
	}
	s.changes.Record(ctx, models.ActorHomeowner, issuesCategory,
		fmt.Sprintf("Dismissed resolved issue (%s): %s", out.Severity, truncateRunes(out.Description, changeLogPreviewLen)),
		map[string]any{"issue_id": out.ID})
	return out
}

func (s *IssueService) Get(id string) *models.Issue {
	for _, issue := range s.store.Load().Issues {
		if issue.ID == id {
			return &issue
		}
	}
	return nil
}

// All returns every issue, newest first.
func (s *IssueService) All() []models.Issue {
	return s.filter(func(models.Issue) bool { return true })
}

// Active returns unresolved issues, newest first.
func (s *IssueService) Active() []models.Issue {
	return s.filter(models.Issue.Active)
}

// Visible is what the homeowner dashboard shows: active issues plus resolved
// ones not yet dismissed.
func (s *IssueService) Visible() []models.Issue {
	return s.filter(models.Issue.VisibleToHomeowner)
}

// Summary is the cheap view management polls.
func (s *IssueService) Summary() models.IssueSummary {
	active := s.Active()
	sum := models.IssueSummary{
		ActiveCount: len(active),
		Issues:      make([]models.IssueSummaryItem, 0, len(active)),
	}
	for _, issue := range active {
		if sum.MaxSeverity == nil || issue.Severity.Rank() > sum.MaxSeverity.Rank() {
			sev := issue.Severity
			sum.MaxSeverity = &sev
		}
		sum.Issues = append(sum.Issues, models.IssueSummaryItem{
			ID:          issue.ID,
			Severity:    issue.Severity,
			Description: truncateRunes(issue.Description, summaryDescLen),
			Status:      issue.Status,
			CreatedAt:   issue.CreatedAt,
		})
	}
	return sum
}

// CalendarICS renders the scheduled visit for id. It reports false when the
// issue is missing or has no service date.
func (s *IssueService) CalendarICS(id string, info CalendarInfo) ([]byte, bool) {
	issue := s.Get(id)
	if issue == nil || issue.ServiceDate == nil {
		return nil, false
	}
	ics, err := renderServiceICS(*issue, info, s.now().UTC())
	if err != nil {
		return nil, false
	}
	return ics, true
}

// filter returns the matching issues newest first; ties keep the later
// report first.
func (s *IssueService) filter(keep func(models.Issue) bool) []models.Issue {
	all := s.store.Load().Issues
	out := make([]models.Issue, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if keep(all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// update applies fn to the issue with id; fn reports whether it changed it.
func (s *IssueService) update(id string, fn func(issue *models.Issue) bool) {
	s.store.Update(func(doc *models.IssueDocument) bool {
		for i := range doc.Issues {
			if doc.Issues[i].ID == id {
				return fn(&doc.Issues[i])
			}
		}
		return false
	})
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
