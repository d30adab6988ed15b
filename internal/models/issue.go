package models

import "time"

// Severity is ordered clarification < annoyance < severe.
type Severity string

const (
	SeverityClarification Severity = "clarification"
	SeverityAnnoyance     Severity = "annoyance"
	SeveritySevere        Severity = "severe"
)

// Severities lists the valid values, lowest first.
var Severities = []Severity{SeverityClarification, SeverityAnnoyance, SeveritySevere}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Rank orders severities for aggregation; unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityClarification:
		return 1
	case SeverityAnnoyance:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// Label is the human wording used in change log lines and notifications.
func (s Severity) Label() string {
	switch s {
	case SeverityClarification:
		return "Clarification"
	case SeverityAnnoyance:
		return "Annoyance"
	case SeveritySevere:
		return "Severe Issue"
	default:
		return string(s)
	}
}

// IssueStatus moves open -> acknowledged|scheduled -> resolved.
type IssueStatus string

const (
	IssueOpen         IssueStatus = "open"
	IssueAcknowledged IssueStatus = "acknowledged"
	IssueScheduled    IssueStatus = "scheduled"
	IssueResolved     IssueStatus = "resolved"
)

// Issue is a homeowner-reported problem.
type Issue struct {
	ID                   string      `json:"id"`
	Severity             Severity    `json:"severity"`
	Description          string      `json:"description"`
	Status               IssueStatus `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
	AcknowledgedAt       *time.Time  `json:"acknowledged_at"`
	ManagementNote       *string     `json:"management_note"`
	ServiceDate          *string     `json:"service_date"` // YYYY-MM-DD
	ServiceDateUpdatedAt *time.Time  `json:"service_date_updated_at"`
	ResolvedAt           *time.Time  `json:"resolved_at"`
	HomeownerDismissed   bool        `json:"homeowner_dismissed"`
}

// Active is true until the issue is resolved.
func (i Issue) Active() bool {
	return i.Status != IssueResolved
}

// VisibleToHomeowner keeps resolved issues on the dashboard until dismissed.
func (i Issue) VisibleToHomeowner() bool {
	return i.Active() || !i.HomeownerDismissed
}

// IssueSummaryItem is the trimmed issue shape returned to pollers.
type IssueSummaryItem struct {
	ID          string      `json:"id"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Status      IssueStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IssueSummary aggregates the active issues.
type IssueSummary struct {
	ActiveCount int                `json:"active_count"`
	MaxSeverity *Severity          `json:"max_severity"`
	Issues      []IssueSummaryItem `json:"issues"`
}

const IssueDocumentVersion = 1

// IssueDocument is the persisted issues.json document.
type IssueDocument struct {
	Version int     `json:"version"`
	Issues  []Issue `json:"issues"`
}

func DefaultIssueDocument() IssueDocument {
	return IssueDocument{Version: IssueDocumentVersion, Issues: []Issue{}}
}

// Migrate upgrades documents written before versioning.
func (d *IssueDocument) Migrate() bool {
	changed := false
	if d.Issues == nil {
		d.Issues = []Issue{}
		changed = true
	}
	if d.Version < IssueDocumentVersion {
		d.Version = IssueDocumentVersion
		changed = true
	}
	return changed
}
