package service

import "time"

// AcknowledgeParams is management's acknowledgement of an issue. Nil fields
// are left untouched on the homeowner side.
type AcknowledgeParams struct {
	Note        *string `json:"note,omitempty"`
	ServiceDate *string `json:"service_date,omitempty"`
}

// ManagementEventParams describes one management feed event.
type ManagementEventParams struct {
	Type         string
	CustomerID   string
	CustomerName string
	Severity     string
	Title        string
	Message      string
}

// ChangeLogFilter supports history filtering by time range, actor and category.
type ChangeLogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Actor    string
	Category string
	Limit    int
}

// CalendarInfo labels the calendar entry for a scheduled service visit.
type CalendarInfo struct {
	Label    string
	Location string
}
