package models

import "time"

// Actors attributed in the change log.
const (
	ActorHomeowner  = "Homeowner"
	ActorManagement = "Management"
	ActorSystem     = "System"
)

// ChangeLogEntry is a single actor-attributed configuration change.
type ChangeLogEntry struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Actor       string    `json:"actor"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Details     any       `json:"details,omitempty"`
}
