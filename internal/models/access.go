package models

import "time"

// AccessState records whether the homeowner has cut management off.
type AccessState struct {
	Version   int        `json:"version"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func DefaultAccessState() AccessState {
	return AccessState{Version: 1}
}

func (a *AccessState) Migrate() bool {
	if a.Version < 1 {
		a.Version = 1
		return true
	}
	return false
}
