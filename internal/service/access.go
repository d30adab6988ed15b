package service

import (
	"context"
	"time"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/repository"
)

type AccessService struct {
	store   repository.Store[models.AccessState]
	changes ChangeLog
	now     func() time.Time
}

func NewAccessService(store repository.Store[models.AccessState], changes ChangeLog) *AccessService {
	return &AccessService{store: store, changes: changes, now: time.Now}
}

func (s *AccessService) State() models.AccessState {
	return s.store.Load()
}

// SetRevoked cuts management off (or lets it back in). Health probes report
// the flag so management can tell revocation apart from a stale key.
func (s *AccessService) SetRevoked(ctx context.Context, revoked bool) models.AccessState {
	changed := false
	st := s.store.Update(func(a *models.AccessState) bool {
		if a.Revoked == revoked {
			return false
		}
		a.Revoked = revoked
		if revoked {
			now := s.now().UTC()
			a.RevokedAt = &now
		} else {
			a.RevokedAt = nil
		}
		changed = true
		return true
	})
	if changed {
		desc := "Restored management access"
		if revoked {
			desc = "Revoked management access"
		}
		s.changes.Record(ctx, models.ActorHomeowner, "Access", desc, nil)
	}
	return st
}
