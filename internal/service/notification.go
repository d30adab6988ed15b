package service

import (
	"strings"
	"time"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/repository"

	"github.com/google/uuid"
)

const (
	maxTitleLen        = 200
	maxMessageLen      = 1000
	maxCustomerNameLen = 100
)

// feedEvent is satisfied by pointers to both event types through the
// embedded models.EventBase.
type feedEvent[E any] interface {
	*E
	Base() *models.EventBase
}

func newEventBase(title, message string, now time.Time) models.EventBase {
	return models.EventBase{
		ID:        uuid.NewString(),
		Title:     truncateRunes(strings.TrimSpace(title), maxTitleLen),
		Message:   truncateRunes(strings.TrimSpace(message), maxMessageLen),
		CreatedAt: now.UTC(),
	}
}

// prependCapped inserts e at the head and drops the oldest past limit.
func prependCapped[E any](events []E, e E, limit int) []E {
	out := make([]E, 0, min(len(events)+1, limit))
	out = append(out, e)
	for _, old := range events {
		if len(out) == limit {
			break
		}
		out = append(out, old)
	}
	return out
}

func headEvents[E any](events []E, limit int) []E {
	if limit <= 0 || limit > len(events) {
		limit = len(events)
	}
	out := make([]E, limit)
	copy(out, events[:limit])
	return out
}

func countUnread[E any, P feedEvent[E]](events []E) int {
	n := 0
	for i := range events {
		if !P(&events[i]).Base().Read {
			n++
		}
	}
	return n
}

func markRead[E any, P feedEvent[E]](events []E, id string) bool {
	for i := range events {
		b := P(&events[i]).Base()
		if b.ID == id {
			b.Read = true
			return true
		}
	}
	return false
}

// markAllRead reports how many events flipped to read.
func markAllRead[E any, P feedEvent[E]](events []E) int {
	n := 0
	for i := range events {
		b := P(&events[i]).Base()
		if !b.Read {
			b.Read = true
			n++
		}
	}
	return n
}

// boolPatch keeps only boolean values; anything else is dropped silently.
func boolPatch(patch map[string]any, set func(key string, v bool) bool) bool {
	changed := false
	for k, raw := range patch {
		v, ok := raw.(bool)
		if !ok {
			continue
		}
		if set(k, v) {
			changed = true
		}
	}
	return changed
}

// ---- homeowner feed ----

type HomeownerNotificationService struct {
	store repository.Store[models.HomeownerFeed]
	now   func() time.Time
}

func NewHomeownerNotificationService(store repository.Store[models.HomeownerFeed]) *HomeownerNotificationService {
	return &HomeownerNotificationService{store: store, now: time.Now}
}

func (s *HomeownerNotificationService) Preferences() models.HomeownerPreferences {
	return s.store.Load().Preferences
}

// UpdatePreferences merges known boolean keys ("enabled" or a category).
func (s *HomeownerNotificationService) UpdatePreferences(patch map[string]any) models.HomeownerPreferences {
	return s.store.Update(func(f *models.HomeownerFeed) bool {
		return boolPatch(patch, f.Preferences.Set)
	}).Preferences
}

// RecordEvent is a silent no-op returning nil when category is unknown or
// gated off by preferences.
func (s *HomeownerNotificationService) RecordEvent(category models.HomeownerCategory, title, message string) *models.HomeownerEvent {
	var out *models.HomeownerEvent
	s.store.Update(func(f *models.HomeownerFeed) bool {
		if !category.Valid() || !f.Preferences.Allows(category) {
			return false
		}
		e := models.HomeownerEvent{EventBase: newEventBase(title, message, s.now()), Type: category}
		f.Events = prependCapped(f.Events, e, models.HomeownerFeedCap)
		out = &e
		return true
	})
	return out
}

func (s *HomeownerNotificationService) Events(limit int) []models.HomeownerEvent {
	return headEvents(s.store.Load().Events, limit)
}

func (s *HomeownerNotificationService) UnreadCount() int {
	return countUnread(s.store.Load().Events)
}

func (s *HomeownerNotificationService) MarkRead(id string) bool {
	found := false
	s.store.Update(func(f *models.HomeownerFeed) bool {
		found = markRead(f.Events, id)
		return found
	})
	return found
}

func (s *HomeownerNotificationService) MarkAllRead() int {
	n := 0
	s.store.Update(func(f *models.HomeownerFeed) bool {
		n = markAllRead(f.Events)
		return n > 0
	})
	return n
}

func (s *HomeownerNotificationService) ClearAll() int {
	n := 0
	s.store.Update(func(f *models.HomeownerFeed) bool {
		n = len(f.Events)
		f.Events = []models.HomeownerEvent{}
		return n > 0
	})
	return n
}

// ---- management feed ----

type ManagementNotificationService struct {
	store repository.Store[models.ManagementFeed]
	now   func() time.Time
}

func NewManagementNotificationService(store repository.Store[models.ManagementFeed]) *ManagementNotificationService {
	return &ManagementNotificationService{store: store, now: time.Now}
}

func (s *ManagementNotificationService) Preferences() models.ManagementPreferences {
	return s.store.Load().Preferences
}

// UpdatePreferences merges known notify_<type> boolean keys.
func (s *ManagementNotificationService) UpdatePreferences(patch map[string]any) models.ManagementPreferences {
	return s.store.Update(func(f *models.ManagementFeed) bool {
		return boolPatch(patch, f.Preferences.Set)
	}).Preferences
}

func (s *ManagementNotificationService) RecordEvent(p ManagementEventParams) *models.ManagementEvent {
	typ := models.ManagementEventType(p.Type)
	var out *models.ManagementEvent
	s.store.Update(func(f *models.ManagementFeed) bool {
		if !typ.Valid() || !f.Preferences.Allows(typ) {
			return false
		}
		e := models.ManagementEvent{
			EventBase:    newEventBase(p.Title, p.Message, s.now()),
			Type:         typ,
			CustomerID:   p.CustomerID,
			CustomerName: truncateRunes(p.CustomerName, maxCustomerNameLen),
			Severity:     p.Severity,
		}
		f.Events = prependCapped(f.Events, e, models.ManagementFeedCap)
		out = &e
		return true
	})
	return out
}

func (s *ManagementNotificationService) Events(limit int) []models.ManagementEvent {
	return headEvents(s.store.Load().Events, limit)
}

func (s *ManagementNotificationService) UnreadCount() int {
	return countUnread(s.store.Load().Events)
}

func (s *ManagementNotificationService) MarkRead(id string) bool {
	found := false
	s.store.Update(func(f *models.ManagementFeed) bool {
		found = markRead(f.Events, id)
		return found
	})
	return found
}

func (s *ManagementNotificationService) MarkAllRead() int {
	n := 0
	s.store.Update(func(f *models.ManagementFeed) bool {
		n = markAllRead(f.Events)
		return n > 0
	})
	return n
}

func (s *ManagementNotificationService) ClearAll() int {
	n := 0
	s.store.Update(func(f *models.ManagementFeed) bool {
		n = len(f.Events)
		f.Events = []models.ManagementEvent{}
		return n > 0
	})
	return n
}
