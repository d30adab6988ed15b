package models

import "time"

// EventBase holds the fields shared by both notification feeds.
type EventBase struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Base exposes the shared fields to generic feed helpers.
func (b *EventBase) Base() *EventBase { return b }

// ---- homeowner side ----

// HomeownerCategory is a kind of management-originated change.
type HomeownerCategory string

const (
	CategoryServiceAppointments HomeownerCategory = "service_appointments"
	CategorySystemChanges       HomeownerCategory = "system_changes"
	CategoryWeatherChanges      HomeownerCategory = "weather_changes"
	CategoryMoistureChanges     HomeownerCategory = "moisture_changes"
	CategoryEquipmentChanges    HomeownerCategory = "equipment_changes"
	CategoryDurationChanges     HomeownerCategory = "duration_changes"
	CategoryReportChanges       HomeownerCategory = "report_changes"
)

var HomeownerCategories = []HomeownerCategory{
	CategoryServiceAppointments,
	CategorySystemChanges,
	CategoryWeatherChanges,
	CategoryMoistureChanges,
	CategoryEquipmentChanges,
	CategoryDurationChanges,
	CategoryReportChanges,
}

// HomeownerPreferences gates the homeowner feed. Enabled is the master toggle.
type HomeownerPreferences struct {
	Enabled             bool `json:"enabled"`
	ServiceAppointments bool `json:"service_appointments"`
	SystemChanges       bool `json:"system_changes"`
	WeatherChanges      bool `json:"weather_changes"`
	MoistureChanges     bool `json:"moisture_changes"`
	EquipmentChanges    bool `json:"equipment_changes"`
	DurationChanges     bool `json:"duration_changes"`
	ReportChanges       bool `json:"report_changes"`
}

func DefaultHomeownerPreferences() HomeownerPreferences {
	return HomeownerPreferences{
		Enabled:             true,
		ServiceAppointments: true,
		SystemChanges:       true,
	}
}

// toggle returns the field backing a category, nil when unknown.
func (p *HomeownerPreferences) toggle(c HomeownerCategory) *bool {
	switch c {
	case CategoryServiceAppointments:
		return &p.ServiceAppointments
	case CategorySystemChanges:
		return &p.SystemChanges
	case CategoryWeatherChanges:
		return &p.WeatherChanges
	case CategoryMoistureChanges:
		return &p.MoistureChanges
	case CategoryEquipmentChanges:
		return &p.EquipmentChanges
	case CategoryDurationChanges:
		return &p.DurationChanges
	case CategoryReportChanges:
		return &p.ReportChanges
	default:
		return nil
	}
}

// Valid reports whether c is a known category.
func (c HomeownerCategory) Valid() bool {
	var p HomeownerPreferences
	return p.toggle(c) != nil
}

// Allows checks the master toggle and the category toggle.
func (p HomeownerPreferences) Allows(c HomeownerCategory) bool {
	t := p.toggle(c)
	return p.Enabled && t != nil && *t
}

// Set assigns a preference by its JSON key. Unknown keys report false.
func (p *HomeownerPreferences) Set(key string, v bool) bool {
	if key == "enabled" {
		p.Enabled = v
		return true
	}
	t := p.toggle(HomeownerCategory(key))
	if t == nil {
		return false
	}
	*t = v
	return true
}

// HomeownerEvent is one entry of the homeowner feed.
type HomeownerEvent struct {
	EventBase
	Type HomeownerCategory `json:"type"`
}

const (
	HomeownerFeedVersion = 1
	HomeownerFeedCap     = 100
)

// HomeownerFeed is the persisted homeowner_notifications.json document.
type HomeownerFeed struct {
	Version     int                  `json:"version"`
	Preferences HomeownerPreferences `json:"preferences"`
	Events      []HomeownerEvent     `json:"events"`
}

func DefaultHomeownerFeed() HomeownerFeed {
	return HomeownerFeed{
		Version:     HomeownerFeedVersion,
		Preferences: DefaultHomeownerPreferences(),
		Events:      []HomeownerEvent{},
	}
}

func (f *HomeownerFeed) Migrate() bool {
	changed := false
	if f.Events == nil {
		f.Events = []HomeownerEvent{}
		changed = true
	}
	if f.Version < HomeownerFeedVersion {
		f.Version = HomeownerFeedVersion
		changed = true
	}
	return changed
}

// ---- management side ----

// ManagementEventType is an issue lifecycle transition seen by management.
type ManagementEventType string

const (
	EventNewIssue         ManagementEventType = "new_issue"
	EventAcknowledged     ManagementEventType = "acknowledged"
	EventServiceScheduled ManagementEventType = "service_scheduled"
	EventResolved         ManagementEventType = "resolved"
	EventReturned         ManagementEventType = "returned"
)

var ManagementEventTypes = []ManagementEventType{
	EventNewIssue,
	EventAcknowledged,
	EventServiceScheduled,
	EventResolved,
	EventReturned,
}

// ManagementPreferences gates the management feed; there is no master toggle.
type ManagementPreferences struct {
	NotifyNewIssue         bool `json:"notify_new_issue"`
	NotifyAcknowledged     bool `json:"notify_acknowledged"`
	NotifyServiceScheduled bool `json:"notify_service_scheduled"`
	NotifyResolved         bool `json:"notify_resolved"`
	NotifyReturned         bool `json:"notify_returned"`
}

func DefaultManagementPreferences() ManagementPreferences {
	return ManagementPreferences{
		NotifyNewIssue:         true,
		NotifyAcknowledged:     true,
		NotifyServiceScheduled: true,
		NotifyResolved:         true,
		NotifyReturned:         true,
	}
}

func (p *ManagementPreferences) toggle(t ManagementEventType) *bool {
	switch t {
	case EventNewIssue:
		return &p.NotifyNewIssue
	case EventAcknowledged:
		return &p.NotifyAcknowledged
	case EventServiceScheduled:
		return &p.NotifyServiceScheduled
	case EventResolved:
		return &p.NotifyResolved
	case EventReturned:
		return &p.NotifyReturned
	default:
		return nil
	}
}

func (t ManagementEventType) Valid() bool {
	var p ManagementPreferences
	return p.toggle(t) != nil
}

func (p ManagementPreferences) Allows(t ManagementEventType) bool {
	b := p.toggle(t)
	return b != nil && *b
}

// Set assigns a preference by its JSON key (notify_<type>).
func (p *ManagementPreferences) Set(key string, v bool) bool {
	const prefix = "notify_"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return false
	}
	b := p.toggle(ManagementEventType(key[len(prefix):]))
	if b == nil {
		return false
	}
	*b = v
	return true
}

// ManagementEvent is one entry of the management feed.
type ManagementEvent struct {
	EventBase
	Type         ManagementEventType `json:"type"`
	CustomerID   string              `json:"customer_id"`
	CustomerName string              `json:"customer_name"`
	Severity     string              `json:"severity"`
}

const (
	ManagementFeedVersion = 1
	ManagementFeedCap     = 200
)

// ManagementFeed is the persisted management_notifications.json document.
type ManagementFeed struct {
	Version     int                   `json:"version"`
	Preferences ManagementPreferences `json:"preferences"`
	Events      []ManagementEvent     `json:"events"`
}

func DefaultManagementFeed() ManagementFeed {
	return ManagementFeed{
		Version:     ManagementFeedVersion,
		Preferences: DefaultManagementPreferences(),
		Events:      []ManagementEvent{},
	}
}

func (f *ManagementFeed) Migrate() bool {
	changed := false
	if f.Events == nil {
		f.Events = []ManagementEvent{}
		changed = true
	}
	if f.Version < ManagementFeedVersion {
		f.Version = ManagementFeedVersion
		changed = true
	}
	return changed
}
