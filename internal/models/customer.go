package models

import "time"

// HealthResult is the outcome of one reachability check.
type HealthResult struct {
	Reachable     bool   `json:"reachable"`
	Authenticated bool   `json:"authenticated"`
	Revoked       bool   `json:"revoked,omitempty"`
	Error         string `json:"error,omitempty"`
	SystemStatus  any    `json:"system_status,omitempty"`
}

// Online reports whether the homeowner answered and accepted our key.
func (h HealthResult) Online() bool {
	return h.Reachable && h.Authenticated
}

// Customer is one onboarded homeowner connection on the management side.
type Customer struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	ConnectionKeyEncoded string         `json:"connection_key_encoded"`
	URL                  string         `json:"url"`
	APIKey               string         `json:"api_key"`
	AddedAt              time.Time      `json:"added_at"`
	Notes                string         `json:"notes"`
	Address              string         `json:"address"`
	City                 string         `json:"city"`
	State                string         `json:"state"`
	Zip                  string         `json:"zip"`
	Phone                string         `json:"phone"`
	FirstName            string         `json:"first_name"`
	LastName             string         `json:"last_name"`
	ZoneCount            *int           `json:"zone_count"`
	LastSeenOnline       *time.Time     `json:"last_seen_online"`
	LastStatus           *HealthResult  `json:"last_status"`
	HAToken              string         `json:"ha_token"`
	ConnectionMode       ConnectionMode `json:"connection_mode"`

	// Issue ids seen on the previous successful poll.
	KnownIssueIDs   []string `json:"known_issue_ids"`
	IssuesBaselined bool     `json:"issues_baselined"`
}

// Connection rebuilds the credentials needed to reach this customer.
func (c Customer) Connection() ConnectionKey {
	return ConnectionKey{
		URL:     c.URL,
		Key:     c.APIKey,
		Version: ConnectionKeyVersion,
		HAToken: c.HAToken,
		Mode:    c.ConnectionMode,
	}
}

// CustomerRegistryVersion is the current on-disk layout of customers.json.
const CustomerRegistryVersion = 2

// CustomerRegistry is the persisted customers.json document.
type CustomerRegistry struct {
	Version   int        `json:"version"`
	Customers []Customer `json:"customers"`
}

func DefaultCustomerRegistry() CustomerRegistry {
	return CustomerRegistry{Version: CustomerRegistryVersion, Customers: []Customer{}}
}

// Migrate backfills fields older registries did not carry.
func (r *CustomerRegistry) Migrate() bool {
	changed := false
	if r.Customers == nil {
		r.Customers = []Customer{}
		changed = true
	}
	for i := range r.Customers {
		c := &r.Customers[i]
		mode, ok := ParseConnectionMode(string(c.ConnectionMode))
		if !ok {
			mode = ModeDirect
		}
		if mode != c.ConnectionMode {
			c.ConnectionMode = mode
			changed = true
		}
		if c.KnownIssueIDs == nil {
			c.KnownIssueIDs = []string{}
			changed = true
		}
	}
	if r.Version < CustomerRegistryVersion {
		r.Version = CustomerRegistryVersion
		changed = true
	}
	return changed
}
