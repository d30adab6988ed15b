package models

// ConnectionMode selects how management reaches a homeowner instance.
type ConnectionMode string

const (
	ModeDirect  ConnectionMode = "direct"
	ModeRelayed ConnectionMode = "relayed"

	// legacyModeNabuCasa is the name older homeowner builds put on relayed keys.
	legacyModeNabuCasa = "nabu_casa"
)

// ParseConnectionMode maps a wire value to a mode. Empty means direct.
func ParseConnectionMode(s string) (ConnectionMode, bool) {
	switch s {
	case "", string(ModeDirect):
		return ModeDirect, true
	case string(ModeRelayed), legacyModeNabuCasa:
		return ModeRelayed, true
	default:
		return "", false
	}
}

// ConnectionKeyVersion is written into every key produced by this build.
const ConnectionKeyVersion = 1

// ConnectionKey is the decoded credential bundle a homeowner hands to management.
// Optional string fields are absent when empty.
type ConnectionKey struct {
	URL       string         `json:"url"`
	Key       string         `json:"key"`
	Version   int            `json:"v"`
	Label     string         `json:"label,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Address   string         `json:"address,omitempty"`
	City      string         `json:"city,omitempty"`
	State     string         `json:"state,omitempty"`
	Zip       string         `json:"zip,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	ZoneCount *int           `json:"zone_count,omitempty"`
	HAToken   string         `json:"ha_token,omitempty"`
	Mode      ConnectionMode `json:"mode"`
}
