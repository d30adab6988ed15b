package service

import (
	"strings"
	"time"

	"flux_irrigation/internal/config"
	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/models"
)

// InstanceService answers questions about this homeowner installation.
type InstanceService struct {
	cfg    config.HomeownerConfig
	issues Issues
	access Access
	now    func() time.Time
}

func NewInstanceService(cfg config.HomeownerConfig, issues Issues, access Access) *InstanceService {
	return &InstanceService{cfg: cfg, issues: issues, access: access, now: time.Now}
}

// ConnectionKey builds the key a homeowner hands to management, returning
// both the decoded form and the encoded token.
func (s *InstanceService) ConnectionKey() (models.ConnectionKey, string, error) {
	mode, ok := models.ParseConnectionMode(strings.TrimSpace(s.cfg.ConnectionMode))
	if !ok {
		mode = models.ModeDirect
	}
	key := models.ConnectionKey{
		URL:       strings.TrimSpace(s.cfg.URL),
		Key:       s.cfg.APIKey,
		Version:   models.ConnectionKeyVersion,
		Label:     s.cfg.Label,
		FirstName: s.cfg.FirstName,
		LastName:  s.cfg.LastName,
		Address:   s.cfg.Address,
		City:      s.cfg.City,
		State:     s.cfg.State,
		Zip:       s.cfg.Zip,
		Phone:     s.cfg.Phone,
		Mode:      mode,
	}
	if s.cfg.ZoneCount > 0 {
		zc := s.cfg.ZoneCount
		key.ZoneCount = &zc
	}
	if mode == models.ModeRelayed {
		key.HAToken = s.cfg.HAToken
	}

	token, err := connkey.Encode(key)
	if err != nil {
		return models.ConnectionKey{}, "", err
	}
	return key, token, nil
}

// SystemStatus is the authenticated status payload management caches. The
// contact fields let management pick up details entered after the key was
// issued.
func (s *InstanceService) SystemStatus() map[string]any {
	sum := s.issues.Summary()
	st := map[string]any{
		"online":        true,
		"label":         s.cfg.Label,
		"first_name":    s.cfg.FirstName,
		"last_name":     s.cfg.LastName,
		"address":       s.cfg.Address,
		"city":          s.cfg.City,
		"state":         s.cfg.State,
		"zip":           s.cfg.Zip,
		"phone":         s.cfg.Phone,
		"active_issues": sum.ActiveCount,
		"max_severity":  sum.MaxSeverity,
		"revoked":       s.access.State().Revoked,
		"uptime_check":  s.now().UTC().Format(time.RFC3339),
	}
	if s.cfg.ZoneCount > 0 {
		st["zone_count"] = s.cfg.ZoneCount
	}
	return st
}

// CalendarInfo labels service visit calendar entries with this home's
// label and street address.
func (s *InstanceService) CalendarInfo() CalendarInfo {
	var parts []string
	if s.cfg.Address != "" {
		parts = append(parts, s.cfg.Address)
	}
	var cityState []string
	for _, p := range []string{s.cfg.City, s.cfg.State} {
		if p != "" {
			cityState = append(cityState, p)
		}
	}
	if len(cityState) > 0 {
		line := strings.Join(cityState, ", ")
		if s.cfg.Zip != "" {
			line += " " + s.cfg.Zip
		}
		parts = append(parts, line)
	}
	return CalendarInfo{Label: s.cfg.Label, Location: strings.Join(parts, ", ")}
}
