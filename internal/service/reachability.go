package service

import (
	"context"
	"net/http"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
)

// Paths of the homeowner API probed by the reachability check.
const (
	HealthPath = "/api/system/health"
	StatusPath = "/api/system/status"
)

const (
	errRevoked        = "Management access was revoked by homeowner"
	errKeyRejected    = "API key rejected"
	errKeyPermissions = "API key lacks permissions"
)

type ReachabilityService struct {
	relay Relayer
}

func NewReachabilityService(relay Relayer) *ReachabilityService {
	return &ReachabilityService{relay: relay}
}

// Check probes health without relying on the credential, then status with
// it. A failed first phase never runs the second, which is what lets
// callers tell "offline" apart from "key no longer accepted".
func (s *ReachabilityService) Check(ctx context.Context, conn models.ConnectionKey) models.HealthResult {
	health := s.relay.Relay(ctx, conn, proxy.Request{Method: http.MethodGet, Path: HealthPath})
	if !health.OK() {
		return models.HealthResult{Error: proxy.ErrorString(health.Body)}
	}
	if revoked, _ := health.Object()["revoked"].(bool); revoked {
		return models.HealthResult{Reachable: true, Revoked: true, Error: errRevoked}
	}

	status := s.relay.Relay(ctx, conn, proxy.Request{Method: http.MethodGet, Path: StatusPath})
	switch status.StatusCode {
	case http.StatusOK:
		return models.HealthResult{Reachable: true, Authenticated: true, SystemStatus: status.Body}
	case http.StatusUnauthorized:
		return models.HealthResult{Reachable: true, Error: errKeyRejected}
	case http.StatusForbidden:
		return models.HealthResult{Reachable: true, Error: errKeyPermissions}
	default:
		return models.HealthResult{Reachable: true, Error: proxy.ErrorString(status.Body)}
	}
}
