package service

import (
	"context"
	"net/http"
	"testing"

	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"

	"github.com/stretchr/testify/require"
)

func TestReachabilityService_Check(t *testing.T) {
	healthy := jsonResp(http.StatusOK, map[string]any{"status": "healthy", "revoked": false})

	tests := []struct {
		name      string
		health    proxy.Response
		status    proxy.Response
		want      models.HealthResult
		wantCalls int
	}{
		{
			name:      "phase one unreachable",
			health:    jsonResp(http.StatusServiceUnavailable, map[string]any{"error": "Cannot connect", "detail": "Connection refused"}),
			status:    jsonResp(http.StatusOK, map[string]any{}),
			want:      models.HealthResult{Error: "Connection refused"},
			wantCalls: 1,
		},
		{
			name:      "phase one timeout",
			health:    jsonResp(http.StatusGatewayTimeout, map[string]any{"error": "Homeowner system timeout"}),
			status:    jsonResp(http.StatusUnauthorized, nil),
			want:      models.HealthResult{Error: "Homeowner system timeout"},
			wantCalls: 1,
		},
		{
			name:      "revoked",
			health:    jsonResp(http.StatusOK, map[string]any{"status": "healthy", "revoked": true}),
			status:    jsonResp(http.StatusOK, map[string]any{}),
			want:      models.HealthResult{Reachable: true, Revoked: true, Error: "Management access was revoked by homeowner"},
			wantCalls: 1,
		},
		{
			name:      "key rejected",
			health:    healthy,
			status:    jsonResp(http.StatusUnauthorized, map[string]any{"detail": "Invalid API key"}),
			want:      models.HealthResult{Reachable: true, Error: "API key rejected"},
			wantCalls: 2,
		},
		{
			name:      "forbidden",
			health:    healthy,
			status:    jsonResp(http.StatusForbidden, map[string]any{}),
			want:      models.HealthResult{Reachable: true, Error: "API key lacks permissions"},
			wantCalls: 2,
		},
		{
			name:      "other status",
			health:    healthy,
			status:    jsonResp(http.StatusInternalServerError, map[string]any{"raw": "500: oops"}),
			want:      models.HealthResult{Reachable: true, Error: "500: oops"},
			wantCalls: 2,
		},
		{
			name:      "authenticated",
			health:    healthy,
			status:    jsonResp(http.StatusOK, map[string]any{"online": true}),
			want:      models.HealthResult{Reachable: true, Authenticated: true, SystemStatus: map[string]any{"online": true}},
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := &fakeRelayer{respond: func(_ models.ConnectionKey, req proxy.Request) proxy.Response {
				if req.Path == HealthPath {
					return tt.health
				}
				return tt.status
			}}
			svc := NewReachabilityService(relay)

			got := svc.Check(context.Background(), models.ConnectionKey{URL: "http://h", Key: "k"})
			require.Equal(t, tt.want, got)
			require.Len(t, relay.calls, tt.wantCalls)
			require.Equal(t, "GET "+HealthPath, relay.paths()[0])
		})
	}
}
