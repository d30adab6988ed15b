package service

import (
	"errors"
	"testing"
	"time"

	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/models"

	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T, k models.ConnectionKey) string {
	t.Helper()
	token, err := connkey.Encode(k)
	require.NoError(t, err)
	return token
}

func TestCustomerService_AddNameFallback(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))

	explicit, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://a:8099", Key: "k1", Label: "Lake House"}), "  Smith  ", "")
	require.NoError(t, err)
	require.Equal(t, "Smith", explicit.Name)

	labeled, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://b:8099", Key: "k2", Label: "Lake House"}), "", "gate code 1234")
	require.NoError(t, err)
	require.Equal(t, "Lake House", labeled.Name)
	require.Equal(t, "gate code 1234", labeled.Notes)

	numbered, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://c:8099", Key: "k3"}), "", "")
	require.NoError(t, err)
	require.Equal(t, "Customer 3", numbered.Name)

	require.Len(t, svc.List(), 3)
	require.Equal(t, models.ModeDirect, numbered.ConnectionMode)
	require.NotNil(t, numbered.KnownIssueIDs)
}

func TestCustomerService_AddCopiesKeyDetails(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))
	zones := 8
	token := mustKey(t, models.ConnectionKey{
		URL: "https://x.example", Key: "k", City: "Austin", Phone: "555", ZoneCount: &zones,
		HAToken: "hub", Mode: models.ModeRelayed,
	})

	c, err := svc.Add("\n"+token+"  ", "", "")
	require.NoError(t, err)
	require.Equal(t, token, c.ConnectionKeyEncoded)
	require.Equal(t, "Austin", c.City)
	require.Equal(t, "555", c.Phone)
	require.Equal(t, 8, *c.ZoneCount)
	require.Equal(t, models.ModeRelayed, c.ConnectionMode)

	conn := c.Connection()
	require.Equal(t, "hub", conn.HAToken)
	require.Equal(t, "k", conn.Key)
}

func TestCustomerService_AddDuplicate(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))

	first, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://a", Key: "k", Label: "One"}), "", "")
	require.NoError(t, err)

	// Different token, same (url, key).
	_, err = svc.Add(mustKey(t, models.ConnectionKey{URL: "http://a", Key: "k", Label: "Other"}), "x", "")
	require.ErrorIs(t, err, ErrDuplicateCustomer)

	var dup *DuplicateCustomerError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, first.ID, dup.ExistingID)
	require.Contains(t, err.Error(), "One")
	require.Len(t, svc.List(), 1)
}

func TestCustomerService_AddInvalidKey(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))

	_, err := svc.Add("!!!not a key", "", "")
	require.ErrorIs(t, err, connkey.ErrInvalidKey)
	require.Empty(t, svc.List())
}

func TestCustomerService_GetUpdateRemove(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))
	c, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://a", Key: "k"}), "A", "n1")
	require.NoError(t, err)

	require.Nil(t, svc.Get("missing"))
	require.Nil(t, svc.Update("missing", strPtr("x"), nil))

	updated := svc.Update(c.ID, nil, strPtr("n2"))
	require.NotNil(t, updated)
	require.Equal(t, "A", updated.Name)
	require.Equal(t, "n2", updated.Notes)

	updated = svc.Update(c.ID, strPtr("B"), nil)
	require.Equal(t, "B", updated.Name)
	require.Equal(t, "B", svc.Get(c.ID).Name)

	require.True(t, svc.Remove(c.ID))
	require.False(t, svc.Remove(c.ID))
	require.Nil(t, svc.Get(c.ID))
}

func TestCustomerService_UpdateStatus(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	c, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://a", Key: "k", Phone: "old"}), "", "")
	require.NoError(t, err)

	online := svc.UpdateStatus(c.ID, models.HealthResult{
		Reachable:     true,
		Authenticated: true,
		SystemStatus:  map[string]any{"phone": "555-0100", "city": "", "first_name": "Ana"},
	})
	require.NotNil(t, online)
	require.Equal(t, clock, *online.LastSeenOnline)
	require.Equal(t, "555-0100", online.Phone)
	require.Equal(t, "Ana", online.FirstName)

	// A failed probe keeps the last good timestamp.
	clock = clock.Add(time.Hour)
	offline := svc.UpdateStatus(c.ID, models.HealthResult{Error: "Connection refused"})
	require.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), *offline.LastSeenOnline)
	require.Equal(t, "Connection refused", offline.LastStatus.Error)

	// Reachable but rejected does not count as seen either.
	rejected := svc.UpdateStatus(c.ID, models.HealthResult{Reachable: true, Error: "API key rejected"})
	require.True(t, rejected.LastSeenOnline.Before(clock))

	require.Nil(t, svc.UpdateStatus("missing", models.HealthResult{}))
}

func TestCustomerService_SetKnownIssues(t *testing.T) {
	svc := NewCustomerService(newCustomerStore(t))
	c, err := svc.Add(mustKey(t, models.ConnectionKey{URL: "http://a", Key: "k"}), "", "")
	require.NoError(t, err)
	require.False(t, c.IssuesBaselined)

	require.True(t, svc.SetKnownIssues(c.ID, []string{"i1", "i2"}))
	got := svc.Get(c.ID)
	require.True(t, got.IssuesBaselined)
	require.Equal(t, []string{"i1", "i2"}, got.KnownIssueIDs)

	require.False(t, svc.SetKnownIssues("missing", nil))
}
