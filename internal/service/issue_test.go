package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"flux_irrigation/internal/models"

	"github.com/stretchr/testify/require"
)

type issueFixture struct {
	svc     *IssueService
	feed    *HomeownerNotificationService
	changes *fakeChangeLog
	clock   time.Time
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()
	f := &issueFixture{
		feed:    NewHomeownerNotificationService(newHomeownerFeedStore(t)),
		changes: &fakeChangeLog{},
		clock:   time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewIssueService(newIssueStore(t), f.feed, f.changes)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *issueFixture) create(t *testing.T, sev models.Severity, desc string) models.Issue {
	t.Helper()
	issue, err := f.svc.Create(context.Background(), sev, desc)
	require.NoError(t, err)
	return issue
}

func TestIssueService_CreateValidation(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "urgent", "leak")
	require.ErrorIs(t, err, ErrInvalidSeverity)

	_, err = f.svc.Create(ctx, models.SeveritySevere, "   ")
	require.ErrorIs(t, err, ErrInvalidDescription)

	_, err = f.svc.Create(ctx, models.SeveritySevere, strings.Repeat("x", 1001))
	require.ErrorIs(t, err, ErrInvalidDescription)

	issue, err := f.svc.Create(ctx, models.SeveritySevere, " "+strings.Repeat("é", 1000)+" ")
	require.NoError(t, err)
	require.Equal(t, models.IssueOpen, issue.Status)
	require.Equal(t, 1000, len([]rune(issue.Description)))

	require.Len(t, f.svc.All(), 1)
	entry := f.changes.last()
	require.Equal(t, models.ActorHomeowner, entry.Actor)
	require.True(t, strings.HasPrefix(entry.Description, "Reported Severe Issue: "))
}

func TestIssueService_Lifecycle(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	issue := f.create(t, models.SeverityAnnoyance, "Zone 3 sprays the driveway")

	require.Nil(t, f.svc.Dismiss(ctx, issue.ID), "dismiss before resolve is a no-op")
	require.Equal(t, models.IssueOpen, f.svc.Get(issue.ID).Status)

	acked := f.svc.Acknowledge(ctx, issue.ID, nil, nil)
	require.NotNil(t, acked)
	require.Equal(t, models.IssueAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)

	scheduled := f.svc.Acknowledge(ctx, issue.ID, nil, strPtr("2025-06-01"))
	require.Equal(t, models.IssueScheduled, scheduled.Status)
	require.Equal(t, "2025-06-01", *scheduled.ServiceDate)
	require.Nil(t, scheduled.ServiceDateUpdatedAt)
	require.True(t, scheduled.AcknowledgedAt.After(*acked.AcknowledgedAt))

	resolved := f.svc.Resolve(ctx, issue.ID)
	require.Equal(t, models.IssueResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	require.Nil(t, f.svc.Acknowledge(ctx, issue.ID, nil, nil), "resolved issues cannot be acknowledged")
	require.Equal(t, models.IssueResolved, f.svc.Get(issue.ID).Status)

	again := f.svc.Resolve(ctx, issue.ID)
	require.True(t, again.ResolvedAt.After(*resolved.ResolvedAt))

	require.Len(t, f.svc.Visible(), 1, "resolved but not dismissed stays visible")

	dismissed := f.svc.Dismiss(ctx, issue.ID)
	require.True(t, dismissed.HomeownerDismissed)
	require.Empty(t, f.svc.Visible())
	require.Len(t, f.svc.All(), 1)
	require.Empty(t, f.svc.Active())

	require.Nil(t, f.svc.Resolve(ctx, "missing"))
	require.Nil(t, f.svc.Acknowledge(ctx, "missing", nil, nil))
}

func TestIssueService_ServiceDateUpdatedOnlyOnChange(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	issue := f.create(t, models.SeveritySevere, "Pump will not start")

	first := f.svc.Acknowledge(ctx, issue.ID, nil, strPtr("2025-06-01"))
	require.Nil(t, first.ServiceDateUpdatedAt)

	same := f.svc.Acknowledge(ctx, issue.ID, nil, strPtr("2025-06-01"))
	require.Nil(t, same.ServiceDateUpdatedAt)

	moved := f.svc.Acknowledge(ctx, issue.ID, nil, strPtr("2025-06-03"))
	require.NotNil(t, moved.ServiceDateUpdatedAt)
	require.Equal(t, "2025-06-03", *moved.ServiceDate)

	events := f.feed.Events(0)
	require.Len(t, events, 2)
	require.Equal(t, "Service Appointment Updated", events[0].Title)
	require.Contains(t, events[0].Message, "2025-06-01")
	require.Contains(t, events[0].Message, "2025-06-03")
	require.Equal(t, "Service Appointment Scheduled", events[1].Title)
	require.Equal(t, models.CategoryServiceAppointments, events[1].Type)
}

func TestIssueService_EmptyServiceDateMeansAcknowledge(t *testing.T) {
	f := newIssueFixture(t)
	issue := f.create(t, models.SeverityClarification, "What does eco mode do?")

	got := f.svc.Acknowledge(context.Background(), issue.ID, nil, strPtr("  "))
	require.Equal(t, models.IssueAcknowledged, got.Status)
	require.Nil(t, got.ServiceDate)
	require.Empty(t, f.feed.Events(0))
}

func TestIssueService_ManagementNote(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	issue := f.create(t, models.SeverityAnnoyance, "Timer drift")

	got := f.svc.Acknowledge(ctx, issue.ID, strPtr("  "+strings.Repeat("n", 600)+"  "), nil)
	require.Equal(t, 500, len(*got.ManagementNote))

	got = f.svc.Acknowledge(ctx, issue.ID, nil, nil)
	require.NotNil(t, got.ManagementNote, "nil note leaves it untouched")

	got = f.svc.Acknowledge(ctx, issue.ID, strPtr(""), nil)
	require.Nil(t, got.ManagementNote, "empty note clears it")
}

func TestIssueService_ViewsNewestFirst(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	a := f.create(t, models.SeverityClarification, "a")
	b := f.create(t, models.SeveritySevere, "b")
	c := f.create(t, models.SeverityAnnoyance, "c")
	f.svc.Resolve(ctx, b.ID)

	ids := func(issues []models.Issue) []string {
		out := make([]string, 0, len(issues))
		for _, i := range issues {
			out = append(out, i.ID)
		}
		return out
	}
	require.Equal(t, []string{c.ID, b.ID, a.ID}, ids(f.svc.All()))
	require.Equal(t, []string{c.ID, a.ID}, ids(f.svc.Active()))
	require.Equal(t, []string{c.ID, b.ID, a.ID}, ids(f.svc.Visible()))
}

func TestIssueService_Summary(t *testing.T) {
	f := newIssueFixture(t)

	empty := f.svc.Summary()
	require.Zero(t, empty.ActiveCount)
	require.Nil(t, empty.MaxSeverity)
	require.NotNil(t, empty.Issues)

	f.create(t, models.SeverityClarification, "one")
	f.create(t, models.SeveritySevere, strings.Repeat("s", 300))
	f.create(t, models.SeverityAnnoyance, "three")

	sum := f.svc.Summary()
	require.Equal(t, 3, sum.ActiveCount)
	require.Equal(t, models.SeveritySevere, *sum.MaxSeverity)
	require.Len(t, sum.Issues, 3)
	for _, item := range sum.Issues {
		require.LessOrEqual(t, len([]rune(item.Description)), 200)
	}
}

func TestIssueService_CalendarICS(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	issue := f.create(t, models.SeveritySevere, "Broken head")

	_, ok := f.svc.CalendarICS(issue.ID, CalendarInfo{})
	require.False(t, ok, "no service date yet")
	_, ok = f.svc.CalendarICS("missing", CalendarInfo{})
	require.False(t, ok)

	f.svc.Acknowledge(ctx, issue.ID, strPtr("Bring a 4\" head; gate code 12"), strPtr("2025-12-31"))

	raw, ok := f.svc.CalendarICS(issue.ID, CalendarInfo{Label: "Lake House", Location: "1 Main St, Austin, TX 78701"})
	require.True(t, ok)
	ics := string(raw)

	require.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	require.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	require.Contains(t, ics, "UID:flux-svc-"+issue.ID+"@flux-irrigation\r\n")
	require.Contains(t, ics, "DTSTART;VALUE=DATE:20251231\r\n")
	require.Contains(t, ics, "DTEND;VALUE=DATE:20260101\r\n")
	require.Contains(t, ics, "SUMMARY:Irrigation Service - Lake House\r\n")
	require.Contains(t, ics, `LOCATION:1 Main St\, Austin\, TX 78701`)

	unfolded := strings.ReplaceAll(ics, "\r\n ", "")
	require.Contains(t, unfolded, `\nNote from management: Bring a 4" head\; gate code 12`)

	for _, line := range strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n") {
		require.LessOrEqual(t, len(line), 75)
	}
}
