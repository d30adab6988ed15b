package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"

	"golang.org/x/sync/errgroup"
)

// SummaryPath is the homeowner endpoint the poller diffs between sweeps.
const SummaryPath = "/api/issues/summary"

// PollerService periodically checks every customer and turns newly seen
// homeowner issues into management new_issue events.
//
// Diffing is a per-customer set difference against the ids stored on the
// customer row. The first successful summary only seeds that set, so
// onboarding a customer with open issues does not flood the feed.
type PollerService struct {
	customers Customers
	reach     Reachability
	relay     Relayer
	feed      ManagementNotifications
	limit     int
	log       *logger.Logger
}

func NewPollerService(customers Customers, reach Reachability, relay Relayer, feed ManagementNotifications, concurrency int, log *logger.Logger) *PollerService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PollerService{
		customers: customers,
		reach:     reach,
		relay:     relay,
		feed:      feed,
		limit:     concurrency,
		log:       log,
	}
}

// Run sweeps once immediately, then every interval until ctx is canceled.
func (s *PollerService) Run(ctx context.Context, interval time.Duration) {
	s.PollOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.PollOnce(ctx)
		}
	}
}

// PollOnce checks all customers with bounded concurrency and returns when
// every check has finished.
func (s *PollerService) PollOnce(ctx context.Context) {
	customers := s.customers.List()
	if len(customers) == 0 {
		return
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(s.limit)
	for _, c := range customers {
		g.Go(func() error {
			s.pollCustomer(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debugw("poll_sweep_done", "customers", len(customers), "took", time.Since(start))
}

func (s *PollerService) pollCustomer(ctx context.Context, c models.Customer) {
	if ctx.Err() != nil {
		return
	}
	conn := c.Connection()

	res := s.reach.Check(ctx, conn)
	if ctx.Err() != nil {
		// a cancelled check says nothing about the customer
		return
	}
	if s.customers.UpdateStatus(c.ID, res) == nil {
		// removed while we were checking it
		return
	}
	if !res.Online() {
		s.log.Debugw("customer_offline", "customer_id", c.ID, "err", res.Error)
		return
	}

	resp := s.relay.Relay(ctx, conn, proxy.Request{Method: http.MethodGet, Path: SummaryPath})
	if ctx.Err() != nil {
		return
	}
	if !resp.OK() {
		s.log.Warnw("issue_summary_failed",
			"customer_id", c.ID,
			"status", resp.StatusCode,
			"err", proxy.ErrorString(resp.Body))
		return
	}

	var sum models.IssueSummary
	if err := decodeJSONValue(resp.Body, &sum); err != nil {
		s.log.Warnw("issue_summary_malformed", "customer_id", c.ID, "err", err)
		return
	}

	fresh := newIssues(c.KnownIssueIDs, sum.Issues)
	if c.IssuesBaselined {
		for _, issue := range fresh {
			s.feed.RecordEvent(ManagementEventParams{
				Type:         string(models.EventNewIssue),
				CustomerID:   c.ID,
				CustomerName: c.Name,
				Severity:     string(issue.Severity),
				Title:        fmt.Sprintf("New %s", issue.Severity.Label()),
				Message:      fmt.Sprintf("%s: %s", c.Name, issue.Description),
			})
		}
	}

	ids := make([]string, 0, len(sum.Issues))
	for _, issue := range sum.Issues {
		ids = append(ids, issue.ID)
	}
	if !c.IssuesBaselined || len(fresh) > 0 || len(ids) != len(c.KnownIssueIDs) {
		s.customers.SetKnownIssues(c.ID, ids)
	}
}

// newIssues returns the summary items whose ids are not in known.
func newIssues(known []string, current []models.IssueSummaryItem) []models.IssueSummaryItem {
	seen := make(map[string]struct{}, len(known))
	for _, id := range known {
		seen[id] = struct{}{}
	}
	var out []models.IssueSummaryItem
	for _, issue := range current {
		if _, ok := seen[issue.ID]; !ok {
			out = append(out, issue)
		}
	}
	return out
}
