package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/proxy"
)

// NotificationsPath is where management reports changes it made remotely.
const NotificationsPath = "/api/notifications"

// RemoteChange is the body management posts to a homeowner's
// NotificationsPath.
type RemoteChange struct {
	Category models.HomeownerCategory `json:"category"`
	Title    string                   `json:"title"`
	Message  string                   `json:"message"`
}

// RemoteService drives homeowner instances on behalf of management.
type RemoteService struct {
	customers Customers
	reach     Reachability
	relay     Relayer
	feed      ManagementNotifications
	changes   ChangeLog
	log       *logger.Logger
}

func NewRemoteService(customers Customers, reach Reachability, relay Relayer, feed ManagementNotifications, changes ChangeLog, log *logger.Logger) *RemoteService {
	return &RemoteService{
		customers: customers,
		reach:     reach,
		relay:     relay,
		feed:      feed,
		changes:   changes,
		log:       log,
	}
}

// CheckCustomer runs the reachability check and caches the result. It
// reports false for an unknown customer.
func (s *RemoteService) CheckCustomer(ctx context.Context, customerID string) (*models.Customer, bool) {
	c := s.customers.Get(customerID)
	if c == nil {
		return nil, false
	}
	res := s.reach.Check(ctx, c.Connection())
	updated := s.customers.UpdateStatus(c.ID, res)
	if updated == nil {
		return nil, false
	}
	return updated, true
}

// Relay forwards req to the customer's instance. A successful write to a
// settings path is announced in the homeowner's feed.
func (s *RemoteService) Relay(ctx context.Context, customerID string, req proxy.Request) (proxy.Response, bool) {
	c := s.customers.Get(customerID)
	if c == nil {
		return proxy.Response{}, false
	}

	resp := s.relay.Relay(ctx, c.Connection(), req)
	if !isMutating(req.Method) || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, true
	}

	s.changes.Record(ctx, models.ActorManagement, "Remote",
		fmt.Sprintf("%s %s on %s", req.Method, req.Path, c.Name),
		map[string]any{"customer_id": c.ID})

	if category, title, ok := CategoryForPath(req.Path); ok {
		s.announce(ctx, *c, RemoteChange{
			Category: category,
			Title:    title,
			Message:  "Your management company updated your irrigation settings.",
		})
	}
	return resp, true
}

// announce posts change to the homeowner feed; failures only get logged.
func (s *RemoteService) announce(ctx context.Context, c models.Customer, change RemoteChange) {
	resp := s.relay.Relay(ctx, c.Connection(), proxy.Request{
		Method: http.MethodPost,
		Path:   NotificationsPath,
		Body:   change,
	})
	if resp.StatusCode >= 300 {
		s.log.Warnw("remote_announce_failed",
			"customer_id", c.ID,
			"category", change.Category,
			"status", resp.StatusCode,
			"err", proxy.ErrorString(resp.Body))
	}
}

// AcknowledgeIssue acknowledges (or schedules) an issue on the customer's
// instance and records it in the management feed.
func (s *RemoteService) AcknowledgeIssue(ctx context.Context, customerID, issueID string, p AcknowledgeParams) (proxy.Response, bool) {
	c := s.customers.Get(customerID)
	if c == nil {
		return proxy.Response{}, false
	}

	resp := s.relay.Relay(ctx, c.Connection(), proxy.Request{
		Method: http.MethodPut,
		Path:   "/api/issues/" + url.PathEscape(issueID) + "/acknowledge",
		Body:   p,
	})
	if !resp.OK() {
		return resp, true
	}

	issue := issueFromBody(resp.Body)
	ev := ManagementEventParams{
		Type:         string(models.EventAcknowledged),
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Severity:     string(issue.Severity),
		Title:        "Issue Acknowledged",
		Message:      fmt.Sprintf("%s: %s", c.Name, truncateRunes(issue.Description, changeLogPreviewLen)),
	}
	if issue.Status == models.IssueScheduled && issue.ServiceDate != nil {
		ev.Type = string(models.EventServiceScheduled)
		ev.Title = "Service Scheduled"
		ev.Message = fmt.Sprintf("%s: service visit on %s", c.Name, *issue.ServiceDate)
	}
	s.feed.RecordEvent(ev)
	return resp, true
}

// ResolveIssue resolves an issue on the customer's instance.
func (s *RemoteService) ResolveIssue(ctx context.Context, customerID, issueID string) (proxy.Response, bool) {
	c := s.customers.Get(customerID)
	if c == nil {
		return proxy.Response{}, false
	}

	resp := s.relay.Relay(ctx, c.Connection(), proxy.Request{
		Method: http.MethodPut,
		Path:   "/api/issues/" + url.PathEscape(issueID) + "/resolve",
	})
	if !resp.OK() {
		return resp, true
	}

	issue := issueFromBody(resp.Body)
	s.feed.RecordEvent(ManagementEventParams{
		Type:         string(models.EventResolved),
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Severity:     string(issue.Severity),
		Title:        "Issue Resolved",
		Message:      fmt.Sprintf("%s: %s", c.Name, truncateRunes(issue.Description, changeLogPreviewLen)),
	})
	return resp, true
}

// issueFromBody reads {"issue": {...}} from a homeowner response. Unknown
// shapes yield a zero issue.
func issueFromBody(body any) models.Issue {
	var wrapper struct {
		Issue models.Issue `json:"issue"`
	}
	_ = decodeJSONValue(body, &wrapper)
	return wrapper.Issue
}

// decodeJSONValue converts an already-decoded JSON value into out.
func decodeJSONValue(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
