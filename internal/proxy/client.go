// Package proxy relays HTTP calls from a management instance to homeowner
// instances, using the credentials carried by a connection key.
package proxy

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every relayed call.
const DefaultTimeout = 20 * time.Second

const (
	apiKeyHeader = "X-API-Key"
	rawPreview   = 200

	relayServicePath = "/api/services/rest_command/irrigation_proxy_"
)

// Request is one call to forward. Body is JSON-encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
}

// Response is what the homeowner instance answered, or a synthetic status
// when it could not be reached. Body is decoded JSON, or {"raw": "..."}
// when the remote did not send JSON.
type Response struct {
	StatusCode int
	Body       any
}

func (r Response) OK() bool { return r.StatusCode == http.StatusOK }

// Object returns the body as a JSON object, nil when it is something else.
func (r Response) Object() map[string]any {
	m, _ := r.Body.(map[string]any)
	return m
}

// Client relays requests to homeowner instances over HTTP.
type Client struct {
	http    *resty.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewClient builds a client with a fixed per-call timeout and no retries.
// insecure disables TLS verification for self-signed homeowner setups.
func NewClient(timeout time.Duration, insecure bool, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	hc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetLogger(log).
		SetHeader("Accept", "application/json")
	if insecure {
		hc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	return &Client{http: hc, timeout: timeout, log: log}
}

// Relay forwards req to the instance described by conn. It never returns an
// error: transport failures become 502/503/504 responses with an
// {error, detail} body.
func (c *Client) Relay(ctx context.Context, conn models.ConnectionKey, req Request) Response {
	base := strings.TrimSpace(conn.URL)
	if base == "" {
		return failure(http.StatusBadRequest, "No URL configured",
			"The connection key has no URL. Re-add this customer with a valid connection key.")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return failure(http.StatusBadRequest, "Invalid URL",
			"URL must start with http:// or https://, got: "+truncate(base, 50))
	}
	base = strings.TrimRight(base, "/")

	if req.Method == "" {
		req.Method = http.MethodGet
	}

	if conn.Mode == models.ModeRelayed {
		if conn.HAToken == "" {
			return failure(http.StatusBadRequest, "Missing relay token",
				"This customer is reached through a relay but the connection key carries no relay token.")
		}
		return c.relayed(ctx, base, conn, req)
	}
	return c.direct(ctx, base, conn, req)
}

func (c *Client) direct(ctx context.Context, base string, conn models.ConnectionKey, req Request) Response {
	target := base + req.Path

	r := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, conn.Key).
		SetHeader("Content-Type", "application/json")
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}

	resp, err := r.Execute(req.Method, target)
	if err != nil {
		return c.transportFailure(err, target)
	}
	return Response{StatusCode: resp.StatusCode(), Body: decodeBody(resp.StatusCode(), resp.Body())}
}

// relayed calls the homeowner's automation hub, which forwards the request
// to the local API through a per-method rest command and wraps the answer
// in service_response.
func (c *Client) relayed(ctx context.Context, base string, conn models.ConnectionKey, req Request) Response {
	method := strings.ToLower(req.Method)
	switch method {
	case "get", "post", "put", "delete":
	default:
		return failure(http.StatusBadRequest, "Unsupported HTTP method: "+req.Method, "")
	}
	service := "irrigation_proxy_" + method
	target := base + relayServicePath + method

	path := strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		path += "?" + req.Query.Encode()
	}
	data := map[string]any{
		"path":    path,
		"api_key": conn.Key,
	}
	if method == "post" || method == "put" {
		payload := "{}"
		if req.Body != nil {
			b, err := json.Marshal(req.Body)
			if err != nil {
				return failure(http.StatusBadRequest, "Invalid request body", err.Error())
			}
			payload = string(b)
		}
		data["payload"] = payload
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(conn.HAToken).
		SetHeader("Content-Type", "application/json").
		SetQueryString("return_response").
		SetBody(data).
		Post(target)
	if err != nil {
		return c.transportFailure(err, base)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized:
		return failure(http.StatusUnauthorized, "Relay token rejected",
			"The homeowner's hub rejected the relay token; a new connection key is needed.")
	case status == http.StatusNotFound:
		return failure(http.StatusNotFound, "Relay command not found",
			fmt.Sprintf("The rest_command.%s service is not configured on the homeowner's hub.", service))
	case status != http.StatusOK:
		return failure(status, fmt.Sprintf("Relay error (HTTP %d)", status),
			ErrorString(decodeBody(status, resp.Body())))
	}

	var envelope struct {
		ServiceResponse map[string]any `json:"service_response"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return failure(http.StatusBadGateway, "Invalid response from relay",
			"Could not parse relay response: "+truncate(string(resp.Body()), rawPreview))
	}
	return unwrapServiceResponse(envelope.ServiceResponse, service)
}

// unwrapServiceResponse extracts {status, content}; the hub may nest it
// under rest_command.<service>.
func unwrapServiceResponse(sr map[string]any, service string) Response {
	if nested, ok := sr["rest_command"].(map[string]any); ok {
		if inner, ok := nested[service].(map[string]any); ok {
			sr = inner
		}
	}

	status := http.StatusBadGateway
	if n, ok := sr["status"].(float64); ok {
		status = int(n)
	}

	var body any = map[string]any{}
	switch content := sr["content"].(type) {
	case nil:
	case string:
		var v any
		if err := json.Unmarshal([]byte(content), &v); err == nil {
			body = v
		} else {
			body = map[string]any{"raw": truncate(content, rawPreview)}
		}
	default:
		body = content
	}
	return Response{StatusCode: status, Body: body}
}

func (c *Client) transportFailure(err error, target string) Response {
	status := classify(err)
	c.log.Warnw("proxy_request_failed", "target", target, "status", status, "err", err)

	switch status {
	case http.StatusServiceUnavailable:
		return failure(status, "Cannot connect to homeowner system",
			"Connection refused or host unreachable: "+target)
	case http.StatusGatewayTimeout:
		return failure(status, "Homeowner system timeout",
			fmt.Sprintf("Request timed out after %s: %s", c.timeout, target))
	default:
		return failure(status, "Communication error", err.Error())
	}
}

// classify maps a transport error to the synthetic status reported to callers.
func classify(err error) int {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return http.StatusGatewayTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.As(err, &opErr) && opErr.Op == "dial":
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func decodeBody(status int, raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	text := strings.TrimSpace(truncate(string(raw), rawPreview))
	return map[string]any{"raw": fmt.Sprintf("%d: %s", status, text)}
}

func failure(status int, msg, detail string) Response {
	return Response{
		StatusCode: status,
		Body:       map[string]any{"error": msg, "detail": detail},
	}
}

// ErrorString flattens an error body into one readable line.
func ErrorString(body any) string {
	switch v := body.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		for _, k := range []string{"detail", "error", "message", "raw"} {
			if s, ok := v[k].(string); ok && s != "" {
				return s
			}
		}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprint(body)
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
