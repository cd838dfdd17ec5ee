// Package pmsapi is the REST client for the property-management system.
package pmsapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"pousada/internal/app/policies"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/infra/obs"
)

const (
	tenantHeader    = "X-Pousada-Id"
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 4 << 10
)

// Client talks to the PMS. Timeouts come from the http.Client; there is no
// retry: a failed call is reported once.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Logger  *slog.Logger
}

func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{HTTP: httpClient, BaseURL: strings.TrimRight(baseURL, "/"), Logger: logger}
}

type errorBody struct {
	Code    string            `json:"codigo"`
	Message string            `json:"mensagem"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"campos"`
}

// do sends one request. sess may be nil for unauthenticated calls such as
// login. out may be nil; the returned status lets callers spot 204.
func (c *Client) do(ctx context.Context, sess *domainauth.Session, method, path string, query url.Values, in, out any) (int, error) {
	if c == nil || c.HTTP == nil || c.BaseURL == "" {
		return 0, errors.New("pms: client not configured")
	}
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.Bearer)
		req.Header.Set(tenantHeader, sess.TenantID)
	}
	if id := obs.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		c.Logger.Warn("pms request failed", "method", method, "path", path, "error", err)
		return 0, fmt.Errorf("%w: %v", policies.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, c.statusError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", policies.ErrTransient, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return http.StatusNoContent, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.Logger.Error("pms response decode failed", "method", method, "path", path, "error", err)
		return resp.StatusCode, fmt.Errorf("%w: %v", policies.ErrMalformed, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return policies.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return policies.ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		c.Logger.Warn("pms returned server error", "method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", policies.ErrTransient, resp.StatusCode)
	default:
		return &policies.RejectionError{
			StatusCode: resp.StatusCode,
			Code:       eb.Code,
			Message:    msg,
			Fields:     eb.Fields,
		}
	}
}
