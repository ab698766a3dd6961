// Package client talks to the dispatch API the way the dashboard does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/imrishuroy/rental-dispatch/internal/dashboard"
	"github.com/imrishuroy/rental-dispatch/internal/forwarder"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Results is a stored result set.
type Results struct {
	Items      []json.RawMessage `json:"items"`
	ReceivedAt time.Time         `json:"received_at"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SendFiles uploads files for forwarding. A report with failed files is returned
// together with a nil error; the caller decides what partial failure means.
func (c *Client) SendFiles(ctx context.Context, sessionID string, files []forwarder.File) (*forwarder.Report, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write part %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/send-to-webhook", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Session-ID", sessionID)

	var report forwarder.Report
	if err := c.do(req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetResults reads the stored result set for a session.
func (c *Client) GetResults(ctx context.Context, sessionID string) (*Results, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resultsURL(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var res Results
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Fetch returns the stored items; it lets the client drive a poller.
func (c *Client) Fetch(ctx context.Context, sessionID string) ([]json.RawMessage, error) {
	res, err := c.GetResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ClearResults deletes the stored result set for a session.
func (c *Client) ClearResults(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.resultsURL(sessionID), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, nil)
}

// ListRows reads a catalog collection: "vehicles", "inventory" or "venues".
func (c *Client) ListRows(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/"+url.PathEscape(collection), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var out struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (c *Client) Schedule(ctx context.Context) (*dashboard.Schedule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/schedule", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var out dashboard.Schedule
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Analysis(ctx context.Context) (*dashboard.Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/analysis", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var out dashboard.Analysis
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) resultsURL(sessionID string) string {
	return c.baseURL + "/api/receive-parsed-orders?session_id=" + url.QueryEscape(sessionID)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
