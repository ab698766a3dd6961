// Package forwarder submits uploaded documents to the external automation webhook,
// one request per file, tagged with the caller's session id.
package forwarder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/rental-dispatch/internal/metrics"
)

const (
	ModeJSON      = "json"
	ModeMultipart = "multipart"

	defaultConcurrency = 4
	defaultTimeout     = 30 * time.Second
	maxErrorBody       = 1024
)

// File is one uploaded document. It lives only for the duration of a request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Payload is the JSON body posted to the webhook for a file.
type Payload struct {
	Filename   string `json:"filename"`
	Filetype   string `json:"filetype"`
	Filesize   int    `json:"filesize"`
	FileData   string `json:"file_data"`
	UploadedAt string `json:"uploaded_at"`
	SessionID  string `json:"session_id"`
}

// Result is a file the webhook accepted.
type Result struct {
	Filename        string      `json:"filename"`
	Success         bool        `json:"success"`
	WebhookResponse interface{} `json:"webhook_response"`
}

// FileError is a file the webhook rejected or that could not be sent.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Report aggregates per-file outcomes. Success is false if any file failed;
// accepted files are never rolled back.
type Report struct {
	Success   bool        `json:"success"`
	SessionID string      `json:"session_id"`
	Results   []Result    `json:"results"`
	Errors    []FileError `json:"errors,omitempty"`
}

// Forwarder posts files to a fixed webhook URL.
type Forwarder struct {
	url         string
	mode        string
	concurrency int
	client      *http.Client
	logger      *zap.Logger
	nowFunc     func() time.Time
}

type Option func(*Forwarder)

func WithMode(mode string) Option {
	return func(f *Forwarder) {
		if mode != "" {
			f.mode = mode
		}
	}
}

func WithConcurrency(n int) Option {
	return func(f *Forwarder) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) {
		if c != nil {
			f.client = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Forwarder) {
		if l != nil {
			f.logger = l
		}
	}
}

func New(url string, opts ...Option) *Forwarder {
	f := &Forwarder{
		url:         url,
		mode:        ModeJSON,
		concurrency: defaultConcurrency,
		client:      &http.Client{Timeout: defaultTimeout},
		logger:      zap.NewNop(),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward sends every file and reports per-file outcomes in input order.
// A cancelled ctx fails the files that have not been sent yet.
func (f *Forwarder) Forward(ctx context.Context, sessionID string, files []File) Report {
	type outcome struct {
		result *Result
		err    *FileError
	}
	outcomes := make([]outcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			resp, err := f.send(gctx, sessionID, file)
			if err != nil {
				f.logger.Warn("webhook rejected file",
					zap.String("session_id", sessionID),
					zap.String("filename", file.Name),
					zap.Error(err))
				metrics.FilesForwardedTotal.WithLabelValues("failed").Inc()
				outcomes[i].err = &FileError{Filename: file.Name, Error: err.Error()}
				// per-file failures must not cancel the siblings
				return nil
			}
			f.logger.Info("file sent to webhook",
				zap.String("session_id", sessionID),
				zap.String("filename", file.Name),
				zap.Int("filesize", len(file.Data)))
			metrics.FilesForwardedTotal.WithLabelValues("sent").Inc()
			outcomes[i].result = &Result{Filename: file.Name, Success: true, WebhookResponse: resp}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{SessionID: sessionID, Results: []Result{}}
	for _, o := range outcomes {
		if o.err != nil {
			report.Errors = append(report.Errors, *o.err)
			continue
		}
		report.Results = append(report.Results, *o.result)
	}
	report.Success = len(report.Errors) == 0
	return report
}

func (f *Forwarder) send(ctx context.Context, sessionID string, file File) (interface{}, error) {
	payload := Payload{
		Filename:   file.Name,
		Filetype:   file.ContentType,
		Filesize:   len(file.Data),
		FileData:   base64.StdEncoding.EncodeToString(file.Data),
		UploadedAt: f.nowFunc().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		SessionID:  sessionID,
	}

	body, contentType, err := f.encode(payload, file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("webhook returned %d: %s", resp.StatusCode, text)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// the automation usually answers with a bare acknowledgement
		return map[string]interface{}{"status": "success"}, nil
	}
	return decoded, nil
}

func (f *Forwarder) encode(p Payload, file File) (io.Reader, string, error) {
	if f.mode != ModeMultipart {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, "", fmt.Errorf("marshal payload: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"filename", p.Filename},
		{"filetype", p.Filetype},
		{"filesize", strconv.Itoa(p.Filesize)},
		{"file_data", p.FileData},
		{"uploaded_at", p.UploadedAt},
		{"session_id", p.SessionID},
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
