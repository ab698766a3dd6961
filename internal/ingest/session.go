// Package ingest drives one upload-and-wait flow: read documents, send them for
// parsing, poll until the parsed orders come back.
package ingest

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/forwarder"
	"github.com/imrishuroy/rental-dispatch/internal/poller"
)

// API is the part of the dispatch API an ingest session needs.
type API interface {
	SendFiles(ctx context.Context, sessionID string, files []forwarder.File) (*forwarder.Report, error)
	Fetch(ctx context.Context, sessionID string) ([]json.RawMessage, error)
	ClearResults(ctx context.Context, sessionID string) error
}

// NewSessionID returns "session-<unix ms>-<9 lowercase alphanumerics>".
func NewSessionID() string {
	return newSessionID(time.Now())
}

func newSessionID(now time.Time) string {
	u := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	for len(suffix) < 9 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("session-%d-%s", now.UnixMilli(), suffix[:9])
}

type Session struct {
	ID     string
	api    API
	poller *poller.Poller
	logger *zap.Logger
}

func NewSession(id string, api API, cfg poller.Config, logger *zap.Logger) *Session {
	if id == "" {
		id = NewSessionID()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ID:     id,
		api:    api,
		poller: poller.New(api, cfg, logger),
		logger: logger,
	}
}

// Poller exposes the stage tracker so callers can hook progress output.
func (s *Session) Poller() *poller.Poller { return s.poller }

// Run reads paths, sends them, and waits for parsed orders. Any file the webhook
// rejects aborts the flow before polling. Failures leave the stage at idle.
func (s *Session) Run(ctx context.Context, paths []string) ([]json.RawMessage, error) {
	s.poller.SetStage(poller.StageUploading)
	files, err := ReadFiles(paths)
	if err != nil {
		s.poller.SetStage(poller.StageIdle)
		return nil, err
	}

	s.poller.SetStage(poller.StageSending)
	report, err := s.api.SendFiles(ctx, s.ID, files)
	if err != nil {
		s.poller.SetStage(poller.StageIdle)
		return nil, fmt.Errorf("send files to webhook: %w", err)
	}
	if !report.Success {
		s.poller.SetStage(poller.StageIdle)
		names := make([]string, 0, len(report.Errors))
		for _, e := range report.Errors {
			names = append(names, e.Filename)
		}
		return nil, fmt.Errorf("failed to send some files: %s", strings.Join(names, ", "))
	}
	s.logger.Info("files sent, waiting for parsed orders",
		zap.String("session_id", s.ID),
		zap.Int("files", len(files)))

	return s.poller.Run(ctx, s.ID)
}

// Clear removes the session's stored results once they have been reviewed.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.api.ClearResults(ctx, s.ID); err != nil {
		return fmt.Errorf("clear parsed orders: %w", err)
	}
	return nil
}

// ReadFiles loads documents from disk, guessing their content type from the extension.
func ReadFiles(paths []string) ([]forwarder.File, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files provided")
	}
	files := make([]forwarder.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, forwarder.File{Name: filepath.Base(p), ContentType: ct, Data: data})
	}
	return files, nil
}
