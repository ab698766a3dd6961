// Package poller waits for a session's parsed results to show up in the store.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrTimeout is returned once every attempt came back without items.
var ErrTimeout = errors.New("no parsed results received")

// Stage of an ingest flow as shown to the user.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageUploading  Stage = "uploading"
	StageSending    Stage = "sending"
	StageProcessing Stage = "processing"
	StageComplete   Stage = "complete"
)

const (
	DefaultInitialDelay = 5 * time.Second
	DefaultInterval     = 5 * time.Second
	DefaultMaxAttempts  = 60
)

// Fetcher reads the stored results for a session. Any error, including "not found",
// is treated as not ready yet.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID string) ([]json.RawMessage, error)
}

type Config struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

func (c Config) withDefaults() Config {
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Attempt describes one fetch.
type Attempt struct {
	N     int
	Items int
	Err   error
}

type Poller struct {
	fetcher   Fetcher
	cfg       Config
	logger    *zap.Logger
	OnAttempt func(Attempt)
	OnStage   func(Stage)

	mu    sync.Mutex
	stage Stage
}

func New(f Fetcher, cfg Config, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{fetcher: f, cfg: cfg.withDefaults(), logger: logger, stage: StageIdle}
}

func (p *Poller) Config() Config { return p.cfg }

// Stage reports the current stage.
func (p *Poller) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// SetStage moves the flow to s and fires OnStage.
func (p *Poller) SetStage(s Stage) {
	p.mu.Lock()
	p.stage = s
	hook := p.OnStage
	p.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// Run waits InitialDelay, then fetches every Interval until a non-empty item list
// arrives, MaxAttempts fetches have been made, or ctx is done. No request is issued
// after Run returns.
func (p *Poller) Run(ctx context.Context, sessionID string) ([]json.RawMessage, error) {
	p.SetStage(StageProcessing)

	timer := time.NewTimer(p.cfg.InitialDelay)
	defer timer.Stop()

	for n := 1; n <= p.cfg.MaxAttempts; n++ {
		select {
		case <-ctx.Done():
			p.SetStage(StageIdle)
			return nil, ctx.Err()
		case <-timer.C:
		}

		items, err := p.fetcher.Fetch(ctx, sessionID)
		if p.OnAttempt != nil {
			p.OnAttempt(Attempt{N: n, Items: len(items), Err: err})
		}
		if ctx.Err() != nil {
			p.SetStage(StageIdle)
			return nil, ctx.Err()
		}
		if err == nil && len(items) > 0 {
			p.logger.Info("parsed results received",
				zap.String("session_id", sessionID),
				zap.Int("attempt", n),
				zap.Int("items_count", len(items)))
			p.SetStage(StageComplete)
			return items, nil
		}
		p.logger.Debug("results not ready",
			zap.String("session_id", sessionID),
			zap.Int("attempt", n),
			zap.Int("max_attempts", p.cfg.MaxAttempts),
			zap.Error(err))

		if n < p.cfg.MaxAttempts {
			timer.Reset(p.cfg.Interval)
		}
	}

	p.logger.Warn("polling timed out",
		zap.String("session_id", sessionID),
		zap.Int("attempts", p.cfg.MaxAttempts))
	p.SetStage(StageIdle)
	return nil, fmt.Errorf("%w after %d attempts", ErrTimeout, p.cfg.MaxAttempts)
}

// Task is a Run executing in its own goroutine.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	items  []json.RawMessage
	err    error
}

// Start runs Run in a goroutine.
func (p *Poller) Start(ctx context.Context, sessionID string) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		t.items, t.err = p.Run(ctx, sessionID)
	}()
	return t
}

// Cancel stops the task; it is safe to call more than once.
func (t *Task) Cancel() { t.cancel() }

func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its outcome.
func (t *Task) Wait() ([]json.RawMessage, error) {
	<-t.done
	return t.items, t.err
}
