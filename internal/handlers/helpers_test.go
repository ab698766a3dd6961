package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/catalog"
	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/forwarder"
	"github.com/imrishuroy/rental-dispatch/internal/results"
)

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
	counts  []int
	err     error
}

func (n *fakeNotifier) NotifyReceived(_ context.Context, sessionID string, itemsCount int, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, sessionID)
	n.counts = append(n.counts, itemsCount)
	return n.err
}

type fakeArchiver struct {
	sessionID string
	items     []json.RawMessage
	err       error
}

func (a *fakeArchiver) Insert(_ context.Context, sessionID string, items []json.RawMessage) (*catalog.ArchivedOrders, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.sessionID, a.items = sessionID, items
	return &catalog.ArchivedOrders{ID: "1", SessionID: sessionID, Items: len(items)}, nil
}

type fakeForwarder struct {
	sessionID string
	files     []forwarder.File
}

func (f *fakeForwarder) Forward(_ context.Context, sessionID string, files []forwarder.File) forwarder.Report {
	f.sessionID, f.files = sessionID, files
	report := forwarder.Report{Success: true, SessionID: sessionID}
	for _, file := range files {
		report.Results = append(report.Results, forwarder.Result{Filename: file.Name, Success: true, WebhookResponse: map[string]interface{}{"status": "success"}})
	}
	return report
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	router    *gin.Engine
	store     *results.MemoryStore
	clock     *testClock
	notifier  *fakeNotifier
	archive   *fakeArchiver
	forwarder *fakeForwarder
}

func newTestEnv(t *testing.T, mutate func(*HandlerConfig)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		clock:     &testClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		notifier:  &fakeNotifier{},
		archive:   &fakeArchiver{},
		forwarder: &fakeForwarder{},
	}
	env.store = results.NewMemoryStoreWithClock(time.Hour, env.clock.Now)

	cfg := HandlerConfig{
		Store:     env.store,
		Forwarder: env.forwarder,
		Notifier:  env.notifier,
		Catalog:   catalog.NewRepository(db.Unconfigured{}),
		Archive:   env.archive,
		Logger:    zap.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	RegisterRoutes(r, cfg)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

var _ http.Handler = (*gin.Engine)(nil)
