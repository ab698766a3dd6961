// Package handlers exposes the dashboard API over gin.
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/catalog"
	"github.com/imrishuroy/rental-dispatch/internal/forwarder"
	"github.com/imrishuroy/rental-dispatch/internal/results"
	"github.com/imrishuroy/rental-dispatch/internal/validation"
)

const defaultMaxUploadBytes = 32 << 20

// Forwarder submits uploaded files to the automation webhook.
type Forwarder interface {
	Forward(ctx context.Context, sessionID string, files []forwarder.File) forwarder.Report
}

// Notifier is told when a non-empty result set lands in the store.
type Notifier interface {
	NotifyReceived(ctx context.Context, sessionID string, itemsCount int, receivedAt time.Time) error
}

// CatalogRepository reads and writes dashboard tables.
type CatalogRepository interface {
	List(ctx context.Context, t catalog.Table) ([]catalog.Row, error)
	Insert(ctx context.Context, t catalog.Table, row catalog.Row) (catalog.Row, error)
	Update(ctx context.Context, t catalog.Table, id string, row catalog.Row) (catalog.Row, error)
}

// Archiver persists a result set to the parsed_orders table.
type Archiver interface {
	Insert(ctx context.Context, sessionID string, items []json.RawMessage) (*catalog.ArchivedOrders, error)
}

// HandlerConfig groups dependencies for the API routes. Notifier may be nil.
type HandlerConfig struct {
	Store          results.Store
	Forwarder      Forwarder
	Notifier       Notifier
	Catalog        CatalogRepository
	Archive        Archiver
	Validator      *validatorv10.Validate
	Logger         *zap.Logger
	MaxUploadBytes int64
}

func (cfg HandlerConfig) withDefaults() HandlerConfig {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return cfg
}

// RegisterRoutes registers every /api route.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	cfg = cfg.withDefaults()
	api := r.Group("/api")

	RegisterResultsRoutes(api, cfg)
	RegisterWebhookRoutes(api, cfg)
	RegisterCatalogRoutes(api, cfg)
	RegisterDashboardRoutes(api)
}
