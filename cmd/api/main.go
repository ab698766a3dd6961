package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/aws"
	"github.com/imrishuroy/rental-dispatch/internal/catalog"
	"github.com/imrishuroy/rental-dispatch/internal/config"
	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/forwarder"
	"github.com/imrishuroy/rental-dispatch/internal/handlers"
	"github.com/imrishuroy/rental-dispatch/internal/logger"
	"github.com/imrishuroy/rental-dispatch/internal/results"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(cfg.Logger))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, cfg)

	return r
}

// buildHandlerConfig wires the stores and backends named by cfg. The returned
// cleanup releases the database pool, if one was opened.
func buildHandlerConfig(ctx context.Context, cfg config.Config, log *zap.Logger) (handlers.HandlerConfig, func(), error) {
	hc := handlers.HandlerConfig{
		Logger:         log,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Forwarder: forwarder.New(cfg.WebhookURL,
			forwarder.WithMode(cfg.ForwardMode),
			forwarder.WithConcurrency(cfg.ForwardConcurrency),
			forwarder.WithTimeout(cfg.WebhookTimeout),
			forwarder.WithLogger(log),
		),
	}
	cleanup := func() {}

	var clients *aws.AWSClients
	if cfg.ResultsStore == config.StoreDynamoDB || cfg.ResultsQueueURL != "" {
		var err error
		clients, err = aws.NewAWSClients(ctx)
		if err != nil {
			return hc, cleanup, fmt.Errorf("init aws clients: %w", err)
		}
	}

	switch cfg.ResultsStore {
	case config.StoreDynamoDB:
		hc.Store = results.NewDynamoStore(clients.DynamoDB, cfg.ResultsTable, cfg.ResultsTTL)
	default:
		hc.Store = results.NewMemoryStore(cfg.ResultsTTL)
	}
	log.Info("results store ready",
		zap.String("store", cfg.ResultsStore),
		zap.Duration("ttl", cfg.ResultsTTL))

	if cfg.ResultsQueueURL != "" {
		hc.Notifier = aws.NewPublisher(clients.SQS, cfg.ResultsQueueURL)
	}

	var database db.DB = db.Unconfigured{}
	if cfg.BackendConfigured() {
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return hc, cleanup, err
		}
		database = conn
		cleanup = conn.Close
	} else {
		log.Warn("DATABASE_URL is not set; catalog and archive routes will answer 503")
	}
	hc.Catalog = catalog.NewRepository(database)
	hc.Archive = catalog.NewParsedOrderRepo(database)

	return hc, cleanup, nil
}

func main() {
	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	hc, cleanup, err := buildHandlerConfig(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to init dependencies", zap.Error(err))
	}
	defer cleanup()

	r := setupRouter(hc)

	if cfg.RunLocal {
		addr := ":" + cfg.Port
		log.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			log.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
