package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/aws"
	"github.com/imrishuroy/rental-dispatch/internal/catalog"
	"github.com/imrishuroy/rental-dispatch/internal/config"
	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/idempotency"
	"github.com/imrishuroy/rental-dispatch/internal/logger"
	"github.com/imrishuroy/rental-dispatch/internal/metrics"
	"github.com/imrishuroy/rental-dispatch/internal/results"
)

func main() {
	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	if err := cfg.WorkerConfigured(); err != nil {
		log.Fatal("invalid worker config", zap.Error(err))
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	store := results.NewDynamoStore(clients.DynamoDB, cfg.ResultsTable, cfg.ResultsTTL)
	claims := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)

	var database db.DB = db.Unconfigured{}
	if cfg.BackendConfigured() {
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to backend", zap.Error(err))
		}
		defer conn.Close()
		database = conn
	}

	p := NewProcessor(
		store,
		claims,
		catalog.NewParsedOrderRepo(database),
		metrics.NewCloudWatchPublisher(clients.CloudWatch, cfg.MetricsNamespace),
		log,
	)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"session_id":"default","items_count":1}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: testBody}},
		}
		resp, err := p.Handle(ctx, event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			log.Fatal("local handler error", zap.Error(err), zap.Int("failures", len(resp.BatchItemFailures)))
		}
		return
	}

	lambda.Start(p.Handle)
}
