package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/aws"
	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/orders"
)

// Processor archives result sets announced on the results queue and reports how many
// order lines they carried.
type Processor struct {
	store   ResultsReader
	claims  Claimer
	archive Archiver
	metrics Counter
	logger  *zap.Logger
}

func NewProcessor(store ResultsReader, claims Claimer, archive Archiver, metrics Counter, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: store, claims: claims, archive: archive, metrics: metrics, logger: logger}
}

// noticeKey identifies one received result set: a session re-posted later gets a new
// received_at and so a new key.
func noticeKey(n aws.ResultsNotice) string {
	return n.SessionID + "#" + n.ReceivedAt.UTC().Format(time.RFC3339Nano)
}

// Handle processes an SQS batch. Failed messages are reported individually so only
// they are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("worker error",
				zap.String("message_id", rec.MessageId),
				zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var notice aws.ResultsNotice
	if err := json.Unmarshal([]byte(rec.Body), &notice); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if notice.SessionID == "" {
		return errors.New("invalid message body: session_id is empty")
	}
	log := p.logger.With(zap.String("session_id", notice.SessionID))

	entry, err := p.store.Get(ctx, notice.SessionID)
	if err != nil {
		return fmt.Errorf("failed to fetch results: %w", err)
	}
	if entry == nil {
		// Collected and cleared by the client, or expired.
		log.Info("results no longer stored, skipping")
		return nil
	}
	if !notice.ReceivedAt.IsZero() && entry.ReceivedAt.After(notice.ReceivedAt) {
		// A later callback replaced this set; its own notice archives it.
		log.Info("results superseded, skipping",
			zap.Time("notice_received_at", notice.ReceivedAt),
			zap.Time("stored_received_at", entry.ReceivedAt))
		return nil
	}

	key := noticeKey(notice)
	if p.claims != nil {
		claimed, err := p.claims.Claim(ctx, key, notice.SessionID)
		if err != nil {
			return fmt.Errorf("failed to claim notice: %w", err)
		}
		if !claimed {
			log.Info("duplicate notice, already handled", zap.String("idempotency_key", key))
			return nil
		}
	}

	lines, skipped := orders.Lines(entry.Items)
	log.Info("processing results",
		zap.Int("items_count", len(entry.Items)),
		zap.Int("lines", len(lines)),
		zap.Int("unrecognised", skipped))

	archived := false
	rowID := ""
	if p.archive != nil {
		row, err := p.archive.Insert(ctx, notice.SessionID, entry.Items)
		switch {
		case errors.Is(err, db.ErrNotConfigured):
			log.Warn("backend not configured, results not archived")
		case err != nil:
			p.release(ctx, log, key)
			return fmt.Errorf("failed to archive results: %w", err)
		default:
			archived = true
			rowID = row.ID
			log.Info("results archived", zap.String("row_id", row.ID))
		}
	}
	if p.claims != nil {
		if err := p.claims.MarkDone(ctx, key, notice.SessionID, rowID); err != nil {
			log.Warn("failed to mark notice done", zap.String("idempotency_key", key), zap.Error(err))
		}
	}

	p.publish(ctx, log, MetricOrderLines, float64(len(lines)))
	if skipped > 0 {
		p.publish(ctx, log, MetricUnrecognised, float64(skipped))
	}
	if archived {
		p.publish(ctx, log, MetricArchivedSets, 1)
	}
	return nil
}

func (p *Processor) release(ctx context.Context, log *zap.Logger, key string) {
	if p.claims == nil {
		return
	}
	if err := p.claims.Release(ctx, key); err != nil {
		log.Warn("failed to release claim", zap.String("idempotency_key", key), zap.Error(err))
	}
}

// publish never fails the message; metrics are best effort.
func (p *Processor) publish(ctx context.Context, log *zap.Logger, name string, value float64) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.Count(ctx, name, value, nil); err != nil {
		log.Warn("failed to publish metric", zap.String("metric", name), zap.Error(err))
	}
}
