package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestClaim_Get_MarkDone(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "idempotency-table", 48*time.Hour)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	key := "s1#2025-06-01T08:59:00Z"

	claimed, err := s.Claim(ctx, key, "s1")
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if !claimed {
		t.Fatalf("expected claimed=true")
	}

	// second claim while the first is in flight is refused
	claimed2, err := s.Claim(ctx, key, "s1")
	if err != nil {
		t.Fatalf("second Claim error: %v", err)
	}
	if claimed2 {
		t.Fatalf("expected claimed=false on duplicate claim")
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.Status != StatusInProgress || rec.SessionID != "s1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ExpiresAt != now.Add(48*time.Hour).Unix() {
		t.Fatalf("expires_at = %d", rec.ExpiresAt)
	}

	if err := s.MarkDone(ctx, key, "s1", "row-7"); err != nil {
		t.Fatalf("MarkDone error: %v", err)
	}
	item := mock.table[key]
	if st, ok := item["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusDone {
		t.Fatalf("status not updated to DONE, got %+v", item["status"])
	}
	if row, ok := item["row_id"].(*types.AttributeValueMemberS); !ok || row.Value != "row-7" {
		t.Fatalf("row_id not set correctly: %+v", item["row_id"])
	}

	// a finished key stays claimed, even long after any lease
	s.nowFunc = func() time.Time { return now.Add(time.Hour) }
	claimed3, err := s.Claim(ctx, key, "s1")
	if err != nil || claimed3 {
		t.Fatalf("expected done key to refuse claims, got (%v, %v)", claimed3, err)
	}
}

func TestClaim_StaleLeaseIsTakenOver(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "idempotency-table", 0)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	if ok, err := s.Claim(ctx, "k", "s1"); err != nil || !ok {
		t.Fatalf("first Claim = (%v, %v)", ok, err)
	}

	s.nowFunc = func() time.Time { return now.Add(DefaultLease) }
	if ok, _ := s.Claim(ctx, "k", "s1"); ok {
		t.Fatalf("claim taken over while the lease is still held")
	}

	s.nowFunc = func() time.Time { return now.Add(DefaultLease + time.Second) }
	if ok, err := s.Claim(ctx, "k", "s1"); err != nil || !ok {
		t.Fatalf("expected stale claim to be taken over, got (%v, %v)", ok, err)
	}
}

func TestRelease_AllowsRetry(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "idempotency-table", time.Hour)
	ctx := context.Background()

	if ok, err := s.Claim(ctx, "k", "s1"); err != nil || !ok {
		t.Fatalf("Claim = (%v, %v)", ok, err)
	}
	if err := s.Release(ctx, "k"); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if rec, _ := s.Get(ctx, "k"); rec != nil {
		t.Fatalf("record still present after release: %+v", rec)
	}
	if ok, err := s.Claim(ctx, "k", "s1"); err != nil || !ok {
		t.Fatalf("expected re-claim after release, got (%v, %v)", ok, err)
	}
}

func TestClaim_ServiceError(t *testing.T) {
	mock := newSimpleMock()
	mock.failWith = &types.ProvisionedThroughputExceededException{Message: awsString("slow down")}
	s := NewStore(mock, "idempotency-table", time.Hour)

	ok, err := s.Claim(context.Background(), "k", "s1")
	if ok || err == nil {
		t.Fatalf("expected error, got (%v, %v)", ok, err)
	}
	var pte *types.ProvisionedThroughputExceededException
	if !errors.As(err, &pte) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
}
