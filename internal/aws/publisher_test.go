package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestNotifyReceived(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/queue")

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := p.NotifyReceived(context.Background(), "session-1", 3, at); err != nil {
		t.Fatalf("NotifyReceived error: %v", err)
	}
	if len(mock.inputs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.inputs))
	}
	in := mock.inputs[0]
	if *in.QueueUrl != "https://sqs.local/queue" {
		t.Fatalf("queue url mismatch: %s", *in.QueueUrl)
	}

	var notice ResultsNotice
	if err := json.Unmarshal([]byte(*in.MessageBody), &notice); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if notice.SessionID != "session-1" || notice.ItemsCount != 3 || !notice.ReceivedAt.Equal(at) {
		t.Fatalf("unexpected notice: %+v", notice)
	}
	if v := in.MessageAttributes["items_count"].StringValue; v == nil || *v != "3" {
		t.Fatalf("items_count attribute missing: %+v", in.MessageAttributes)
	}
	if v := in.MessageAttributes["session_id"].StringValue; v == nil || *v != "session-1" {
		t.Fatalf("session_id attribute missing: %+v", in.MessageAttributes)
	}
}

func TestNotifyReceived_SendError(t *testing.T) {
	mock := &mockSQS{err: errors.New("throttled")}
	p := NewPublisher(mock, "q")

	err := p.NotifyReceived(context.Background(), "s", 1, time.Now())
	if err == nil || !errors.Is(err, mock.err) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
