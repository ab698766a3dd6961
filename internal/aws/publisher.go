package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ResultsNotice is the payload sent from API -> SQS -> worker once a session's
// parsed results land in the store.
type ResultsNotice struct {
	SessionID  string    `json:"session_id"`
	ItemsCount int       `json:"items_count"`
	ReceivedAt time.Time `json:"received_at"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// NotifyReceived enqueues a ResultsNotice. The session id and count are mirrored
// into message attributes so queue consumers can filter without decoding the body.
func (p *Publisher) NotifyReceived(ctx context.Context, sessionID string, itemsCount int, receivedAt time.Time) error {
	body, err := json.Marshal(ResultsNotice{
		SessionID:  sessionID,
		ItemsCount: itemsCount,
		ReceivedAt: receivedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	return p.send(ctx, string(body), map[string]string{
		"session_id":  sessionID,
		"items_count": strconv.Itoa(itemsCount),
	})
}

func (p *Publisher) send(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			// using string type for all attrs
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: awsString(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
