package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/rental-dispatch/internal/aws"
)

// CloudWatchPublisher emits count metrics into one namespace.
type CloudWatchPublisher struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

func NewCloudWatchPublisher(client aws.CloudWatchAPI, namespace string) *CloudWatchPublisher {
	return &CloudWatchPublisher{client: client, namespace: namespace, nowFunc: time.Now}
}

// Count publishes a single Count datum. dims are name/value pairs.
func (p *CloudWatchPublisher) Count(ctx context.Context, name string, value float64, dims map[string]string) error {
	datum := cwtypes.MetricDatum{
		MetricName: &name,
		Value:      &value,
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  timePtr(p.nowFunc().UTC()),
	}
	for k, v := range dims {
		k, v := k, v
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{Name: &k, Value: &v})
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &p.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }
