package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"rsvp-workers/internal/models"
)

// DeliveryLog records every relay attempt.
type DeliveryLog interface {
	Record(ctx context.Context, d models.Delivery) error
}

// ESDeliveryLog indexes deliveries into Elasticsearch, one document per attempt.
type ESDeliveryLog struct {
	client *elasticsearch.Client
	index  string
}

func NewESDeliveryLog(client *elasticsearch.Client, index string) *ESDeliveryLog {
	return &ESDeliveryLog{client: client, index: index}
}

func (l *ESDeliveryLog) Record(ctx context.Context, d models.Delivery) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	res, err := l.client.Index(
		l.index,
		bytes.NewReader(data),
		l.client.Index.WithDocumentID(d.ID),
		l.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index delivery: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index delivery: %s", res.Status())
	}
	return nil
}

// NopDeliveryLog discards records. Used when no cluster is configured.
type NopDeliveryLog struct{}

func (NopDeliveryLog) Record(context.Context, models.Delivery) error { return nil }
