package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
	redisx "github.com/floudata/pucp-time-series/internal/redis"
)

// streamMaxLen approximate cap on the alert stream
const streamMaxLen = 10000

// RedisStreamNotifier appends alerts to a Redis stream
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisStreamNotifier creates a notifier writing to stream
func NewRedisStreamNotifier(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamNotifier {
	return &RedisStreamNotifier{client: client, stream: stream, logger: logger, now: time.Now}
}

// Notify implements Notifier
func (n *RedisStreamNotifier) Notify(ctx context.Context, result *models.AnalysisResult) error {
	alert, ok := NewAlert(result, n.now())
	if !ok {
		return nil
	}

	id, err := redisx.PublishToStream(ctx, n.client, n.stream, streamMaxLen, map[string]interface{}{
		"request_id":      alert.RequestID,
		"record_id":       alert.RecordID,
		"lead_index":      alert.LeadIndex,
		"lead_name":       alert.LeadName,
		"classification":  string(alert.Classification),
		"mean_heart_rate": alert.MeanHeartRate,
		"min_heart_rate":  alert.MinHeartRate,
		"max_heart_rate":  alert.MaxHeartRate,
		"beat_count":      alert.BeatCount,
		"timestamp":       alert.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", n.stream, err)
	}

	n.logger.Info("Published heart-rate alert",
		zap.String("stream", n.stream),
		zap.String("message_id", id),
		zap.String("record_id", alert.RecordID),
		zap.String("classification", string(alert.Classification)),
	)
	return nil
}
