package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
)

// Publisher the part of the MQTT client the notifier needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier publishes alerts as JSON to an MQTT topic
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	qos       byte
	logger    *zap.Logger
	now       func() time.Time
}

// NewMQTTNotifier creates a notifier publishing to topic
func NewMQTTNotifier(publisher Publisher, topic string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{publisher: publisher, topic: topic, qos: qos, logger: logger, now: time.Now}
}

// Notify implements Notifier
func (n *MQTTNotifier) Notify(ctx context.Context, result *models.AnalysisResult) error {
	alert, ok := NewAlert(result, n.now())
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := n.publisher.Publish(n.topic, n.qos, false, payload); err != nil {
		return err
	}

	n.logger.Info("Published heart-rate alert",
		zap.String("topic", n.topic),
		zap.String("record_id", alert.RecordID),
		zap.String("classification", string(alert.Classification)),
	)
	return nil
}
