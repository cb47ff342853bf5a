package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func result(class models.Classification, mean *float64) *models.AnalysisResult {
	return &models.AnalysisResult{
		RequestID:      "req-1",
		RecordID:       "WFDBRecords/01/010/JS00001",
		LeadIndex:      1,
		LeadName:       "II",
		Beats:          []int{100, 700, 1300},
		MeanHeartRate:  mean,
		Classification: class,
		Summary:        models.RateSummary{MinHeartRate: 40, MaxHeartRate: 44},
	}
}

func ptr(v float64) *float64 { return &v }

func TestNewAlert(t *testing.T) {
	alert, ok := NewAlert(result(models.ClassificationBradycardia, ptr(42)), fixedNow)
	require.True(t, ok)
	assert.Equal(t, Alert{
		RequestID:      "req-1",
		RecordID:       "WFDBRecords/01/010/JS00001",
		LeadIndex:      1,
		LeadName:       "II",
		Classification: models.ClassificationBradycardia,
		MeanHeartRate:  42,
		MinHeartRate:   40,
		MaxHeartRate:   44,
		BeatCount:      3,
		Timestamp:      fixedNow.Unix(),
	}, alert)

	for _, r := range []*models.AnalysisResult{
		nil,
		result(models.ClassificationNormal, ptr(70)),
		result(models.ClassificationUndetermined, nil),
	} {
		_, ok := NewAlert(r, fixedNow)
		assert.False(t, ok)
	}
}

func TestRedisStreamNotifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	n := NewRedisStreamNotifier(client, "ecg:alerts", zap.NewNop())
	n.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, result(models.ClassificationTachycardia, ptr(123.5))))
	require.NoError(t, n.Notify(ctx, result(models.ClassificationNormal, ptr(72))))

	msgs, err := client.XRange(ctx, "ecg:alerts", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1, "normal results are not published")
	assert.Equal(t, "TACHYCARDIA", msgs[0].Values["classification"])
	assert.Equal(t, "123.5", msgs[0].Values["mean_heart_rate"])
	assert.Equal(t, "req-1", msgs[0].Values["request_id"])
	assert.Equal(t, "3", msgs[0].Values["beat_count"])
}

func TestRedisStreamNotifier_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	n := NewRedisStreamNotifier(client, "ecg:alerts", zap.NewNop())
	err := n.Notify(context.Background(), result(models.ClassificationBradycardia, ptr(40)))
	assert.Error(t, err)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	args := m.Called(topic, qos, retained, payload)
	return args.Error(0)
}

func TestMQTTNotifier(t *testing.T) {
	pub := new(MockPublisher)
	n := NewMQTTNotifier(pub, "ecg/alerts", 1, zap.NewNop())
	n.now = func() time.Time { return fixedNow }

	pub.On("Publish", "ecg/alerts", byte(1), false, mock.MatchedBy(func(payload []byte) bool {
		var alert Alert
		if err := json.Unmarshal(payload, &alert); err != nil {
			return false
		}
		return alert.Classification == models.ClassificationBradycardia && alert.MeanHeartRate == 42
	})).Return(nil).Once()

	require.NoError(t, n.Notify(context.Background(), result(models.ClassificationBradycardia, ptr(42))))
	require.NoError(t, n.Notify(context.Background(), result(models.ClassificationUndetermined, nil)))
	pub.AssertExpectations(t)
}

func TestMQTTNotifier_PublishError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("not connected"))
	n := NewMQTTNotifier(pub, "ecg/alerts", 0, zap.NewNop())

	err := n.Notify(context.Background(), result(models.ClassificationTachycardia, ptr(130)))
	assert.ErrorContains(t, err, "not connected")
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), result(models.ClassificationTachycardia, ptr(130))))
}
