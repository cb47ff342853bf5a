package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/analysis"
	"github.com/floudata/pucp-time-series/internal/catalog"
	"github.com/floudata/pucp-time-series/internal/config"
	"github.com/floudata/pucp-time-series/internal/database"
	"github.com/floudata/pucp-time-series/internal/mqtt"
	"github.com/floudata/pucp-time-series/internal/notify"
	"github.com/floudata/pucp-time-series/internal/record"
	"github.com/floudata/pucp-time-series/internal/redis"
	"github.com/floudata/pucp-time-series/internal/service"
)

// App the wired object graph shared by ecg-viewer and ecg-analyze
type App struct {
	Records  *catalog.RecordCatalog
	Store    *record.Store
	Analyzer *service.Analyzer

	db          *sql.DB
	redisClient *goredis.Client
	mqttClient  *mqtt.Client
	logger      *zap.Logger
}

// New builds the application from cfg. Optional backends (Redis, Postgres, MQTT) are only
// connected when the configuration asks for them.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	if err := a.build(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config) error {
	if cfg.Redis.Enabled {
		client, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		a.redisClient = client
	}

	records, err := loadRecordCatalog(cfg.Data.RecordsCSV, a.logger)
	if err != nil {
		return err
	}
	a.Records = records

	var opts []record.StoreOption
	if cfg.Fetch.Enabled {
		opts = append(opts, record.WithFetcher(
			record.NewPhysioNetFetcher(cfg.Fetch.BaseURL, cfg.Fetch.Timeout, cfg.Fetch.Retries, a.logger)))
		if a.redisClient != nil {
			opts = append(opts, record.WithLocker(record.NewRedisLocker(a.redisClient, 0, a.logger), cfg.Fetch.LockTTL))
		}
	}
	a.Store = record.NewStore(cfg.Data.Dir, a.logger, opts...)

	diagnoses, err := a.diagnosisCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	notifier, err := a.notifier(cfg)
	if err != nil {
		return err
	}

	a.Analyzer = service.NewAnalyzer(a.Store, diagnoses, newPipeline(cfg, a.logger), notifier, a.logger)
	return nil
}

func newPipeline(cfg *config.Config, logger *zap.Logger) *analysis.Pipeline {
	cleanerCfg := analysis.DefaultCleanerConfig()
	cleanerCfg.PowerlineHz = cfg.Analysis.PowerlineHz

	detectorCfg := analysis.DefaultDetectorConfig()
	detectorCfg.MaxHeartRate = cfg.Analysis.MaxHeartRate

	band := analysis.RangeBand{Low: cfg.Analysis.BradyBPM, High: cfg.Analysis.TachyBPM}
	return analysis.NewPipeline(analysis.NewCleaner(cleanerCfg), analysis.NewDetector(detectorCfg), band, logger)
}

// loadRecordCatalog a missing records file leaves the catalog empty
func loadRecordCatalog(path string, logger *zap.Logger) (*catalog.RecordCatalog, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("Record catalog not found, record numbers will not resolve", zap.String("path", path))
		return nil, nil
	}
	return catalog.LoadRecordCatalog(path)
}

func (a *App) diagnosisCatalog(ctx context.Context, cfg *config.Config) (catalog.DiagnosisCatalog, error) {
	switch cfg.DiagnosisSource {
	case config.DiagnosisSourcePostgres:
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		return catalog.NewPostgresDiagnosisCatalog(db, a.logger), nil
	default:
		c, err := catalog.LoadDiagnosisCSV(cfg.Data.SnomedCSV)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Loaded diagnosis catalog", zap.Int("codes", c.Len()))
		return c, nil
	}
}

func (a *App) notifier(cfg *config.Config) (notify.Notifier, error) {
	switch cfg.Alerts.Mode {
	case config.AlertsRedis:
		if a.redisClient == nil {
			return nil, fmt.Errorf("redis alerts require a redis connection")
		}
		return notify.NewRedisStreamNotifier(a.redisClient, cfg.Alerts.Stream, a.logger), nil
	case config.AlertsMQTT:
		client, err := mqtt.NewClient(&cfg.MQTT, a.logger)
		if err != nil {
			return nil, err
		}
		a.mqttClient = client
		return notify.NewMQTTNotifier(client, cfg.MQTT.Topic, cfg.MQTT.QoS, a.logger), nil
	default:
		return notify.NopNotifier{}, nil
	}
}

// Close releases every backend connection
func (a *App) Close() {
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
