package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN lib/pq connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// MQTTConfig broker settings for the alert publisher
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// Diagnosis sources
const (
	DiagnosisSourceCSV      = "csv"
	DiagnosisSourcePostgres = "postgres"
)

// Alert modes
const (
	AlertsNone  = "none"
	AlertsRedis = "redis"
	AlertsMQTT  = "mqtt"
)

// Config ecg-viewer / ecg-analyze configuration
type Config struct {
	HTTP struct {
		Addr string
	}
	Data struct {
		Dir        string
		RecordsCSV string
		SnomedCSV  string
	}
	Fetch struct {
		Enabled bool
		BaseURL string
		Timeout time.Duration
		Retries int
		LockTTL time.Duration
	}
	DiagnosisSource string
	Database        DatabaseConfig
	Redis           RedisConfig
	Alerts          struct {
		Mode   string
		Stream string
	}
	MQTT     MQTTConfig
	Analysis struct {
		PowerlineHz  float64
		MaxHeartRate float64
		BradyBPM     float64
		TachyBPM     float64
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads .env (when present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Data.Dir = getEnv("DATA_DIR", "./ecg-arrhythmia-1.0.0")
	cfg.Data.RecordsCSV = getEnv("RECORDS_CSV", "./data/records.csv")
	cfg.Data.SnomedCSV = getEnv("SNOMED_CSV", "./data/SNOMED-CT.csv")

	cfg.Fetch.Enabled = getEnvBool("FETCH_ENABLED", true)
	cfg.Fetch.BaseURL = getEnv("PHYSIONET_BASE_URL", "https://physionet.org/files/ecg-arrhythmia/1.0.0")
	cfg.Fetch.Timeout = getEnvDuration("FETCH_TIMEOUT", 60*time.Second)
	cfg.Fetch.Retries = getEnvInt("FETCH_RETRIES", 3)
	cfg.Fetch.LockTTL = getEnvDuration("FETCH_LOCK_TTL", 2*time.Minute)

	cfg.DiagnosisSource = getEnv("DIAGNOSIS_SOURCE", DiagnosisSourceCSV)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "ecg")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 2)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Alerts.Mode = getEnv("ALERTS_MODE", AlertsNone)
	cfg.Alerts.Stream = getEnv("ALERTS_STREAM", "ecg:alerts")

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "ecg-viewer")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "ecg/alerts")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.Analysis.PowerlineHz = getEnvFloat("POWERLINE_HZ", 50)
	cfg.Analysis.MaxHeartRate = getEnvFloat("MAX_HEART_RATE", 250)
	cfg.Analysis.BradyBPM = getEnvFloat("BRADY_BPM", 60)
	cfg.Analysis.TachyBPM = getEnvFloat("TACHY_BPM", 100)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DiagnosisSource {
	case DiagnosisSourceCSV, DiagnosisSourcePostgres:
	default:
		return fmt.Errorf("invalid DIAGNOSIS_SOURCE %q", c.DiagnosisSource)
	}
	switch c.Alerts.Mode {
	case AlertsNone, AlertsMQTT:
	case AlertsRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("ALERTS_MODE=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("invalid ALERTS_MODE %q", c.Alerts.Mode)
	}
	if c.Analysis.BradyBPM >= c.Analysis.TachyBPM {
		return fmt.Errorf("BRADY_BPM (%v) must be below TACHY_BPM (%v)", c.Analysis.BradyBPM, c.Analysis.TachyBPM)
	}
	if c.Analysis.MaxHeartRate <= 0 {
		return fmt.Errorf("MAX_HEART_RATE must be positive")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid MQTT_QOS %d", c.MQTT.QoS)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}
