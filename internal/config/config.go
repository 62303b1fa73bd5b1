package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	SNSRegion      string
	SNSTopicARN    string   // empty disables SNS delivery; messages are logged instead
	AllowedOrigins []string // CORS allowed origins
	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	Notify  NotifyConfig
	Sink    SinkConfig
	Breaker BreakerConfig
	Archive ArchiveConfig
	Trigger TriggerConfig
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Events        string
	Profiles      string
	Notifications string
}

// NotifyConfig tunes the batch pass.
type NotifyConfig struct {
	HorizonDays       int
	Workers           int
	Timezone          string
	SinkTimeout       time.Duration
	DistrictTablePath string // optional YAML override of the built-in district table
}

// SinkConfig selects where composed messages go.
type SinkConfig struct {
	Kind         string // "sns", "kafka" or "log"; empty picks sns when SNS_TOPIC_ARN is set
	KafkaBrokers []string
	KafkaTopic   string
}

// BreakerConfig configures the circuit breaker around the sink.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// ArchiveConfig controls run summary archiving to S3.
type ArchiveConfig struct {
	Enabled bool
	Prefix  string
}

// TriggerConfig limits the HTTP run trigger.
type TriggerConfig struct {
	RatePerSecond float64
	Burst         int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "ap-southeast-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Events:        getEnv("DYNAMO_TABLE_EVENTS", "events"),
			Profiles:      getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
		},
		S3BucketName:   getEnv("S3_BUCKET_NAME", "event-notifier-runs"),
		SNSRegion:      getEnv("SNS_REGION", getEnv("AWS_REGION", "ap-southeast-1")),
		SNSTopicARN:    getEnv("SNS_TOPIC_ARN", ""),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		Notify: NotifyConfig{
			HorizonDays:       getEnvInt("NOTIFY_HORIZON_DAYS", 3),
			Workers:           getEnvInt("NOTIFY_WORKERS", 4),
			Timezone:          getEnv("NOTIFY_TIMEZONE", "Asia/Manila"),
			SinkTimeout:       getEnvDuration("SINK_TIMEOUT", 5*time.Second),
			DistrictTablePath: getEnv("DISTRICT_TABLE_PATH", ""),
		},
		Sink: SinkConfig{
			Kind:         getEnv("NOTIFY_SINK", ""),
			KafkaBrokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "event-notifications"),
		},
		Breaker: BreakerConfig{
			MaxRequests:      uint32(getEnvInt("SINK_BREAKER_MAX_REQUESTS", 1)),
			Interval:         getEnvDuration("SINK_BREAKER_INTERVAL", time.Minute),
			Timeout:          getEnvDuration("SINK_BREAKER_TIMEOUT", 30*time.Second),
			FailureThreshold: uint32(getEnvInt("SINK_BREAKER_FAILURES", 5)),
		},
		Archive: ArchiveConfig{
			Enabled: getEnvBool("RUN_ARCHIVE_ENABLED", false),
			Prefix:  getEnv("RUN_ARCHIVE_PREFIX", "runs"),
		},
		Trigger: TriggerConfig{
			RatePerSecond: getEnvFloat("TRIGGER_RATE_PER_SECOND", 0.2),
			Burst:         getEnvInt("TRIGGER_BURST", 2),
		},
	}
}

// Location resolves the notifier's calendar timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Notify.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Notify.Timezone, err)
	}
	return loc, nil
}

// SinkKind resolves the configured sink, defaulting to SNS when a topic is
// set and to the log sink otherwise.
func (c *Config) SinkKind() string {
	if k := strings.ToLower(strings.TrimSpace(c.Sink.Kind)); k != "" {
		return k
	}
	if c.SNSTopicARN != "" {
		return "sns"
	}
	return "log"
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
