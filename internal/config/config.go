package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/jengzang/heatmap-backend-go/internal/sampling"
)

// Config holds the application configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	LogLevel  string

	AuthEnabled bool
	RateLimit   int           // Requests per window and client on write endpoints
	RateWindow  time.Duration // Rate limit window

	TrackingEnabled bool // Tracking state at startup

	SampleMinDistanceMeters float64
	SampleMinInterval       time.Duration
	SampleMaxGap            time.Duration

	KafkaBrokers []string // Empty disables the Kafka consumer
	KafkaTopic   string
	KafkaGroupID string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Info("[Config] Loaded .env file")
	}

	defaults := sampling.DefaultPolicyConfig()

	return &Config{
		Port:      getEnv("PORT", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/visits.db"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AuthEnabled: getBoolEnv("AUTH_ENABLED", false),
		RateLimit:   getIntEnv("RATE_LIMIT", 120),
		RateWindow:  getDurationEnv("RATE_WINDOW", time.Minute),

		TrackingEnabled: getBoolEnv("TRACKING_ENABLED", true),

		SampleMinDistanceMeters: getFloatEnv("SAMPLE_MIN_DISTANCE_M", defaults.MinDistanceMeters),
		SampleMinInterval:       getSecondsEnv("SAMPLE_MIN_INTERVAL_S", defaults.MinInterval),
		SampleMaxGap:            getSecondsEnv("SAMPLE_MAX_GAP_S", defaults.MaxGap),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "location.fixes"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "heatmap-backend"),
	}
}

// PolicyConfig returns the sampling thresholds
func (c *Config) PolicyConfig() sampling.PolicyConfig {
	return sampling.PolicyConfig{
		MinDistanceMeters: c.SampleMinDistanceMeters,
		MinInterval:       c.SampleMinInterval,
		MaxGap:            c.SampleMaxGap,
	}
}

// KafkaEnabled reports whether fixes should be consumed from Kafka
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}

// ApplyLogLevel sets the global log level, falling back to info
func (c *Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("[Config] Unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("[Config] Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Warnf("[Config] Invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("[Config] Invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

// getSecondsEnv reads a whole number of seconds
func getSecondsEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Warnf("[Config] Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return time.Duration(n) * time.Second
}

// getDurationEnv accepts Go duration strings such as "1m" or "30s"
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("[Config] Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
