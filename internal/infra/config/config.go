package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	PayPalSandbox = "sandbox"
	PayPalLive    = "live"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env             string
	HTTPAddr        string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	ICalURL      string
	ICalTimeout  time.Duration
	CacheTTL     time.Duration
	CacheBackend string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	RedisKey     string

	Timezone    string
	HorizonDays int

	OwnerEmail     string
	EmailFrom      string
	EmailFromName  string
	SendGridAPIKey string

	PayPalEnv          string
	PayPalBaseURL      string
	PayPalClientID     string
	PayPalClientSecret string
	PayPalTimeout      time.Duration

	Currency       string
	DefaultNightly string
	SpecialPrices  string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	InvalidationTopic  string
	ConsumerGroup      string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool
	GalleryPrefix    string
	GalleryURLs      []string
}

var ErrICalURLRequired = errors.New("ICAL_URL is required")

// Load parses and validates configuration from the current environment.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads the environment without validating it. Variable names of the first
// deployment (PORT, ICAL_URL, NODE_ENV, PAYPAL_CLIENT_ID_SANDBOX, ...) are still honoured.
func Parse() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "dev")
	v.SetDefault("http.addr", "")
	v.SetDefault("port", "4000")
	v.SetDefault("log.level", "info")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("ical.timeout", "20s")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "tinyhome:calendar:feed")
	v.SetDefault("timezone", "Europe/Paris")
	v.SetDefault("booking.horizon_days", 730)
	v.SetDefault("email.from_name", "Tiny Home")
	v.SetDefault("paypal.timeout", "30s")
	v.SetDefault("pricing.currency", "EUR")
	v.SetDefault("pricing.default_nightly", "149")
	v.SetDefault("kafka.topic_prefix", "")
	v.SetDefault("kafka.consumer_group", "tinyhome")
	v.SetDefault("outbox.poll_interval", "500ms")
	v.SetDefault("retry.backoff", "1s,5s,30s")
	v.SetDefault("s3.use_ssl", "false")
	v.SetDefault("s3.bucket", "tinyhome-photos")
	v.SetDefault("gallery.prefix", "gallery")

	_ = v.BindEnv("env", "APP_ENV", "NODE_ENV")
	_ = v.BindEnv("node_env", "NODE_ENV")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("shutdown.timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("cors.origins", "CORS_ORIGINS")
	_ = v.BindEnv("ical.url", "ICAL_URL")
	_ = v.BindEnv("ical.timeout", "ICAL_TIMEOUT")
	_ = v.BindEnv("cache.ttl", "CACHE_TTL")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("redis.key", "REDIS_KEY")
	_ = v.BindEnv("timezone", "TIMEZONE")
	_ = v.BindEnv("booking.horizon_days", "BOOKING_HORIZON_DAYS")
	_ = v.BindEnv("owner.email", "OWNER_EMAIL", "EMAIL_TO")
	_ = v.BindEnv("email.from", "EMAIL_FROM")
	_ = v.BindEnv("email.from_name", "EMAIL_FROM_NAME")
	_ = v.BindEnv("sendgrid.api_key", "SENDGRID_API_KEY")
	_ = v.BindEnv("paypal.base_url", "PAYPAL_BASE_URL")
	_ = v.BindEnv("paypal.timeout", "PAYPAL_TIMEOUT")
	_ = v.BindEnv("paypal.sandbox.client_id", "PAYPAL_CLIENT_ID_SANDBOX")
	_ = v.BindEnv("paypal.sandbox.client_secret", "PAYPAL_CLIENT_SECRET_SANDBOX")
	_ = v.BindEnv("paypal.live.client_id", "PAYPAL_CLIENT_ID_LIVE")
	_ = v.BindEnv("paypal.live.client_secret", "PAYPAL_CLIENT_SECRET_LIVE")
	_ = v.BindEnv("pricing.currency", "PRICING_CURRENCY")
	_ = v.BindEnv("pricing.default_nightly", "PRICING_DEFAULT_NIGHTLY")
	_ = v.BindEnv("pricing.special_prices", "PRICING_SPECIAL_PRICES")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("kafka.topic_prefix", "KAFKA_TOPIC_PREFIX")
	_ = v.BindEnv("kafka.invalidation_topic", "KAFKA_INVALIDATION_TOPIC")
	_ = v.BindEnv("kafka.consumer_group", "KAFKA_CONSUMER_GROUP")
	_ = v.BindEnv("outbox.poll_interval", "OUTBOX_POLL_INTERVAL")
	_ = v.BindEnv("retry.backoff", "RETRY_BACKOFF")
	_ = v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("s3.public_endpoint", "S3_PUBLIC_ENDPOINT")
	_ = v.BindEnv("s3.access_key", "S3_ACCESS_KEY")
	_ = v.BindEnv("s3.secret_key", "S3_SECRET_KEY")
	_ = v.BindEnv("s3.bucket", "S3_BUCKET")
	_ = v.BindEnv("s3.use_ssl", "S3_USE_SSL")
	_ = v.BindEnv("gallery.prefix", "GALLERY_PREFIX")
	_ = v.BindEnv("gallery.urls", "GALLERY_URLS")

	cfg := Config{
		Env:               strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		HTTPAddr:          strings.TrimSpace(v.GetString("http.addr")),
		LogLevel:          v.GetString("log.level"),
		CORSOrigins:       splitList(v.GetString("cors.origins")),
		ICalURL:           strings.TrimSpace(v.GetString("ical.url")),
		CacheBackend:      strings.ToLower(strings.TrimSpace(v.GetString("cache.backend"))),
		RedisAddr:         v.GetString("redis.addr"),
		RedisPass:         v.GetString("redis.password"),
		RedisDB:           v.GetInt("redis.db"),
		RedisKey:          v.GetString("redis.key"),
		Timezone:          v.GetString("timezone"),
		HorizonDays:       v.GetInt("booking.horizon_days"),
		OwnerEmail:        strings.TrimSpace(v.GetString("owner.email")),
		EmailFrom:         strings.TrimSpace(v.GetString("email.from")),
		EmailFromName:     v.GetString("email.from_name"),
		SendGridAPIKey:    strings.TrimSpace(v.GetString("sendgrid.api_key")),
		PayPalBaseURL:     strings.TrimSpace(v.GetString("paypal.base_url")),
		Currency:          strings.ToUpper(strings.TrimSpace(v.GetString("pricing.currency"))),
		DefaultNightly:    strings.TrimSpace(v.GetString("pricing.default_nightly")),
		SpecialPrices:     v.GetString("pricing.special_prices"),
		KafkaBrokers:      splitList(v.GetString("kafka.brokers")),
		KafkaTopicPrefix:  v.GetString("kafka.topic_prefix"),
		InvalidationTopic: strings.TrimSpace(v.GetString("kafka.invalidation_topic")),
		ConsumerGroup:     v.GetString("kafka.consumer_group"),
		S3Endpoint:        strings.TrimSpace(v.GetString("s3.endpoint")),
		S3PublicEndpoint:  strings.TrimSpace(v.GetString("s3.public_endpoint")),
		S3AccessKey:       v.GetString("s3.access_key"),
		S3SecretKey:       v.GetString("s3.secret_key"),
		S3Bucket:          v.GetString("s3.bucket"),
		GalleryPrefix:     v.GetString("gallery.prefix"),
		GalleryURLs:       splitList(v.GetString("gallery.urls")),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + strings.TrimSpace(v.GetString("port"))
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"shutdown.timeout", &cfg.ShutdownTimeout},
		{"ical.timeout", &cfg.ICalTimeout},
		{"cache.ttl", &cfg.CacheTTL},
		{"paypal.timeout", &cfg.PayPalTimeout},
		{"outbox.poll_interval", &cfg.OutboxPollInterval},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(v, d.key); err != nil {
			return Config{}, err
		}
	}
	for _, raw := range strings.Split(v.GetString("retry.backoff"), ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	if cfg.S3UseSSL, err = parseBool(v.GetString("s3.use_ssl")); err != nil {
		return Config{}, fmt.Errorf("invalid S3_USE_SSL boolean: %w", err)
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	// live credentials are only used by a production process that has them
	liveID := strings.TrimSpace(v.GetString("paypal.live.client_id"))
	liveSecret := strings.TrimSpace(v.GetString("paypal.live.client_secret"))
	if strings.EqualFold(v.GetString("node_env"), "production") && liveID != "" && liveSecret != "" {
		cfg.PayPalEnv = PayPalLive
		cfg.PayPalClientID, cfg.PayPalClientSecret = liveID, liveSecret
	} else {
		cfg.PayPalEnv = PayPalSandbox
		cfg.PayPalClientID = strings.TrimSpace(v.GetString("paypal.sandbox.client_id"))
		cfg.PayPalClientSecret = strings.TrimSpace(v.GetString("paypal.sandbox.client_secret"))
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.ICalURL == "" {
		return ErrICalURLRequired
	}
	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("BOOKING_HORIZON_DAYS must be positive, got %d", c.HorizonDays)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	return nil
}

// Location is the house's time zone. Validate has already checked it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) PayPalLive() bool { return c.PayPalEnv == PayPalLive }

func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c Config) S3Enabled() bool { return c.S3Endpoint != "" && c.S3Bucket != "" }

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", envName(key), err)
	}
	return d, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "f", "false", "no", "n", "off":
		return false, nil
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	default:
		return false, fmt.Errorf("%q", raw)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
