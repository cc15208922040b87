package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ICAL_URL", "https://example.com/calendar.ics")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 20*time.Second, cfg.ICalTimeout)
	assert.Equal(t, 30*time.Second, cfg.PayPalTimeout)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
	assert.Equal(t, 730, cfg.HorizonDays)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "149", cfg.DefaultNightly)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, PayPalSandbox, cfg.PayPalEnv)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_RequiresICalURL(t *testing.T) {
	t.Setenv("ICAL_URL", "")

	_, err := Load()

	assert.ErrorIs(t, err, ErrICalURLRequired)
}

func TestParse_SkipsValidation(t *testing.T) {
	t.Setenv("ICAL_URL", "")
	t.Setenv("PRICING_DEFAULT_NIGHTLY", "120")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Empty(t, cfg.ICalURL)
	assert.Equal(t, "120", cfg.DefaultNightly)
}

func TestLoad_LegacyNames(t *testing.T) {
	t.Setenv("ICAL_URL", "https://example.com/calendar.ics")
	t.Setenv("PORT", "5000")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("PAYPAL_CLIENT_ID_SANDBOX", "sb-id")
	t.Setenv("PAYPAL_CLIENT_SECRET_SANDBOX", "sb-secret")
	t.Setenv("PAYPAL_CLIENT_ID_LIVE", "live-id")
	t.Setenv("PAYPAL_CLIENT_SECRET_LIVE", "live-secret")
	t.Setenv("SENDGRID_API_KEY", "SG.x")
	t.Setenv("EMAIL_FROM", "host@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, "production", cfg.Env)
	assert.True(t, cfg.PayPalLive())
	assert.Equal(t, "live-id", cfg.PayPalClientID)
	assert.Equal(t, "live-secret", cfg.PayPalClientSecret)
	assert.Equal(t, "SG.x", cfg.SendGridAPIKey)
	assert.Equal(t, "host@example.com", cfg.EmailFrom)
}

func TestLoad_SandboxWithoutLiveCredentials(t *testing.T) {
	t.Setenv("ICAL_URL", "https://example.com/calendar.ics")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("PAYPAL_CLIENT_ID_SANDBOX", "sb-id")
	t.Setenv("PAYPAL_CLIENT_SECRET_SANDBOX", "sb-secret")
	t.Setenv("PAYPAL_CLIENT_ID_LIVE", "live-id")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, PayPalSandbox, cfg.PayPalEnv)
	assert.Equal(t, "sb-id", cfg.PayPalClientID)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ICAL_URL", "https://example.com/calendar.ics")
	t.Setenv("HTTP_ADDR", "127.0.0.1:8081")
	t.Setenv("PORT", "5000")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_USE_SSL", "yes")
	t.Setenv("GALLERY_URLS", "https://a/1.jpg,https://a/2.jpg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.HTTPAddr)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.S3UseSSL)
	assert.Equal(t, "http://minio:9000", cfg.S3PublicEndpoint)
	assert.Len(t, cfg.GalleryURLs, 2)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CACHE_TTL":            "soon",
		"CACHE_BACKEND":        "memcached",
		"TIMEZONE":             "Mars/Olympus",
		"S3_USE_SSL":           "maybe",
		"RETRY_BACKOFF":        "1s,later",
		"BOOKING_HORIZON_DAYS": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("ICAL_URL", "https://example.com/calendar.ics")
			t.Setenv(key, value)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
