package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("WEEKLY_HOLIDAYS", "")
	t.Setenv("HOLIDAY_LOOKUP_TIMEOUT", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []time.Weekday{time.Thursday, time.Friday}, cfg.WeeklyHolidays.Weekdays())
	assert.Equal(t, 3*time.Second, cfg.HolidayLookupTimeout)
}

func TestFromEnvWeeklyHolidays(t *testing.T) {
	t.Setenv("WEEKLY_HOLIDAYS", "sat,sun")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, cfg.WeeklyHolidays.Weekdays())

	t.Setenv("WEEKLY_HOLIDAYS", "9")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestFromEnvFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	t.Setenv("RUN_SEED", "maybe")
	t.Setenv("TOKEN_TTL", "forever")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
	assert.True(t, cfg.RunSeed)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
}

func TestValidate(t *testing.T) {
	base := Config{DatabaseURL: "postgres://localhost/leave", MaxBodyBytes: 4096, RateLimitPerMinute: 10}
	assert.NoError(t, base.Validate())

	missingDB := base
	missingDB.DatabaseURL = ""
	assert.Error(t, missingDB.Validate())

	prod := base
	prod.Environment = "production"
	assert.Error(t, prod.Validate())

	prod.JWTSecret = "s3cret"
	prod.DataEncryptionKey = "key"
	prod.RunSeed = false
	assert.NoError(t, prod.Validate())

	email := base
	email.EmailEnabled = true
	assert.Error(t, email.Validate())
}
