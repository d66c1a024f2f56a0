package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/papertrade_db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("QUOTE_API_KEY", "key")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.StartingCashAmount().Equal(cfg.StartingCashAmount()))
	assert.Equal(t, "10000", cfg.StartingCashAmount().String())
}

func TestLoad_MissingRequired(t *testing.T) {
	// t.Setenv registers the restore; unset to simulate a missing var
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "QUOTE_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadStartingCash(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/papertrade_db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("QUOTE_API_KEY", "key")
	t.Setenv("STARTING_CASH", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
