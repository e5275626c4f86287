package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/school-report/config"
	"github.com/alem-hub/school-report/internal/infrastructure/persistence/postgres"
)

func TestConnectPostgres_MalformedURLFailsWithoutRetry(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := &config.Config{Database: config.DatabaseConfig{
		URL:             "postgres://report:%zz@db:5432/school",
		MaxConns:        2,
		ConnectAttempts: 5,
		ConnectTimeout:  time.Second,
		RetryDelay:      time.Second,
		RetryMaxDelay:   time.Second,
	}}

	start := time.Now()
	_, err := connectPostgres(context.Background(), cfg, log)

	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrInvalidConfig)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.NotContains(t, logs.String(), "retrying")
}

func TestConnectPostgres_RequiresURL(t *testing.T) {
	_, err := connectPostgres(context.Background(), &config.Config{}, slog.Default())
	assert.ErrorContains(t, err, "DATABASE_URL")
}
