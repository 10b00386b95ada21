package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "apiman", cfg.DynamoDBTable)
	assert.Equal(t, "GSI1", cfg.IndexName)
	assert.True(t, cfg.NotificationsEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("TABLE_NAME", "apiman-prod")
	t.Setenv("NOTIFICATIONS_ENABLED", "false")
	t.Setenv("ENABLE_METRICS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "apiman-prod", cfg.DynamoDBTable)
	assert.False(t, cfg.NotificationsEnabled)
	assert.True(t, cfg.EnableMetrics)
}

func TestValidateProduction(t *testing.T) {
	t.Run("requires a JWT secret", func(t *testing.T) {
		cfg := &Config{Environment: "production", DynamoDBTable: "t", EventBusName: "b"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("passes with required values", func(t *testing.T) {
		cfg := &Config{
			Environment:   "production",
			JWTSecret:     "secret",
			DynamoDBTable: "t",
			EventBusName:  "b",
		}
		assert.NoError(t, cfg.Validate())
	})
}
