package config_test

import (
	"testing"
	"time"

	"tracker-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, config.TransportLocal, cfg.Notifications.Transport)
	assert.Equal(t, 10, cfg.Invite.CodeLength)
	assert.Equal(t, 5, cfg.Invite.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "tracker")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("NOTIFICATIONS_TRANSPORT", "nats")
	t.Setenv("NATS_URL", "nats://broker:4222")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "tracker", cfg.Database.User)
	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, config.TransportNATS, cfg.Notifications.Transport)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Env:           "prod",
			Database:      config.DatabaseConfig{Driver: config.DriverPostgres},
			Notifications: config.NotificationsConfig{Transport: config.TransportKafka},
			Auth:          config.AuthConfig{JWTSecret: "x"},
			Invite:        config.InviteConfig{CodeLength: 10, MaxAttempts: 5},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "sqlite"
		assert.Error(t, cfg.Validate())
	})

	t.Run("UnknownTransport", func(t *testing.T) {
		cfg := valid()
		cfg.Notifications.Transport = "smtp"
		assert.Error(t, cfg.Validate())
	})

	t.Run("SecretRequiredOutsideLocal", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("ShortCodes", func(t *testing.T) {
		cfg := valid()
		cfg.Invite.CodeLength = 4
		assert.Error(t, cfg.Validate())
	})
}
