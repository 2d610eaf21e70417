package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	t.Run("defaults without env file", func(t *testing.T) {
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "pgx", cfg.Database.Driver)
		assert.Equal(t, 800.0, cfg.Animation.SpeedFlight)
		assert.Equal(t, 80.0, cfg.Animation.SpeedDrive)
		assert.Equal(t, 120.0, cfg.Animation.SpeedTrain)
		assert.Equal(t, 5.0, cfg.Animation.SpeedWalk)
		assert.Equal(t, 8*time.Second, cfg.Animation.FlightRevealDuration)
		assert.Equal(t, 1500*time.Millisecond, cfg.Animation.SettleDelay)
		assert.Equal(t, 24*time.Hour, cfg.Cache.DirectionsCacheTTL)
		assert.Equal(t, "https://api.mapbox.com", cfg.Mapbox.BaseURL)
	})

	t.Run("env file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "API_PORT=9090\nDB_DRIVER=sqlite\nDB_SQLITE_PATH=/tmp/routes.db\nANIMATION_SPEED_WALK=6\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "/tmp/routes.db", cfg.GetDatabaseDSN())
		assert.Equal(t, 6.0, cfg.Animation.SpeedWalk)
	})

	t.Run("environment variables win", func(t *testing.T) {
		t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test")
		t.Setenv("SESSION_MAX_ACTIVE", "4")

		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		assert.Equal(t, "pk.test", cfg.Mapbox.AccessToken)
		assert.Equal(t, 4, cfg.Session.MaxActive)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")

		_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}

func TestDefaultAnimation(t *testing.T) {
	anim := DefaultAnimation()
	assert.Equal(t, 150, anim.FlightSteps)
	assert.InDelta(t, 0.18, anim.CurvatureFactor, 1e-9)
	assert.Equal(t, 18.0, anim.CurvatureCap)
}
