package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse("test", []string{"-env", ""})
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.App.LogLevel)
	assert.Equal(t, config.AppModeDevelop, cfg.App.Mode)
	assert.Equal(t, config.TransportSSE, cfg.Tracking.Transport)
	assert.Equal(t, 5*time.Minute, cfg.Tracking.ETAGraceWindow)
	assert.Equal(t, 5, cfg.Simulator.LocationPings)
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	t.Setenv("RUN_ADDRESS", "0.0.0.0:9090")
	t.Setenv("TRACKING_ETA_GRACE", "2m")

	cfg, err := config.Parse("test", []string{"-env", "", "-a", "localhost:1", "-order", "abc"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.HostString)
	assert.Equal(t, 2*time.Minute, cfg.Tracking.ETAGraceWindow)
	assert.Equal(t, "abc", cfg.Tracking.OrderID)
}

func TestParse_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.env")
	require.NoError(t, os.WriteFile(path, []byte("SIMULATOR_LOCATION_PINGS=9\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SIMULATOR_LOCATION_PINGS") })

	cfg, err := config.Parse("test", []string{"-env", path})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Simulator.LocationPings)
}

func TestParse_MissingEnvFileIgnored(t *testing.T) {
	_, err := config.Parse("test", []string{"-env", filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown transport", []string{"-env", "", "-t", "carrier-pigeon"}},
		{"amqp without url", []string{"-env", "", "-t", "amqp"}},
		{"bad flag", []string{"-env", "", "-nope"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := config.Parse("test", test.args)
			assert.Error(t, err)
		})
	}
}
