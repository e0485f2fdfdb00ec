package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parseConfig(t *testing.T, args ...string) (*benchConfig, error) {
	t.Helper()

	var (
		cfg     *benchConfig
		loadErr error
	)
	cmd := &cli.Command{
		Name:  "run",
		Flags: runFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, loadErr = loadConfig(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"run"}, args...)))
	return cfg, loadErr
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(t)
	require.NoError(t, err)

	assert.Equal(t, &benchConfig{
		Workers:  0,
		Tasks:    1000,
		Wakes:    10,
		LogLevel: "info",
		Timeout:  30 * time.Second,
		PoolName: "bench",
	}, cfg)
}

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := parseConfig(t,
		"--workers", "3", "-n", "50", "--wakes", "2",
		"--cgroup-aware", "--log-level", "debug", "-t", "5s", "--name", "custom")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 50, cfg.Tasks)
	assert.Equal(t, 2, cfg.Wakes)
	assert.True(t, cfg.CgroupAware)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "custom", cfg.PoolName)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("FUTUREPOOL_TASKS", "42")
	t.Setenv("FUTUREPOOL_METRICS_ADDR", "127.0.0.1:0")

	cfg, err := parseConfig(t)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Tasks)
	assert.Equal(t, "127.0.0.1:0", cfg.MetricsAddr)

	cfg, err = parseConfig(t, "--tasks", "7")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Tasks, "flags take precedence over the environment")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"negative workers", []string{"--workers=-1"}},
		{"negative tasks", []string{"--tasks=-5"}},
		{"negative wakes", []string{"--wakes=-1"}},
		{"zero timeout", []string{"--timeout", "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(t, tt.args...)
			var usageErr *usageError
			require.ErrorAs(t, err, &usageErr)
			assert.Equal(t, 2, exitCode(err))
		})
	}
}
