package main

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/urfave/cli/v3"
)

// benchConfig is the resolved configuration of one run. Struct tag defaults
// apply to every option not given on the command line or in the environment.
type benchConfig struct {
	Workers     int           `default:"0"`
	Tasks       int           `default:"1000"`
	Wakes       int           `default:"10"`
	CgroupAware bool          `default:"false"`
	MetricsAddr string        `default:""`
	LogLevel    string        `default:"info"`
	Timeout     time.Duration `default:"30s"`
	PoolName    string        `default:"bench"`
}

// exitError carries a non-zero exit code after the command has printed its output.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError reports invalid arguments.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "worker count, 0 sizes the pool from the parallelism hint",
			Sources: cli.EnvVars("FUTUREPOOL_WORKERS"),
		},
		&cli.IntFlag{
			Name:    "tasks",
			Aliases: []string{"n"},
			Usage:   "number of futures to spawn",
			Sources: cli.EnvVars("FUTUREPOOL_TASKS"),
		},
		&cli.IntFlag{
			Name:    "wakes",
			Aliases: []string{"k"},
			Usage:   "Pending+wake rounds per future",
			Sources: cli.EnvVars("FUTUREPOOL_WAKES"),
		},
		&cli.BoolFlag{
			Name:    "cgroup-aware",
			Usage:   "size the default pool from the container CPU quota",
			Sources: cli.EnvVars("FUTUREPOOL_CGROUP_AWARE"),
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "serve Prometheus metrics on this address during the run",
			Sources: cli.EnvVars("FUTUREPOOL_METRICS_ADDR"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Sources: cli.EnvVars("FUTUREPOOL_LOG_LEVEL"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "give up after this long",
			Sources: cli.EnvVars("FUTUREPOOL_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "name",
			Usage:   "pool name used in logs and metrics",
			Sources: cli.EnvVars("FUTUREPOOL_NAME"),
		},
	}
}

// loadConfig builds a benchConfig from tag defaults and the flags that were set.
func loadConfig(cmd *cli.Command) (*benchConfig, error) {
	cfg := &benchConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if cmd.IsSet("workers") {
		cfg.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("tasks") {
		cfg.Tasks = int(cmd.Int("tasks"))
	}
	if cmd.IsSet("wakes") {
		cfg.Wakes = int(cmd.Int("wakes"))
	}
	if cmd.IsSet("cgroup-aware") {
		cfg.CgroupAware = cmd.Bool("cgroup-aware")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.MetricsAddr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("name") {
		cfg.PoolName = cmd.String("name")
	}

	return cfg, cfg.validate()
}

func (c *benchConfig) validate() error {
	switch {
	case c.Workers < 0:
		return &usageError{msg: fmt.Sprintf("--workers must be >= 0, got %d", c.Workers)}
	case c.Tasks < 0:
		return &usageError{msg: fmt.Sprintf("--tasks must be >= 0, got %d", c.Tasks)}
	case c.Wakes < 0:
		return &usageError{msg: fmt.Sprintf("--wakes must be >= 0, got %d", c.Wakes)}
	case c.Timeout <= 0:
		return &usageError{msg: fmt.Sprintf("--timeout must be positive, got %s", c.Timeout)}
	}
	return nil
}
