package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Server holds the HTTP service settings.
type Server struct {
	Addr            string
	DatabaseURL     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Parallelism     int
	LogLevel        string
}

const (
	defaultAddr            = ":8080"
	defaultRequestTimeout  = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultParallelism     = 4
)

// ServerFlags registers the server flags on fs. Flag names use dashes; the
// matching environment variables use RESERVOIR_ and underscores.
func ServerFlags(fs *pflag.FlagSet) {
	fs.String("addr", defaultAddr, "listen address")
	fs.String("database-url", "", "postgres DSN for the run archive; empty keeps runs in memory")
	fs.Duration("request-timeout", defaultRequestTimeout, "per-request deadline")
	fs.Duration("shutdown-timeout", defaultShutdownTimeout, "graceful shutdown deadline")
	fs.Int("parallelism", defaultParallelism, "concurrent runs per comparison")
}

// LoadServer resolves settings from flags, environment and defaults, in
// that order of precedence.
func LoadServer(fs *pflag.FlagSet) (Server, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("addr", defaultAddr)
	v.SetDefault("database-url", "")
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("shutdown-timeout", defaultShutdownTimeout)
	v.SetDefault("parallelism", defaultParallelism)
	v.SetDefault("log-level", "info")
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Server{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	cfg := Server{
		Addr:            v.GetString("addr"),
		DatabaseURL:     v.GetString("database-url"),
		RequestTimeout:  v.GetDuration("request-timeout"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
		Parallelism:     v.GetInt("parallelism"),
		LogLevel:        v.GetString("log-level"),
	}
	if cfg.Addr == "" {
		return Server{}, fmt.Errorf("config: addr must not be empty")
	}
	if cfg.RequestTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return Server{}, fmt.Errorf("config: timeouts must be positive, got %s/%s",
			cfg.RequestTimeout, cfg.ShutdownTimeout)
	}
	if cfg.Parallelism < 1 {
		return Server{}, fmt.Errorf("config: parallelism must be >= 1, got %d", cfg.Parallelism)
	}

	return cfg, nil
}
