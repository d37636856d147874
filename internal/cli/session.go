package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/config"
	"github.com/roach88/stateview/internal/logging"
	"github.com/roach88/stateview/internal/metrics"
	"github.com/roach88/stateview/internal/repository"
)

// session is everything a command needs to talk to the store. Close it
// when the command finishes.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics metrics.Metrics
	backend repository.Backend
	repo    *repository.Repository
	server  *http.Server
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if o.Type != "" {
		cfg.DocumentType = o.Type
	}
	if o.Backend != "" {
		cfg.Storage.Backend = o.Backend
	}
	if o.Database != "" {
		cfg.Storage.Path = o.Database
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openSession loads the config and opens the backend and repository. The
// returned error is an ExitError already reported through f.
func (o *RootOptions) openSession(cmd *cobra.Command, f *OutputFormatter) (*session, error) {
	s, err := o.openStorage(cmd, f, true)
	if err != nil {
		return nil, err
	}
	s.repo = repository.New(s.backend, s.cfg.DocumentType,
		repository.WithLimits(s.cfg.Limits()),
		repository.WithLogger(s.logger),
		repository.WithMetrics(s.metrics),
	)
	return s, nil
}

// openStorage is openSession without the repository, for commands that
// work on the backend as a whole.
func (o *RootOptions) openStorage(cmd *cobra.Command, f *OutputFormatter, needType bool) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	if needType && cfg.DocumentType == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "no document type: set document_type in the config or pass --type", nil)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid logging configuration", err)
	}

	s := &session{cfg: cfg, logger: logger, metrics: metrics.NewNopMetrics()}
	if cfg.Metrics.Addr != "" {
		prom := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace)
		if err := s.serveMetrics(prom); err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to serve metrics", err)
		}
		s.metrics = prom
	}

	logger.Debug("opening storage", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	backend, err := repository.OpenBackend(cfg.Storage, logger)
	if err != nil {
		s.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeStorage, "failed to open storage", err)
	}
	s.backend = backend
	return s, nil
}

func (s *session) serveMetrics(prom *metrics.PrometheusMetrics) error {
	ln, err := net.Listen("tcp", s.cfg.Metrics.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}()
	s.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// Close shuts down the metrics server and closes the backend.
func (s *session) Close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing storage", "error", err)
		}
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
