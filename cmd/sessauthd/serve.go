package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/sessauth"
	"github.com/MrEthical07/sessauth/csrf"
	"github.com/MrEthical07/sessauth/httpapi"
	"github.com/MrEthical07/sessauth/internal/logging"
	"github.com/MrEthical07/sessauth/internal/observability"
	promexport "github.com/MrEthical07/sessauth/metrics/export/prometheus"
)

const shutdownTimeout = 10 * time.Second

// serveDeps holds injectable dependencies for the serve command.
type serveDeps struct {
	// OpenStore defaults to openStore.
	OpenStore func(ctx context.Context, cfg daemonConfig) (userStore, error)
	// OnReady, if set, is called with the bound addresses once both
	// servers accept connections.
	OnReady func(apiAddr, metricsAddr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API",
		Long: `Start the JSON API (register, login, whoami, logout, csrf) and, unless
metrics.addr is empty, the metrics and health server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, nil)
		},
	}

	registerConfigFlags(cmd.Flags())
	return cmd
}

// runServe runs until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg daemonConfig, deps *serveDeps) error {
	if deps == nil {
		deps = &serveDeps{}
	}
	if deps.OpenStore == nil {
		deps.OpenStore = openStore
	}

	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.Setup(logging.Options{
		Service: "sessauthd",
		Version: cmd.Root().Version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  cmd.ErrOrStderr(),
	})

	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return err
	}

	st, err := deps.OpenStore(ctx, cfg)
	if err != nil {
		return oops.Code("STORE_OPEN_FAILED").With("driver", cfg.StoreDriver).Wrap(err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Warn("failed to close user store", "error", closeErr)
		}
	}()

	builder := sessauth.New().
		WithConfig(engineCfg).
		WithUserStore(st).
		WithLogger(logger)
	if engineCfg.Audit.Enabled {
		builder = builder.WithAuditSink(sessauth.NewSlogSink(logger.With("component", "audit")))
	}
	engine, err := builder.Build()
	if err != nil {
		return oops.Code("ENGINE_BUILD_FAILED").Wrap(err)
	}
	defer engine.Close()

	logger.Info("security report", "report", engine.SecurityReport())
	for _, w := range engineCfg.Lint() {
		logger.Warn("configuration warning", "code", w.Code, "message", w.Message)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var handler http.Handler = httpapi.NewHandler(engine, csrf.NewIssuer(engineCfg.Cookie.Secure), logger)

	var obsServer *observability.Server
	metricsAddr := ""
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, logger, st.Ping, promexport.NewCollector(engine))
		handler = obsServer.HTTPMetrics().Instrument(handler)

		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, logger, obsErrCh, "observability")
		metricsAddr = obsServer.Addr()
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	apiServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	apiErrCh := make(chan error, 1)
	go func() {
		defer close(apiErrCh)
		if serveErr := apiServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			apiErrCh <- serveErr
		}
	}()

	logger.Info("api server started", "addr", listener.Addr().String(), "store", cfg.StoreDriver)
	if deps.OnReady != nil {
		deps.OnReady(listener.Addr().String(), metricsAddr)
	}

	var serveErr error
	select {
	case err, ok := <-apiErrCh:
		if ok {
			serveErr = oops.Code("API_SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports a failure.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
