// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/phoneform/config"
	"github.com/dalemusser/phoneform/httputil"
	"github.com/dalemusser/phoneform/logging"
	"github.com/dalemusser/phoneform/metrics"
	"github.com/dalemusser/phoneform/server"
	"go.uber.org/zap"
)

// Hooks are the points where an application plugs into Run. C is the app's
// own config, D the long-lived dependencies built from it.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the app config, usually via
	// config.Load.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// BuildDeps constructs in-memory dependencies (registries, notifiers).
	BuildDeps func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// BuildHandler assembles the router, middleware and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Shutdown, if set, releases deps after the server has stopped.
	Shutdown func(deps D, logger *zap.Logger)
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load core + app config (Hooks.LoadConfig)
//  3. Build final logger from core config
//  4. Register metrics
//  5. Build deps (Hooks.BuildDeps)
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler (Hooks.BuildHandler)
//  8. Serve until shutdown, then Hooks.Shutdown
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", hooks.Name))
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))
	httputil.SetLogger(logger)

	metrics.RegisterDefault(logger)

	deps, err := hooks.BuildDeps(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("deps build failed", zap.Error(err))
		return fmt.Errorf("build deps: %w", err)
	}
	if hooks.Shutdown != nil {
		defer hooks.Shutdown(deps, logger)
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
