// app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/caligben/config"
	"github.com/dalemusser/caligben/logging"
	"github.com/dalemusser/caligben/metrics"
	"github.com/dalemusser/caligben/server"
	"go.uber.org/zap"
)

// Hooks are the application-specific steps of Run.
//
// C is the app config type, D the bundle of connected backends.
type Hooks[C any, D any] struct {
	// Name labels logs; it becomes the "site" field of every entry.
	Name string

	// LoadConfig returns the core and app config, usually via config.Load.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// ConnectBackends opens session stores and other dependencies. ctx
	// carries core.BackendConnectTimeout.
	ConnectBackends func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// BuildHandler assembles the router, middleware and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Shutdown releases backends after the server has stopped. Optional.
	Shutdown func(deps D, logger *zap.Logger) error
}

// Run loads config, builds the logger, registers metrics, connects
// backends, builds the handler and serves until ctx is canceled or a
// shutdown signal arrives.
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	if hooks.LoadConfig == nil || hooks.ConnectBackends == nil || hooks.BuildHandler == nil {
		return errors.New("app: LoadConfig, ConnectBackends and BuildHandler are required")
	}

	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env, hooks.Name)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Debug("effective config", zap.String("core", coreCfg.Dump()))

	metrics.RegisterDefault(logger)

	connectCtx, cancelConnect := context.WithTimeout(ctx, coreCfg.BackendConnectTimeout)
	deps, err := hooks.ConnectBackends(connectCtx, coreCfg, appCfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect backends: %w", err)
	}
	if hooks.Shutdown != nil {
		defer func() {
			if err := hooks.Shutdown(deps, logger); err != nil {
				logger.Warn("backend shutdown failed", zap.Error(err))
			}
		}()
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
