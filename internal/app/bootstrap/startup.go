// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after DB connections and schema setup, before the handler is
// built. It wires the shared services and starts the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	r, err := buildRuntime(appCfg, deps, logger)
	if err != nil {
		logger.Error("runtime init failed", zap.Error(err))
		return err
	}
	r.start(deps, logger)

	rtMu.Lock()
	rt = r
	rtMu.Unlock()
	return nil
}
