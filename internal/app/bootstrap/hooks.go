package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/phoneform/app"
	"github.com/dalemusser/phoneform/config"
	"github.com/dalemusser/phoneform/health"
	"github.com/dalemusser/phoneform/internal/app/features/phoneform"
	"github.com/dalemusser/phoneform/metrics"
	"github.com/dalemusser/phoneform/notify"
	"github.com/dalemusser/phoneform/phone"
	"github.com/dalemusser/phoneform/registry"
	"github.com/dalemusser/phoneform/router"
	"github.com/dalemusser/phoneform/templates"
	"github.com/dalemusser/phoneform/version"
	"go.uber.org/zap"
)

// LoadConfig loads the core config and the phone form keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.Load(logger, appKeys...)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appConfigFrom(vals), nil
}

// BuildDeps creates the session registry and parses the templates.
func BuildDeps(_ context.Context, _ *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	tpl, err := templates.New(logger)
	if err != nil {
		return Deps{}, fmt.Errorf("templates: %w", err)
	}

	reg := registry.New(registry.Config{
		TTL:         appCfg.SessionTTL,
		MaxSessions: appCfg.MaxSessions,
		Normalizer:  phone.NewNormalizer(phone.WithWideDigits(appCfg.FoldWideDigits)),
		Notifier:    notify.Log(logger.Named("notify")),
	}, logger.Named("registry"))

	logger.Info("phone form sessions ready",
		zap.Duration("session_ttl", appCfg.SessionTTL),
		zap.Int("max_sessions", appCfg.MaxSessions),
		zap.Bool("fold_wide_digits", appCfg.FoldWideDigits))

	return Deps{Registry: reg, Templates: tpl}, nil
}

// BuildHandler assembles the router and mounts every route.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(coreCfg, logger)

	health.Mount(r, map[string]health.Check{"sessions": deps.Registry.Check}, logger)
	version.Mount(r)
	r.Handle("/metrics", metrics.Handler())

	phoneform.Mount(r, phoneform.NewHandler(deps.Registry, deps.Templates, logger.Named("phoneform"), phoneform.Options{
		Title:        appCfg.PageTitle,
		CookieSecure: appCfg.CookieSecure || coreCfg.HTTP.UseHTTPS,
	}))

	return r, nil
}

// Shutdown discards every live form.
func Shutdown(deps Deps, logger *zap.Logger) {
	n := deps.Registry.Len()
	deps.Registry.Close()
	logger.Info("phone form sessions closed", zap.Int("count", n))
}

// Hooks wires the service into app.Run.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         "phoneform",
	LoadConfig:   LoadConfig,
	BuildDeps:    BuildDeps,
	BuildHandler: BuildHandler,
	Shutdown:     Shutdown,
}
