package bootstrap

import (
	"time"

	"github.com/dalemusser/phoneform/config"
	"github.com/dalemusser/phoneform/internal/app/features/phoneform"
	"github.com/dalemusser/phoneform/registry"
)

// AppConfig holds the phone form service's own settings.
type AppConfig struct {
	SessionTTL     time.Duration
	MaxSessions    int
	FoldWideDigits bool
	CookieSecure   bool
	PageTitle      string
}

// appKeys are loaded alongside the core config; each is also a flag and a
// PHONEFORM_* env var.
var appKeys = []config.AppKey{
	{Name: "session_ttl", Default: registry.DefaultTTL, Desc: "Idle time before a visitor's form is discarded"},
	{Name: "max_sessions", Default: registry.DefaultMaxSessions, Desc: "Forms held in memory before the least recently used is discarded"},
	{Name: "fold_wide_digits", Default: false, Desc: "Accept full-width digits by folding them to ASCII"},
	{Name: "cookie_secure", Default: false, Desc: "Mark the session cookie Secure"},
	{Name: "page_title", Default: phoneform.DefaultTitle, Desc: "Page heading"},
}

func appConfigFrom(vals config.AppConfigValues) AppConfig {
	return AppConfig{
		SessionTTL:     vals.Duration("session_ttl", registry.DefaultTTL),
		MaxSessions:    vals.Int("max_sessions"),
		FoldWideDigits: vals.Bool("fold_wide_digits"),
		CookieSecure:   vals.Bool("cookie_secure"),
		PageTitle:      vals.String("page_title"),
	}
}
