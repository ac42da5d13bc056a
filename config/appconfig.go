// config/appconfig.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares one application config key. It is loaded with the same
// precedence as core keys and exposed as a flag, an env var
// (PHONEFORM_<NAME>) and a config file key.
type AppKey struct {
	Name string

	// Default is used when nothing else sets the key.
	// Supported types: string, int, int64, bool, []string, time.Duration.
	Default any

	// Desc is the --help text.
	Desc string
}

// AppConfigValues holds loaded app values keyed by AppKey.Name.
type AppConfigValues map[string]any

// String returns a string value or "" if missing or mistyped.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int value or 0. int64 values (TOML) are converted.
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns a bool value or false.
func (a AppConfigValues) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// StringSlice returns a []string value or nil.
func (a AppConfigValues) StringSlice(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Duration parses a duration value: "10m" style strings, or numbers as
// seconds. def is returned when the key is missing or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	d, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return d
}

// loadAppConfig resolves keys with flags > env > config file > defaults.
// v carries the already-merged config file.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, keys []AppKey) AppConfigValues {
	result := make(AppConfigValues, len(keys))
	if len(keys) == 0 {
		return result
	}

	appV := viper.New()
	appV.SetEnvPrefix(EnvPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	var lists []string
	for _, key := range keys {
		def := key.Default
		if d, ok := def.(time.Duration); ok {
			def = d.String()
		}
		if _, ok := def.([]string); ok {
			lists = append(lists, key.Name)
		}
		appV.SetDefault(key.Name, def)
		_ = appV.BindEnv(key.Name)

		if v.IsSet(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	if err := normalizeListKeys(logger, appV, lists...); err != nil {
		logger.Warn("app list key is not a JSON array", zap.Error(err))
	}

	for _, key := range keys {
		switch key.Default.(type) {
		case bool:
			result[key.Name] = appV.GetBool(key.Name)
		case int:
			result[key.Name] = appV.GetInt(key.Name)
		case int64:
			result[key.Name] = appV.GetInt64(key.Name)
		case []string:
			result[key.Name] = appV.GetStringSlice(key.Name)
		case string, time.Duration:
			result[key.Name] = appV.GetString(key.Name)
		default:
			result[key.Name] = appV.Get(key.Name)
		}
	}

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		name := strings.ToLower(key.Name)
		if strings.Contains(name, "key") ||
			strings.Contains(name, "secret") ||
			strings.Contains(name, "password") ||
			strings.Contains(name, "token") {
			fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			continue
		}
		fields = append(fields, zap.Any(key.Name, result[key.Name]))
	}
	logger.Info("app config loaded", fields...)

	return result
}

// registerAppFlags adds a flag per key. Must run before fs.Parse.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case time.Duration:
			fs.String(key.Name, d.String(), key.Desc)
		case []string:
			fs.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
