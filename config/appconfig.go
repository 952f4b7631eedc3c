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

// AppKey declares one site-level configuration key. It is read with the same
// precedence as the core keys and shares the CALIGBEN_ env prefix.
type AppKey struct {
	// Name is used as-is for config files and CLI flags.
	Name string

	// Default value. Supported types: string, int, int64, float64, bool,
	// time.Duration, []string.
	Default any

	// Desc is shown in --help.
	Desc string
}

// AppConfigValues holds loaded app values keyed by AppKey.Name.
type AppConfigValues map[string]any

// String returns a string value or "" if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int value or 0. Viper yields int or int64 depending on
// the source, both are accepted.
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

// Float64 returns a float value or 0.
func (a AppConfigValues) Float64(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a bool value or false.
func (a AppConfigValues) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// Duration parses a duration value ("10m", "90s", or plain seconds).
// Returns def when the key is missing or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig resolves appKeys: flags > env > config files (already merged
// into v) > defaults.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, envPrefix string, keys []AppKey) AppConfigValues {
	result := make(AppConfigValues, len(keys))
	if len(keys) == 0 {
		return result
	}

	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		def := key.Default
		if d, ok := def.(time.Duration); ok {
			def = d.String()
		}
		appV.SetDefault(key.Name, def)
		_ = appV.BindEnv(key.Name)

		if v.IsSet(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}
		if f := pflag.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	for _, key := range keys {
		result[key.Name] = coerce(appV, key)
	}

	if logger != nil {
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			if isSecretKey(key.Name) {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
				continue
			}
			fields = append(fields, zap.Any(key.Name, result[key.Name]))
		}
		logger.Info("app config loaded", fields...)
	}
	return result
}

// coerce converts env/flag strings back to the key's default type.
func coerce(v *viper.Viper, key AppKey) any {
	switch key.Default.(type) {
	case string:
		return v.GetString(key.Name)
	case int:
		return v.GetInt(key.Name)
	case int64:
		return v.GetInt64(key.Name)
	case float64:
		return v.GetFloat64(key.Name)
	case bool:
		return v.GetBool(key.Name)
	case []string:
		return v.GetStringSlice(key.Name)
	default:
		return v.Get(key.Name)
	}
}

func isSecretKey(name string) bool {
	n := strings.ToLower(name)
	for _, s := range []string{"key", "secret", "password", "token"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// registerAppFlags registers CLI flags for app keys. Must run before pflag.Parse.
func registerAppFlags(keys []AppKey) error {
	for _, key := range keys {
		if pflag.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}
		switch d := key.Default.(type) {
		case string:
			pflag.String(key.Name, d, key.Desc)
		case int:
			pflag.Int(key.Name, d, key.Desc)
		case int64:
			pflag.Int64(key.Name, d, key.Desc)
		case float64:
			pflag.Float64(key.Name, d, key.Desc)
		case bool:
			pflag.Bool(key.Name, d, key.Desc)
		case time.Duration:
			pflag.String(key.Name, d.String(), key.Desc)
		case []string:
			pflag.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
