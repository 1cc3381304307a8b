// Package config loads a [goSession.Config] from an optional file and GOSESSION_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GOSESSION_API_BASE_URL.
const EnvPrefix = "GOSESSION"

// Options controls where [Load] looks for a config file.
type Options struct {
	// File is an explicit config path. When set, a missing file is an error.
	File string
	// Name and Paths are searched when File is empty. A missing file is not an error.
	Name  string
	Paths []string
}

// Load merges defaults, the config file and the environment, then validates the result.
func Load(opts Options) (goSession.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, goSession.DefaultConfig())

	switch {
	case opts.File != "":
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return goSession.Config{}, fmt.Errorf("load config: %w", err)
		}
	default:
		name := opts.Name
		if name == "" {
			name = "gosession"
		}
		v.SetConfigName(name)
		paths := opts.Paths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return goSession.Config{}, fmt.Errorf("load config: %w", err)
			}
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (goSession.Config, error) {
	var cfg goSession.Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return goSession.Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return goSession.Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper, d goSession.Config) {
	v.SetDefault("revalidation.interval", d.Revalidation.Interval)
	v.SetDefault("revalidation.on_focus", d.Revalidation.OnFocus)
	v.SetDefault("revalidation.focus_stale_after", d.Revalidation.FocusStaleAfter)
	v.SetDefault("revalidation.call_timeout", d.Revalidation.CallTimeout)

	v.SetDefault("fallback.enabled", d.Fallback.Enabled)
	v.SetDefault("fallback.reject_expired_tokens", d.Fallback.RejectExpiredTokens)
	v.SetDefault("fallback.clock_skew", d.Fallback.ClockSkew)

	v.SetDefault("routes.login", d.Routes.Login)
	v.SetDefault("routes.admin_login", d.Routes.AdminLogin)
	v.SetDefault("routes.home", d.Routes.Home)
	v.SetDefault("routes.forbidden", d.Routes.Forbidden)

	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.async", d.Notifications.Async)
	v.SetDefault("notifications.buffer_size", d.Notifications.BufferSize)
	v.SetDefault("notifications.drop_if_full", d.Notifications.DropIfFull)

	v.SetDefault("loading.default_message", d.Loading.DefaultMessage)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.enable_latency_histograms", d.Metrics.EnableLatencyHistograms)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_prefix", d.Storage.RedisPrefix)
	v.SetDefault("storage.redis_timeout", d.Storage.RedisTimeout)
	v.SetDefault("storage.file_path", d.Storage.FilePath)
	v.SetDefault("storage.identity_file", d.Storage.IdentityFile)

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.validate_path", d.API.ValidatePath)
	v.SetDefault("api.current_user_path", d.API.CurrentUserPath)
	v.SetDefault("api.login_path", d.API.LoginPath)
	v.SetDefault("api.request_id_header", d.API.RequestIDHeader)
}
