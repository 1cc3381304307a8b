package goSession

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines the resolver's tunables.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Revalidation  RevalidationConfig  `mapstructure:"revalidation"`
	Fallback      FallbackConfig      `mapstructure:"fallback"`
	Routes        RoutesConfig        `mapstructure:"routes"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Loading       LoadingConfig       `mapstructure:"loading"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Storage       StorageConfig       `mapstructure:"storage"`
	API           APIConfig           `mapstructure:"api"`
}

/*
====================================
REVALIDATION CONFIG
====================================
*/

// RevalidationConfig controls the background validation schedule.
type RevalidationConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	OnFocus         bool          `mapstructure:"on_focus"`
	// FocusStaleAfter skips a focus revalidation while the last settlement is younger
	// than this. Zero revalidates on every focus.
	FocusStaleAfter time.Duration `mapstructure:"focus_stale_after"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
}

/*
====================================
FALLBACK CONFIG
====================================
*/

// FallbackConfig controls the secondary current-user lookup after a failed validation.
type FallbackConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// RejectExpiredTokens skips the fallback when the stored token carries a JWT exp
	// claim in the past.
	RejectExpiredTokens bool          `mapstructure:"reject_expired_tokens"`
	ClockSkew           time.Duration `mapstructure:"clock_skew"`
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the fixed redirect targets.
type RoutesConfig struct {
	Login      string `mapstructure:"login"`
	AdminLogin string `mapstructure:"admin_login"`
	Home       string `mapstructure:"home"`
	Forbidden  string `mapstructure:"forbidden"`
}

/*
====================================
NOTIFICATIONS CONFIG
====================================
*/

// NotificationsConfig controls toast delivery.
type NotificationsConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Async      bool `mapstructure:"async"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
}

/*
====================================
LOADING CONFIG
====================================
*/

// LoadingConfig holds the global loading indicator defaults.
type LoadingConfig struct {
	DefaultMessage string `mapstructure:"default_message"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	EnableLatencyHistograms bool `mapstructure:"enable_latency_histograms"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// Storage backends understood by the config loader and the probe command.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageFile   = "file"
)

// StorageConfig selects and configures a credential store backend.
type StorageConfig struct {
	Backend      string        `mapstructure:"backend"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	RedisPrefix  string        `mapstructure:"redis_prefix"`
	RedisTimeout time.Duration `mapstructure:"redis_timeout"`
	FilePath     string        `mapstructure:"file_path"`
	IdentityFile string        `mapstructure:"identity_file"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the booking API.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ValidatePath    string        `mapstructure:"validate_path"`
	CurrentUserPath string        `mapstructure:"current_user_path"`
	LoginPath       string        `mapstructure:"login_path"`
	RequestIDHeader string        `mapstructure:"request_id_header"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultLoadingMessage is shown by the global loading indicator when no message is given.
const DefaultLoadingMessage = "Hotel room is getting ready..."

// DefaultConfig returns the configuration used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Revalidation: RevalidationConfig{
			Interval:        60 * time.Minute,
			OnFocus:         true,
			FocusStaleAfter: 0,
			CallTimeout:     15 * time.Second,
		},
		Fallback: FallbackConfig{
			Enabled:             true,
			RejectExpiredTokens: false,
			ClockSkew:           30 * time.Second,
		},
		Routes: RoutesConfig{
			Login:      "/sign-in",
			AdminLogin: "/admin/login",
			Home:       "/",
			Forbidden:  "/403",
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			Async:      false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Loading: LoadingConfig{
			DefaultMessage: DefaultLoadingMessage,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Storage: StorageConfig{
			Backend:      StorageMemory,
			RedisPrefix:  "gs",
			RedisTimeout: 2 * time.Second,
		},
		API: APIConfig{
			BaseURL:         "http://localhost:7000",
			Timeout:         10 * time.Second,
			ValidatePath:    "/api/auth/validate-token",
			CurrentUserPath: "/api/users/me",
			LoginPath:       "/api/auth/login",
			RequestIDHeader: "X-Request-ID",
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistency in c.
func (c *Config) Validate() error {
	// Revalidation
	if c.Revalidation.Interval < 0 {
		return errors.New("Revalidation Interval must be >= 0")
	}
	if c.Revalidation.Interval > 0 && c.Revalidation.Interval < time.Second {
		return errors.New("Revalidation Interval must be >= 1s when enabled")
	}
	if c.Revalidation.FocusStaleAfter < 0 {
		return errors.New("Revalidation FocusStaleAfter must be >= 0")
	}
	if c.Revalidation.CallTimeout < 0 {
		return errors.New("Revalidation CallTimeout must be >= 0")
	}

	// Fallback
	if c.Fallback.ClockSkew < 0 {
		return errors.New("Fallback ClockSkew must be >= 0")
	}
	if c.Fallback.RejectExpiredTokens && !c.Fallback.Enabled {
		return errors.New("Fallback RejectExpiredTokens requires Fallback Enabled")
	}

	// Routes
	for name, path := range map[string]string{
		"Login":      c.Routes.Login,
		"AdminLogin": c.Routes.AdminLogin,
		"Home":       c.Routes.Home,
		"Forbidden":  c.Routes.Forbidden,
	} {
		if !strings.HasPrefix(path, "/") {
			return errors.New("Routes " + name + " must be an absolute path")
		}
	}
	if c.Routes.Login == c.Routes.AdminLogin {
		return errors.New("Routes Login and AdminLogin must differ")
	}

	// Notifications
	if c.Notifications.Async && c.Notifications.BufferSize <= 0 {
		return errors.New("Notifications BufferSize must be > 0 when Async is true")
	}

	// Storage
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("Storage RedisAddr required for redis backend")
		}
		if c.Storage.RedisPrefix == "" {
			return errors.New("Storage RedisPrefix must not be empty")
		}
		if c.Storage.RedisTimeout <= 0 {
			return errors.New("Storage RedisTimeout must be > 0")
		}
	case StorageFile:
		if c.Storage.FilePath == "" {
			return errors.New("Storage FilePath required for file backend")
		}
		if c.Storage.IdentityFile == "" {
			return errors.New("Storage IdentityFile required for file backend")
		}
	default:
		return errors.New("unsupported Storage Backend")
	}

	// API
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("API BaseURL must be an absolute URL")
		}
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}

	return nil
}
