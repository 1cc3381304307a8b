package goSession

import (
	"context"
	"errors"
	"time"

	internalnotify "github.com/MrEthical07/goSession/internal/notify"
	"github.com/rs/zerolog"
)

// Builder assembles a [Resolver].
//
// Builder instances are intended to be configured during initialization and then discarded
// after [Builder.Build].
type Builder struct {
	config Config

	store     CredentialStore
	validator SessionValidator
	fetcher   CurrentUserFetcher
	auth      Authenticator
	sink      NotificationSink
	logger    *zerolog.Logger
	now       func() time.Time

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCredentialStore sets the credential store. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithValidator sets the primary validator. Required.
//
// When v also implements [CurrentUserFetcher] or [Authenticator] it is used for those
// roles unless they are set explicitly.
func (b *Builder) WithValidator(v SessionValidator) *Builder {
	b.validator = v
	return b
}

// WithCurrentUserFetcher sets the fallback lookup.
func (b *Builder) WithCurrentUserFetcher(f CurrentUserFetcher) *Builder {
	b.fetcher = f
	return b
}

// WithAuthenticator sets the sign-in backend used by [Resolver.SignIn].
func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.auth = a
	return b
}

// WithNotificationSink sets where toasts are displayed.
func (b *Builder) WithNotificationSink(sink NotificationSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the diagnostic logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock overrides the time source used for settlement timestamps and token expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a resolver whose initial state is
// already computed from the stored credentials. Call [Resolver.Start] to validate.
func (b *Builder) Build() (*Resolver, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if b.validator == nil {
		return nil, errors.New("session validator required")
	}

	fetcher := b.fetcher
	if fetcher == nil {
		fetcher, _ = b.validator.(CurrentUserFetcher)
	}
	if fetcher == nil && cfg.Fallback.Enabled {
		return nil, errors.New("current user fetcher required when Fallback is enabled")
	}

	auth := b.auth
	if auth == nil {
		auth, _ = b.validator.(Authenticator)
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	sink := b.sink
	if sink == nil {
		sink = internalnotify.NoOpSink{}
	}

	r := &Resolver{
		config:    cfg,
		store:     b.store,
		validator: b.validator,
		fetcher:   fetcher,
		auth:      auth,
		notifier: internalnotify.New(internalnotify.Config{
			Async:      cfg.Notifications.Async,
			BufferSize: cfg.Notifications.BufferSize,
			DropIfFull: cfg.Notifications.DropIfFull,
		}, sink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		loading: NewGlobalLoading(cfg.Loading.DefaultMessage),
		now:     now,
	}
	r.genCtx, r.genCancel = context.WithCancel(context.Background())
	r.sched = newRevalidator(cfg.Revalidation.Interval, logger, r.scheduled)

	creds, present := r.readCredentials()
	r.creds = creds
	r.present = present
	r.state = evaluate(present, outcome{})

	b.built = true
	return r, nil
}
