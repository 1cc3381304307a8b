package goSession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	internalnotify "github.com/MrEthical07/goSession/internal/notify"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const validateKey = "validate"

// Toast copy used by the resolver.
const (
	toastLogoutTitle       = "Logged out successfully"
	toastAdminWelcome      = "Welcome Admin"
	toastAdminWelcomeDesc  = "You have been successfully logged in to the admin dashboard."
	toastAccessDenied      = "Access Denied"
	toastAccessDeniedDesc  = "This account does not have admin privileges. Only administrators can access this portal."
	toastLoginFailed       = "Login Failed"
	toastLoginFailedDetail = "Invalid email or password. Please try again."
)

type outcome struct {
	settled bool
	ok      bool
	user    User
	reason  FailureReason
}

func successOutcome(u User) outcome {
	return outcome{settled: true, ok: true, user: u}
}

func failureOutcome(reason FailureReason) outcome {
	return outcome{settled: true, reason: reason}
}

// evaluate maps the credential presence and the last settled outcome to a state.
func evaluate(present bool, out outcome) State {
	if !present {
		return UnauthenticatedState()
	}
	if !out.settled {
		return UnknownState()
	}
	if out.ok {
		return AuthenticatedState(out.user)
	}
	return UnauthenticatedState()
}

type subscriber struct {
	id uint64
	fn func(State)
}

type delivery struct {
	state State
	only  uint64
}

// Resolver owns the session state of one client.
//
// Resolver is the single writer of [State]. Reads are safe from any goroutine; UI code
// should hold a [SessionView] from [Resolver.View] instead of the resolver itself.
//
//	Docs: docs/resolver.md
type Resolver struct {
	config    Config
	store     CredentialStore
	validator SessionValidator
	fetcher   CurrentUserFetcher
	auth      Authenticator
	notifier  internalnotify.Notifier
	metrics   *Metrics
	logger    zerolog.Logger
	loading   *GlobalLoading
	now       func() time.Time
	sched     *revalidator

	group singleflight.Group

	// writeMu serialises credential writes and clears.
	writeMu sync.Mutex

	mu        sync.Mutex
	seq       uint64
	gen       uint64
	writes    uint64
	loggedOut bool
	inflight  int
	creds     Credentials
	present   bool
	out       outcome
	state     State
	settledAt time.Time
	genCtx    context.Context
	genCancel context.CancelFunc
	started   bool
	closed    bool

	subs     []subscriber
	nextSub  uint64
	queue    []delivery
	draining bool
}

// State returns the current session state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers fn and immediately delivers the current state to it. fn is then
// called once per state change, in order. The returned function unsubscribes.
//
// fn runs outside the resolver lock. It may read state, but a mutator called from fn
// is delivered only after fn returns.
func (r *Resolver) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}

	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subs = append(r.subs, subscriber{id: id, fn: fn})
	r.queue = append(r.queue, delivery{state: r.state, only: id})
	r.mu.Unlock()

	r.drain()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// View returns a read-only handle.
func (r *Resolver) View() SessionView {
	return sessionView{r: r}
}

type sessionView struct {
	r *Resolver
}

func (v sessionView) State() State { return v.r.State() }

func (v sessionView) Subscribe(fn func(State)) func() { return v.r.Subscribe(fn) }

// Loading returns the global loading indicator.
func (r *Resolver) Loading() *GlobalLoading {
	return r.loading
}

// MetricsSnapshot returns a copy of the resolver counters.
func (r *Resolver) MetricsSnapshot() MetricsSnapshot {
	return r.metrics.Snapshot()
}

// NotificationsDropped returns the number of toasts dropped by the async dispatcher.
func (r *Resolver) NotificationsDropped() uint64 {
	return r.notifier.Dropped()
}

// Start issues the eager validation and starts the revalidation schedule. It does not
// wait for the validation to settle. When ctx is cancelled the resolver is closed.
func (r *Resolver) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrResolverClosed
	}
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	if _, err := r.issue(false); err != nil {
		return err
	}
	r.sched.start()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			r.Close()
		}()
	}
	return nil
}

// Close stops the schedule, invalidates in-flight calls and flushes pending toasts.
// Close is idempotent.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.gen++
	r.genCancel()
	r.mu.Unlock()

	r.sched.stop()
	r.notifier.Close()
}

// Revalidate validates the stored credentials and waits for the settlement. Calls made
// while a validation is in flight join it instead of issuing a new one.
func (r *Resolver) Revalidate(ctx context.Context) (State, error) {
	return r.await(ctx, false)
}

// Refresh forces a new validation that supersedes any call in flight.
//
// Use it after writing credentials from outside the resolver.
func (r *Resolver) Refresh(ctx context.Context) (State, error) {
	return r.await(ctx, true)
}

// Focus revalidates on window focus, honouring Revalidation.OnFocus and FocusStaleAfter.
func (r *Resolver) Focus(ctx context.Context) (State, error) {
	if !r.config.Revalidation.OnFocus {
		return r.State(), nil
	}
	if stale := r.config.Revalidation.FocusStaleAfter; stale > 0 {
		r.mu.Lock()
		settledAt := r.settledAt
		r.mu.Unlock()
		if !settledAt.IsZero() && r.now().Sub(settledAt) < stale {
			return r.State(), nil
		}
	}
	r.metrics.Inc(MetricRevalidationFocus)
	return r.Revalidate(ctx)
}

func (r *Resolver) scheduled() {
	r.metrics.Inc(MetricRevalidationScheduled)
	if _, err := r.issue(false); err != nil {
		r.logger.Debug().Err(err).Msg("scheduled revalidation skipped")
	}
}

func (r *Resolver) await(ctx context.Context, force bool) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch, err := r.issue(force)
	if err != nil {
		return r.State(), err
	}
	select {
	case <-ch:
		return r.State(), nil
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
}

func (r *Resolver) issue(force bool) (<-chan singleflight.Result, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrResolverClosed
	}
	if force {
		r.group.Forget(validateKey)
	} else if r.inflight > 0 {
		r.metrics.Inc(MetricCoalesced)
	}
	r.mu.Unlock()

	return r.group.DoChan(validateKey, func() (any, error) {
		r.runValidation()
		return nil, nil
	}), nil
}

func (r *Resolver) runValidation() {
	for r.validateOnce() {
	}
}

// beginCall reads the store and registers a new call. The read is repeated when a local
// write or clear finished while it was running, so the call never records credentials
// that are already gone.
func (r *Resolver) beginCall() (seq, gen uint64, genCtx context.Context, creds Credentials, present bool) {
	for {
		r.mu.Lock()
		writes := r.writes
		r.mu.Unlock()

		creds, present = r.readCredentials()

		r.mu.Lock()
		if writes != r.writes {
			r.mu.Unlock()
			continue
		}
		r.seq++
		seq = r.seq
		gen = r.gen
		genCtx = r.genCtx
		r.inflight++
		r.observeCredentialsLocked(creds, present)
		r.mu.Unlock()
		r.drain()
		return seq, gen, genCtx, creds, present
	}
}

// validateOnce runs one validation and reports whether different credentials appeared
// in the store while it ran, in which case they need a validation of their own.
func (r *Resolver) validateOnce() (again bool) {
	seq, gen, genCtx, creds, present := r.beginCall()

	defer func() {
		r.mu.Lock()
		r.inflight--
		r.mu.Unlock()
	}()

	if !present {
		return r.settle(seq, gen, creds, false, failureOutcome(ReasonUnknown))
	}

	ctx, cancel := r.callContext(genCtx)
	defer cancel()

	start := time.Now()
	user, err := r.validator.Validate(ctx, creds.Token)
	r.metrics.Observe(MetricValidateLatency, time.Since(start))
	if err == nil && user.ID == "" {
		err = NewValidationError(ReasonMalformed, 0, errors.New("user id missing"))
	}
	if err == nil {
		r.metrics.Inc(MetricValidationSuccess)
		return r.settle(seq, gen, creds, true, successOutcome(normaliseUser(user)))
	}

	reason := ReasonOf(err)
	r.metrics.Inc(failureMetric(reason))
	r.logger.Debug().
		Uint64("seq", seq).
		Str("phase", "validate").
		Str("reason", reason.String()).
		Err(err).
		Msg("session validation failed")

	if ok, again := r.current(seq, gen, creds, "validate"); !ok {
		return again
	}

	if !r.fallbackAllowed(creds.Token) {
		return r.settle(seq, gen, creds, true, failureOutcome(reason))
	}

	r.metrics.Inc(MetricFallbackAttempt)
	user, ferr := r.fetcher.CurrentUser(ctx, creds.Token)
	if ferr == nil && user.ID == "" {
		ferr = NewValidationError(ReasonMalformed, 0, errors.New("user id missing"))
	}
	if ferr != nil {
		r.metrics.Inc(MetricFallbackFailure)
		r.logger.Debug().
			Uint64("seq", seq).
			Str("phase", "fallback").
			Str("reason", ReasonOf(ferr).String()).
			Err(ferr).
			Msg("current user lookup failed")
		return r.settle(seq, gen, creds, true, failureOutcome(ReasonOf(ferr)))
	}

	r.metrics.Inc(MetricFallbackSuccess)
	return r.settle(seq, gen, creds, true, successOutcome(normaliseUser(user)))
}

func (r *Resolver) fallbackAllowed(token string) bool {
	if !r.config.Fallback.Enabled || r.fetcher == nil {
		return false
	}
	if !r.config.Fallback.RejectExpiredTokens {
		return true
	}
	if jwt.Expired(token, r.now(), r.config.Fallback.ClockSkew) {
		r.metrics.Inc(MetricFallbackSkipped)
		return false
	}
	return true
}

func (r *Resolver) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout := r.config.Revalidation.CallTimeout; timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

// current reports whether a call is still the latest issued one for unchanged
// credentials. When only the store moved, state is recomputed from what it holds now
// and again reports whether those credentials still need validating.
func (r *Resolver) current(seq, gen uint64, captured Credentials, phase string) (ok, again bool) {
	creds, present := r.readCredentials()

	r.mu.Lock()
	if seq != r.seq || gen != r.gen {
		r.mu.Unlock()
		r.discard(seq, phase)
		return false, false
	}
	if !present || !creds.sameIdentity(captured) {
		r.observeCredentialsLocked(creds, present)
		again = present && !r.closed
		r.mu.Unlock()
		r.drain()
		r.discard(seq, phase)
		return false, again
	}
	r.mu.Unlock()
	return true, false
}

func (r *Resolver) settle(seq, gen uint64, captured Credentials, capturedPresent bool, out outcome) (again bool) {
	creds, present := r.readCredentials()

	r.mu.Lock()
	if seq != r.seq || gen != r.gen {
		r.mu.Unlock()
		r.discard(seq, "settle")
		return false
	}
	if present != capturedPresent || (present && !creds.sameIdentity(captured)) {
		r.observeCredentialsLocked(creds, present)
		again = present && !r.closed
		r.mu.Unlock()
		r.drain()
		r.discard(seq, "settle")
		return again
	}
	r.observeCredentialsLocked(creds, present)
	r.out = out
	r.settledAt = r.now()
	r.publishLocked(evaluate(r.present, r.out))
	r.mu.Unlock()

	r.drain()
	return false
}

func (r *Resolver) discard(seq uint64, phase string) {
	r.metrics.Inc(MetricStaleDiscarded)
	r.logger.Debug().
		Uint64("seq", seq).
		Str("phase", phase).
		Bool("stale", true).
		Msg("discarded superseded validation result")
}

// observeCredentialsLocked records the store contents and resets the outcome when the
// credential identity changed.
func (r *Resolver) observeCredentialsLocked(creds Credentials, present bool) {
	if present == r.present && (!present || creds.sameIdentity(r.creds)) {
		r.creds = creds
		return
	}
	r.creds = creds
	r.present = present
	if present {
		r.loggedOut = false
	}
	r.out = outcome{}
	r.publishLocked(evaluate(r.present, r.out))
}

func (r *Resolver) publishLocked(next State) {
	if next == r.state {
		return
	}
	r.state = next
	r.queue = append(r.queue, delivery{state: next})
}

func (r *Resolver) drain() {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		return
	}
	r.draining = true
	for len(r.queue) > 0 {
		d := r.queue[0]
		r.queue = r.queue[1:]

		fns := make([]func(State), 0, len(r.subs))
		for _, s := range r.subs {
			if d.only == 0 || d.only == s.id {
				fns = append(fns, s.fn)
			}
		}

		r.mu.Unlock()
		for _, fn := range fns {
			fn(d.state)
		}
		r.mu.Lock()
	}
	r.draining = false
	r.mu.Unlock()
}

func (r *Resolver) readCredentials() (Credentials, bool) {
	creds, ok := r.store.Read()
	if !ok || !creds.Present() {
		return Credentials{}, false
	}
	return creds, true
}

// Logout clears the stored credentials and moves to Unauthenticated. In-flight
// validations can no longer affect state. One success toast is shown. A second call
// with nothing to clear is a no-op.
//
// Logout is local only; the server is not asked to revoke the token.
func (r *Resolver) Logout() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, present := r.readCredentials()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrResolverClosed
	}
	if !present && !r.present && r.state.Kind() == StateUnauthenticated {
		r.mu.Unlock()
		return nil
	}
	announce := !r.loggedOut
	r.invalidateLocked()
	r.mu.Unlock()

	clearErr := r.store.Clear()

	r.mu.Lock()
	r.clearedLocked()
	r.loggedOut = true
	r.mu.Unlock()
	r.drain()

	if announce {
		r.metrics.Inc(MetricLogout)
		r.toast(ToastMessage{Title: toastLogoutTitle, Kind: ToastSuccess})
	}

	if clearErr != nil {
		r.logger.Warn().Err(clearErr).Msg("credential clear failed on logout")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, clearErr)
	}
	return nil
}

// invalidateLocked bumps the generation so that no call issued before it can settle.
func (r *Resolver) invalidateLocked() {
	r.gen++
	r.genCancel()
	r.genCtx, r.genCancel = context.WithCancel(context.Background())
	r.group.Forget(validateKey)
}

// clearedLocked records a finished local clear.
func (r *Resolver) clearedLocked() {
	r.writes++
	r.creds = Credentials{}
	r.present = false
	r.out = outcome{}
	r.publishLocked(UnauthenticatedState())
}

// SignIn exchanges email and password for a token, persists the credentials and waits
// for the validation that follows.
func (r *Resolver) SignIn(ctx context.Context, email, password string) (State, error) {
	res, err := r.signIn(ctx, email, password)
	if err != nil {
		return r.State(), err
	}
	if err := r.establish(res); err != nil {
		return r.State(), err
	}
	return r.Refresh(ctx)
}

// AdminSignIn signs in through the admin portal. A non-admin account has its
// credentials cleared and gets [ErrAdminRequired]. Every outcome shows a toast.
func (r *Resolver) AdminSignIn(ctx context.Context, email, password string) (State, error) {
	res, err := r.signIn(ctx, email, password)
	if err != nil {
		r.toast(ToastMessage{Title: toastLoginFailed, Description: signInFailureDetail(err), Kind: ToastError})
		return r.State(), err
	}

	if ParseRole(string(res.User.Role)) != RoleAdmin {
		r.metrics.Inc(MetricAdminSignInRejected)
		clearErr := r.reset()
		r.toast(ToastMessage{Title: toastAccessDenied, Description: toastAccessDeniedDesc, Kind: ToastError})
		if clearErr != nil {
			return r.State(), errors.Join(ErrAdminRequired, clearErr)
		}
		return r.State(), ErrAdminRequired
	}

	if err := r.establish(res); err != nil {
		return r.State(), err
	}
	r.toast(ToastMessage{Title: toastAdminWelcome, Description: toastAdminWelcomeDesc, Kind: ToastSuccess})
	return r.Refresh(ctx)
}

func (r *Resolver) signIn(ctx context.Context, email, password string) (SignInResult, error) {
	if r.isClosed() {
		return SignInResult{}, ErrResolverClosed
	}
	if r.auth == nil {
		return SignInResult{}, ErrResolverNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := r.auth.SignIn(ctx, email, password)
	if err == nil && (res.Token == "" || res.User.ID == "") {
		err = NewValidationError(ReasonMalformed, 0, errors.New("sign-in response missing token or user id"))
	}
	if err != nil {
		r.metrics.Inc(MetricSignInFailure)
		r.logger.Debug().Err(err).Msg("sign-in failed")
		return SignInResult{}, err
	}
	r.metrics.Inc(MetricSignInSuccess)
	return res, nil
}

// establish writes fresh credentials and resets the session to Unknown.
func (r *Resolver) establish(res SignInResult) error {
	creds := Credentials{
		Token:  res.Token,
		UserID: res.User.ID,
		Display: DisplayCache{
			Email: res.User.Email,
			Name:  res.User.DisplayName(),
		},
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.store.Write(creds); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	r.mu.Lock()
	r.invalidateLocked()
	r.writes++
	r.loggedOut = false
	r.observeCredentialsLocked(creds, true)
	r.mu.Unlock()
	r.drain()
	return nil
}

// reset clears credentials without the logout toast.
func (r *Resolver) reset() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	r.invalidateLocked()
	r.mu.Unlock()

	err := r.store.Clear()

	r.mu.Lock()
	r.clearedLocked()
	r.mu.Unlock()
	r.drain()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ShowToast forwards msg to the notification sink.
func (r *Resolver) ShowToast(msg ToastMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToast, err)
	}
	r.toast(msg)
	return nil
}

func (r *Resolver) toast(msg ToastMessage) {
	if !r.config.Notifications.Enabled {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.now()
	}
	r.notifier.Notify(context.Background(), msg)
}

func (r *Resolver) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// signInFailureDetail prefers the server's message over the generic copy.
func signInFailureDetail(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Err != nil && ve.Err.Error() != "" {
			return ve.Err.Error()
		}
		return toastLoginFailedDetail
	}
	if errors.Is(err, ErrResolverNotReady) || errors.Is(err, ErrResolverClosed) || err.Error() == "" {
		return toastLoginFailedDetail
	}
	return err.Error()
}

func normaliseUser(u User) User {
	u.Role = ParseRole(string(u.Role))
	return u
}
