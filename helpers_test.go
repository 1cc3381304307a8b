package goSession

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeStore is an in-package CredentialStore with failure injection.
type fakeStore struct {
	mu       sync.Mutex
	creds    Credentials
	readErr  bool
	writeErr error
	clearErr error
	writes   int
	clears   int
}

func newFakeStore(c Credentials) *fakeStore {
	return &fakeStore{creds: c}
}

func (s *fakeStore) Read() (Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr || !s.creds.Present() {
		return Credentials{}, false
	}
	return s.creds, true
}

func (s *fakeStore) Write(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.creds = c
	return nil
}

func (s *fakeStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.creds = Credentials{}
	return nil
}

func (s *fakeStore) snapshot() (Credentials, bool) {
	return s.Read()
}

type answer struct {
	user User
	err  error
}

type pendingCall struct {
	ctx   context.Context
	token string
	reply chan answer
}

// gatedBackend parks every call until the test answers it.
type gatedBackend struct {
	calls chan *pendingCall
	count atomic.Int64
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{calls: make(chan *pendingCall, 16)}
}

func (g *gatedBackend) Validate(ctx context.Context, token string) (User, error) {
	return g.park(ctx, token)
}

func (g *gatedBackend) CurrentUser(ctx context.Context, token string) (User, error) {
	return g.park(ctx, token)
}

func (g *gatedBackend) park(ctx context.Context, token string) (User, error) {
	g.count.Add(1)
	c := &pendingCall{ctx: ctx, token: token, reply: make(chan answer, 1)}
	g.calls <- c
	select {
	case a := <-c.reply:
		return a.user, a.err
	case <-ctx.Done():
		return User{}, ctx.Err()
	}
}

func (g *gatedBackend) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a backend call")
		return nil
	}
}

// fixedBackend answers validate and fallback calls from fixed replies.
type fixedBackend struct {
	validate answer
	fallback answer

	validations atomic.Int64
	fallbacks   atomic.Int64
}

func (f *fixedBackend) Validate(context.Context, string) (User, error) {
	f.validations.Add(1)
	return f.validate.user, f.validate.err
}

func (f *fixedBackend) CurrentUser(context.Context, string) (User, error) {
	f.fallbacks.Add(1)
	return f.fallback.user, f.fallback.err
}

type fakeAuth struct {
	res SignInResult
	err error
}

func (a fakeAuth) SignIn(context.Context, string, string) (SignInResult, error) {
	return a.res, a.err
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Revalidation.Interval = 0
	return cfg
}

func buildTestResolver(t *testing.T, cfg Config, store CredentialStore, v SessionValidator, sink NotificationSink) *Resolver {
	t.Helper()

	b := New().WithConfig(cfg).WithCredentialStore(store).WithValidator(v)
	if sink != nil {
		b.WithNotificationSink(sink)
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func drainToasts(sink *ChannelSink) []ToastMessage {
	var out []ToastMessage
	for {
		select {
		case m := <-sink.Messages():
			out = append(out, m)
		default:
			return out
		}
	}
}

var (
	credsT1   = Credentials{Token: "t1", UserID: "u1"}
	userAdmin = User{ID: "u1", FirstName: "Ada", Role: RoleAdmin}
	userPlain = User{ID: "u1", FirstName: "Una", Role: RoleUser}
	errDown   = NewValidationError(ReasonNetwork, 503, errors.New("upstream down"))
	errReject = NewValidationError(ReasonInvalid, 401, errors.New("Unauthorized"))
)
