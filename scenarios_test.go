package goSession_test

import (
	"context"
	"errors"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/credentials"
	"github.com/MrEthical07/goSession/gate"
)

func newScenarioResolver(t *testing.T, store goSession.CredentialStore, validate, fallback goSession.ValidatorFunc, sink goSession.NotificationSink) *goSession.Resolver {
	t.Helper()

	cfg := goSession.DefaultConfig()
	cfg.Revalidation.Interval = 0

	b := goSession.New().
		WithConfig(cfg).
		WithCredentialStore(store).
		WithValidator(validate).
		WithCurrentUserFetcher(goSession.FetcherFunc(fallback))
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

func returns(u goSession.User, err error) goSession.ValidatorFunc {
	return func(context.Context, string) (goSession.User, error) { return u, err }
}

func TestScenarioAdminValidatedIsAllowed(t *testing.T) {
	store := credentials.NewMemoryWith(goSession.Credentials{Token: "t1", UserID: "u1"})
	r := newScenarioResolver(t, store,
		returns(goSession.User{ID: "u1", Role: goSession.RoleAdmin}, nil),
		returns(goSession.User{}, errors.New("unused")), nil)

	state, err := r.Revalidate(context.Background())
	if err != nil {
		t.Fatalf("Revalidate failed: %v", err)
	}
	if got := gate.Decide(state, goSession.RoleAdmin); got != gate.Allow {
		t.Fatalf("expected Allow, got %v", got)
	}
}

func TestScenarioAbsentCredentialsRedirect(t *testing.T) {
	r := newScenarioResolver(t, credentials.NewMemory(),
		returns(goSession.User{ID: "u1"}, nil),
		returns(goSession.User{ID: "u1"}, nil), nil)

	state := r.State()
	if got := gate.Decide(state, goSession.RoleAdmin); got != gate.RedirectToAdminLogin {
		t.Fatalf("admin route: expected RedirectToAdminLogin, got %v", got)
	}
	if got := gate.Decide(state); got != gate.RedirectToLogin {
		t.Fatalf("generic route: expected RedirectToLogin, got %v", got)
	}
}

func TestScenarioNetworkThenInvalidKeepsCredentials(t *testing.T) {
	store := credentials.NewMemoryWith(goSession.Credentials{Token: "t1", UserID: "u1"})
	sink := goSession.NewChannelSink(4)
	r := newScenarioResolver(t, store,
		returns(goSession.User{}, goSession.NewValidationError(goSession.ReasonNetwork, 0, errors.New("dial tcp: refused"))),
		returns(goSession.User{}, goSession.NewValidationError(goSession.ReasonInvalid, 401, nil)),
		sink)

	state, err := r.Revalidate(context.Background())
	if err != nil {
		t.Fatalf("Revalidate failed: %v", err)
	}
	if state.Kind() != goSession.StateUnauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", state)
	}
	if c, ok := store.Read(); !ok || c.Token != "t1" || c.UserID != "u1" {
		t.Fatalf("expected credentials to remain, got %+v ok=%v", c, ok)
	}
	select {
	case m := <-sink.Messages():
		t.Fatalf("validation failure must not toast, got %+v", m)
	default:
	}
}

func TestScenarioPlainUserOnAdminRouteGoesHome(t *testing.T) {
	store := credentials.NewMemoryWith(goSession.Credentials{Token: "t1", UserID: "u1"})
	r := newScenarioResolver(t, store,
		returns(goSession.User{ID: "u1", Role: goSession.RoleUser}, nil),
		returns(goSession.User{}, errors.New("unused")), nil)

	state, _ := r.Revalidate(context.Background())
	if got := gate.Decide(state, goSession.RoleAdmin); got != gate.RedirectHome {
		t.Fatalf("expected RedirectHome, got %v", got)
	}
}

func TestScenarioLogoutFromAuthenticated(t *testing.T) {
	store := credentials.NewMemoryWith(goSession.Credentials{Token: "t1", UserID: "u1"})
	sink := goSession.NewChannelSink(4)
	r := newScenarioResolver(t, store,
		returns(goSession.User{ID: "u1", Role: goSession.RoleAdmin}, nil),
		returns(goSession.User{}, errors.New("unused")), sink)

	if state, _ := r.Revalidate(context.Background()); !state.IsAuthenticated() {
		t.Fatalf("expected Authenticated before logout, got %v", state)
	}
	if err := r.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, ok := store.Read(); ok {
		t.Fatal("expected credentials absent after logout")
	}
	if got := r.State().Kind(); got != goSession.StateUnauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", got)
	}

	select {
	case m := <-sink.Messages():
		if m.Kind != goSession.ToastSuccess {
			t.Fatalf("expected SUCCESS toast, got %+v", m)
		}
	default:
		t.Fatal("expected a logout toast")
	}
	select {
	case m := <-sink.Messages():
		t.Fatalf("expected exactly one toast, got extra %+v", m)
	default:
	}
}

func TestScenarioUnknownShowsLoadingForEveryRoute(t *testing.T) {
	store := credentials.NewMemoryWith(goSession.Credentials{Token: "t1", UserID: "u1"})
	r := newScenarioResolver(t, store,
		returns(goSession.User{ID: "u1"}, nil),
		returns(goSession.User{ID: "u1"}, nil), nil)

	state := r.View().State()
	for _, roles := range [][]goSession.Role{nil, {goSession.RoleAdmin}, {goSession.RoleHotelOwner, goSession.RoleAdmin}} {
		if got := gate.Decide(state, roles...); got != gate.ShowLoading {
			t.Fatalf("roles %v: expected ShowLoading, got %v", roles, got)
		}
	}
}
