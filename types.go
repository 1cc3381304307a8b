package goSession

import (
	"context"
	"io"
	"strings"

	internalnotify "github.com/MrEthical07/goSession/internal/notify"
	"github.com/rs/zerolog"
)

// Role is the access tier carried by an authenticated user.
//
//	Docs: docs/roles.md
type Role string

const (
	// RoleUser is the default tier for every signed-in customer.
	RoleUser Role = "user"
	// RoleHotelOwner can reach the business insights surface.
	RoleHotelOwner Role = "hotel_owner"
	// RoleAdmin can reach the admin portal.
	RoleAdmin Role = "admin"
)

// ParseRole normalises a wire role. Empty or unrecognised values map to [RoleUser].
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleHotelOwner:
		return RoleHotelOwner
	default:
		return RoleUser
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleHotelOwner || r == RoleAdmin
}

// User is the identity returned by token validation.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
}

// DisplayName joins the first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayCache holds the optional profile fields persisted next to the token.
// They are a rendering hint only and never participate in access decisions.
type DisplayCache struct {
	Email string
	Name  string
}

// Credentials is the durable token and user-identifier pair proving a prior sign-in.
//
// A value with either Token or UserID empty is treated as absent.
//
//	Docs: docs/credentials.md
type Credentials struct {
	Token   string
	UserID  string
	Display DisplayCache
}

// Present reports whether both halves of the pair are set.
func (c Credentials) Present() bool {
	return c.Token != "" && c.UserID != ""
}

func (c Credentials) sameIdentity(other Credentials) bool {
	return c.Token == other.Token && c.UserID == other.UserID
}

// CredentialStore persists [Credentials] locally.
//
// Implementations are synchronous from the resolver's point of view. Read must degrade
// storage failures to (Credentials{}, false).
//
//	Docs: docs/credentials.md
type CredentialStore interface {
	Read() (Credentials, bool)
	Write(Credentials) error
	Clear() error
}

// SessionValidator checks a stored token against the server.
//
// Failures should be returned as a [*ValidationError] so the resolver can record a reason;
// any other error is classified with [ReasonOf].
type SessionValidator interface {
	Validate(ctx context.Context, token string) (User, error)
}

// CurrentUserFetcher is the secondary endpoint used only on the fallback path.
type CurrentUserFetcher interface {
	CurrentUser(ctx context.Context, token string) (User, error)
}

// SignInResult is returned by a successful [Authenticator.SignIn].
type SignInResult struct {
	Token string
	User  User
}

// Authenticator exchanges an email and password for a token.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (SignInResult, error)
}

// ValidatorFunc adapts a function to [SessionValidator].
type ValidatorFunc func(ctx context.Context, token string) (User, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, token string) (User, error) {
	return f(ctx, token)
}

// FetcherFunc adapts a function to [CurrentUserFetcher].
type FetcherFunc func(ctx context.Context, token string) (User, error)

// CurrentUser calls f.
func (f FetcherFunc) CurrentUser(ctx context.Context, token string) (User, error) {
	return f(ctx, token)
}

// StateKind tags a [State].
type StateKind uint8

const (
	// StateUnknown means credentials exist but no validation has settled yet.
	StateUnknown StateKind = iota
	// StateAuthenticated means the last settled validation produced a user.
	StateAuthenticated
	// StateUnauthenticated means there are no credentials or validation failed.
	StateUnauthenticated
)

func (k StateKind) String() string {
	switch k {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is the resolved session. The zero value is Unknown.
//
// State is comparable; two states are equal when they have the same kind and user.
type State struct {
	kind StateKind
	user User
}

// UnknownState returns the initial state.
func UnknownState() State { return State{kind: StateUnknown} }

// UnauthenticatedState returns the signed-out state.
func UnauthenticatedState() State { return State{kind: StateUnauthenticated} }

// AuthenticatedState returns a signed-in state for u. An invalid role is normalised to
// [RoleUser].
func AuthenticatedState(u User) State {
	if !u.Role.Valid() {
		u.Role = ParseRole(string(u.Role))
	}
	return State{kind: StateAuthenticated, user: u}
}

// Kind returns the state tag.
func (s State) Kind() StateKind { return s.kind }

// User returns the authenticated user. ok is false for every other kind.
func (s State) User() (User, bool) {
	if s.kind != StateAuthenticated {
		return User{}, false
	}
	return s.user, true
}

// Role returns the authenticated user's role. ok is false for every other kind.
func (s State) Role() (Role, bool) {
	if s.kind != StateAuthenticated {
		return "", false
	}
	return s.user.Role, true
}

// IsAuthenticated reports whether s is Authenticated.
func (s State) IsAuthenticated() bool { return s.kind == StateAuthenticated }

func (s State) String() string {
	if s.kind == StateAuthenticated {
		return "authenticated(" + s.user.ID + "," + string(s.user.Role) + ")"
	}
	return s.kind.String()
}

// SessionView is the read-only handle handed to UI consumers.
type SessionView interface {
	State() State
	Subscribe(fn func(State)) (cancel func())
}

// ToastKind classifies a toast.
type ToastKind = internalnotify.Kind

const (
	// ToastSuccess renders as a success toast.
	ToastSuccess = internalnotify.KindSuccess
	// ToastError renders as a destructive toast.
	ToastError = internalnotify.KindError
	// ToastInfo renders as a neutral toast.
	ToastInfo = internalnotify.KindInfo
)

// ToastMessage is a user-facing notification.
type ToastMessage = internalnotify.Message

// NotificationSink displays toasts.
type NotificationSink = internalnotify.Sink

// NoOpSink discards every toast.
type NoOpSink = internalnotify.NoOpSink

// ChannelSink buffers toasts in a channel.
type ChannelSink = internalnotify.ChannelSink

// JSONWriterSink writes toasts as JSON lines.
type JSONWriterSink = internalnotify.JSONWriterSink

// LogSink writes toasts to a zerolog logger.
type LogSink = internalnotify.LogSink

// NewChannelSink creates a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalnotify.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalnotify.NewJSONWriterSink(w)
}

// NewLogSink creates a [LogSink] writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return internalnotify.NewLogSink(logger)
}
