// Package auth delegates credential checks and account management to a
// GoTrue-compatible identity provider (Supabase Auth).
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Verifier validates a bearer token and returns the caller it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Accounts manages provider-side accounts and sessions.
type Accounts interface {
	CreateUser(ctx context.Context, email, password, name string) (User, error)
	SignInWithPassword(ctx context.Context, email, password string) (Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}

// ErrUnauthorized indicates a missing, malformed, expired or rejected credential.
var ErrUnauthorized = errors.New("unauthorized")

// Phase names the provider call an UpstreamError came from.
type Phase string

const (
	PhaseVerify     Phase = "verify"
	PhaseCreateUser Phase = "create_user"
	PhaseSignIn     Phase = "sign_in"
	PhaseRefresh    Phase = "refresh"
)

// UpstreamError is a failure reported by, or while reaching, the identity provider.
// Status is the provider's HTTP status, or 0 when no response was received.
type UpstreamError struct {
	Phase   Phase
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("identity provider %s: status %d: %s", e.Phase, e.Status, e.Message)
	}
	return fmt.Sprintf("identity provider %s: %v", e.Phase, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Rejected reports whether the provider answered with a client error,
// as opposed to being unreachable or failing internally.
func (e *UpstreamError) Rejected() bool {
	return e.Status >= 400 && e.Status < 500
}

type ctxKey string

const identityKey ctxKey = "resourcehub.identity"

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext fetches the authenticated caller from ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
