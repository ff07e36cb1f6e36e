package client

import "time"

// Session holds the tokens of a signed-in user. It is owned by the Client
// that created it; there is no process-wide session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Email        string    `json:"email,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
}

// Expired reports whether the access token is past its expiry. A session
// without a known expiry never expires client-side.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
