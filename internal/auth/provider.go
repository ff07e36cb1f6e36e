package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resourcehub/internal/config"
)

// User is the account record returned by the provider.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Name returns user_metadata.name when present.
func (u User) Name() string {
	if n, ok := u.UserMetadata["name"].(string); ok {
		return n
	}
	return ""
}

// Tokens is a session issued by the provider.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         User   `json:"user"`
}

// Provider talks to the GoTrue REST API. The anon key authenticates public
// calls; the service-role key is only used for admin account creation.
type Provider struct {
	baseURL    string
	anonKey    string
	serviceKey string
	client     *http.Client
}

var (
	_ Verifier = (*Provider)(nil)
	_ Accounts = (*Provider)(nil)
)

// NewProvider builds a provider client from cfg. A nil httpClient gets a
// traced client with cfg.Timeout.
func NewProvider(cfg config.AuthConfig, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Provider{
		baseURL:    cfg.URL,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		client:     httpClient,
	}
}

// Verify resolves an access token to the user it was issued for.
func (p *Provider) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	var u User
	err := p.do(ctx, PhaseVerify, http.MethodGet, "/auth/v1/user", nil, p.anonKey, token, &u)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) && (ue.Status == http.StatusUnauthorized || ue.Status == http.StatusForbidden) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}
	if u.ID == "" {
		return Identity{}, ErrUnauthorized
	}
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name()}, nil
}

// CreateUser registers a confirmed account through the admin API.
func (p *Provider) CreateUser(ctx context.Context, email, password, name string) (User, error) {
	if p.serviceKey == "" {
		return User{}, &UpstreamError{Phase: PhaseCreateUser, Err: errors.New("service role key is not configured")}
	}
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]string{"name": name},
	}
	var u User
	if err := p.do(ctx, PhaseCreateUser, http.MethodPost, "/auth/v1/admin/users", body, p.serviceKey, p.serviceKey, &u); err != nil {
		return User{}, err
	}
	if u.ID == "" {
		return User{}, &UpstreamError{Phase: PhaseCreateUser, Err: errors.New("provider returned no user")}
	}
	return u, nil
}

// SignInWithPassword exchanges credentials for a session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (Tokens, error) {
	body := map[string]string{"email": email, "password": password}
	return p.token(ctx, PhaseSignIn, "password", body)
}

// Refresh exchanges a refresh token for a new session.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return p.token(ctx, PhaseRefresh, "refresh_token", body)
}

func (p *Provider) token(ctx context.Context, phase Phase, grant string, body any) (Tokens, error) {
	var t Tokens
	path := "/auth/v1/token?grant_type=" + url.QueryEscape(grant)
	if err := p.do(ctx, phase, http.MethodPost, path, body, p.anonKey, "", &t); err != nil {
		return Tokens{}, err
	}
	if t.AccessToken == "" {
		return Tokens{}, &UpstreamError{Phase: phase, Err: errors.New("provider returned no access token")}
	}
	return t, nil
}

// do performs one provider call. No retries: a failure is reported to the caller as-is.
func (p *Provider) do(ctx context.Context, phase Phase, method, path string, in any, apiKey, bearer string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &UpstreamError{Phase: phase, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return &UpstreamError{Phase: phase, Err: err}
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &UpstreamError{Phase: phase, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &UpstreamError{Phase: phase, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Phase: phase, Status: resp.StatusCode, Message: providerMessage(raw, resp.Status)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &UpstreamError{Phase: phase, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// providerMessage extracts the human-readable reason from a GoTrue error body.
func providerMessage(raw []byte, fallback string) string {
	var e struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil {
		for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
			if s != "" {
				return s
			}
		}
	}
	return fallback
}
