// Package client is a Go client for the resource API. Each Client owns its
// session explicitly: Login or SignUp acquire it, Refresh renews it and
// Logout drops it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a resource server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu      sync.Mutex
	session *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession starts the client with an existing session, e.g. a token
// passed on the command line.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the server at baseURL (including any API base path).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SignUp creates an account and keeps the returned session.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*Session, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	return c.acquire(ctx, "/signup", body, email)
}

// Login signs in and keeps the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	return c.acquire(ctx, "/login", body, email)
}

// Refresh renews the current session with its refresh token.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	cur := c.Session()
	if cur == nil {
		return nil, ErrNoSession
	}
	if cur.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	return c.acquire(ctx, "/token/refresh", map[string]string{"refresh_token": cur.RefreshToken}, cur.Email)
}

// Logout drops the session. Tokens are not revoked server-side.
func (c *Client) Logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

func (c *Client) acquire(ctx context.Context, path string, body any, email string) (*Session, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out sessionResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}

	s := &Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Email:        email,
		UserID:       out.User.ID,
	}
	if out.User.Email != "" {
		s.Email = out.User.Email
	}
	if out.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	cp := *s
	return &cp, nil
}

// Upload sends one file. An empty mimeType is guessed from the file name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, mimeType string, tags []string) (*Resource, error) {
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": name}))
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := w.WriteField("tags", string(tagsJSON)); err != nil {
		return nil, fmt.Errorf("write tags: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.authedRequest(ctx, http.MethodPost, "/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		Resource Resource `json:"resource"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out.Resource, nil
}

// List returns resources matching opts, newest first.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/resources"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := c.authedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out ListResult
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tags returns the distinct tags in use.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	req, err := c.authedRequest(ctx, http.MethodGet, "/tags", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// Download writes the payload of resource id to w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (*DownloadInfo, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	req, err := c.authedRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	info := &DownloadInfo{ContentType: resp.Header.Get("Content-Type"), Size: n}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		info.FileName = params["filename"]
	}
	return info, nil
}

// Delete removes resource id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	req, err := c.authedRequest(ctx, http.MethodDelete, "/resources/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// authedRequest builds a request carrying the session's bearer token,
// refreshing an expired session first when possible.
func (c *Client) authedRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	s := c.Session()
	if s == nil || s.AccessToken == "" {
		return nil, ErrNoSession
	}
	if s.Expired(c.now()) && s.RefreshToken != "" {
		var err error
		if s, err = c.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		e.Code = body.Error.Code
		e.Message = body.Error.Message
		if body.RequestID != "" {
			e.RequestID = body.RequestID
		}
	}
	return e
}
