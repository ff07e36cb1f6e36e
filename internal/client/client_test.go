package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"request_id": "req-1",
		"error":      map[string]string{"code": code, "message": msg},
	})
}

func sessionBody(access, refresh string) map[string]any {
	return map[string]any{
		"success":       true,
		"user":          map[string]string{"id": "u-1", "email": "a@b.io"},
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    3600,
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8080/api/")
	assert.Equal(t, "http://localhost:8080/api", c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Nil(t, c.Session())
}

func TestLogin(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.io", body["email"])
		assert.Equal(t, "secret", body["password"])

		writeJSON(w, http.StatusOK, sessionBody("acc-1", "ref-1"))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", withClock(func() time.Time { return now }))
	s, err := c.Login(context.Background(), "a@b.io", "secret")
	require.NoError(t, err)

	assert.Equal(t, "acc-1", s.AccessToken)
	assert.Equal(t, "ref-1", s.RefreshToken)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
	assert.Equal(t, s, c.Session())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid login credentials")
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "a@b.io", "bad")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.Nil(t, c.Session())
}

func TestSignUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signup", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["name"])
		writeJSON(w, http.StatusOK, sessionBody("acc-1", ""))
	}))
	defer srv.Close()

	c := New(srv.URL)
	s, err := c.SignUp(context.Background(), "a@b.io", "secret123", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", s.AccessToken)
	assert.Equal(t, "a@b.io", s.Email)
}

func TestRefresh(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		_, err := New("http://unused").Refresh(context.Background())
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("no refresh token", func(t *testing.T) {
		c := New("http://unused", WithSession(&Session{AccessToken: "tok"}))
		_, err := c.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrNoRefreshToken)
	})

	t.Run("renews tokens", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/token/refresh", r.URL.Path)
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ref-1", body["refresh_token"])
			writeJSON(w, http.StatusOK, sessionBody("acc-2", "ref-2"))
		}))
		defer srv.Close()

		c := New(srv.URL, WithSession(&Session{AccessToken: "acc-1", RefreshToken: "ref-1"}))
		s, err := c.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "acc-2", s.AccessToken)
		assert.Equal(t, "ref-2", c.Session().RefreshToken)
	})
}

func TestLogout(t *testing.T) {
	c := New("http://unused", WithSession(&Session{AccessToken: "tok"}))
	c.Logout()
	assert.Nil(t, c.Session())

	_, err := c.List(context.Background(), ListOptions{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSession_ReturnsCopy(t *testing.T) {
	c := New("http://unused", WithSession(&Session{AccessToken: "tok"}))
	c.Session().AccessToken = "changed"
	assert.Equal(t, "tok", c.Session().AccessToken)
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Second)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.False(t, (*Session)(nil).Expired(now))
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = f.Close() }()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "hello", string(data))
		assert.Equal(t, "notes.txt", hdr.Filename)
		assert.Equal(t, "text/plain", hdr.Header.Get("Content-Type"))
		assert.Equal(t, `["go","notes"]`, r.FormValue("tags"))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"resource": map[string]any{
				"id": "r-1", "name": "notes.txt", "type": "text/plain", "size": 5,
				"uploadDate": "2024-05-01T12:00:00Z", "tags": []string{"go", "notes"},
				"category": "document", "downloadUrl": "/download/r-1",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	res, err := c.Upload(context.Background(), "notes.txt", strings.NewReader("hello"), "text/plain", []string{"go", "notes"})
	require.NoError(t, err)

	assert.Equal(t, "r-1", res.ID)
	assert.Equal(t, int64(5), res.Size)
	assert.Equal(t, []string{"go", "notes"}, res.Tags)
	assert.Equal(t, "/download/r-1", res.DownloadURL)
}

func TestUpload_NilTagsSendEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `[]`, r.FormValue("tags"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "resource": map[string]any{"id": "r-1"}})
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	_, err := c.Upload(context.Background(), "a.bin", bytes.NewReader([]byte{1}), "", nil)
	require.NoError(t, err)
}

func TestUpload_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "PAYLOAD_TOO_LARGE", "file exceeds the maximum upload size")
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	_, err := c.Upload(context.Background(), "big.bin", strings.NewReader("x"), "", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", apiErr.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE (400): file exceeds the maximum upload size", apiErr.Error())
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "report", q.Get("q"))
		assert.Equal(t, "document", q.Get("type"))
		assert.Equal(t, "go", q.Get("tag"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "20", q.Get("offset"))

		writeJSON(w, http.StatusOK, map[string]any{
			"resources": []map[string]any{{"id": "r-2"}, {"id": "r-1"}},
			"total":     22,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	res, err := c.List(context.Background(), ListOptions{Query: "report", Type: "document", Tag: "go", Limit: 10, Offset: 20})
	require.NoError(t, err)

	assert.Equal(t, 22, res.Total)
	require.Len(t, res.Resources, 2)
	assert.Equal(t, "r-2", res.Resources[0].ID)
}

func TestList_NoFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{"resources": []any{}, "total": 0})
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	res, err := c.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Resources)
}

func TestTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"tags": []string{"go", "notes"}})
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	tags, err := c.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "notes"}, tags)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/r-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="my notes.pdf"`)
		_, _ = w.Write([]byte("%PDF-1"))
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	var buf bytes.Buffer
	info, err := c.Download(context.Background(), "r-1", &buf)
	require.NoError(t, err)

	assert.Equal(t, "%PDF-1", buf.String())
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, "my notes.pdf", info.FileName)
	assert.Equal(t, int64(6), info.Size)
}

func TestDownload_Errors(t *testing.T) {
	c := New("http://unused", WithSession(&Session{AccessToken: "tok"}))
	_, err := c.Download(context.Background(), "", io.Discard)
	assert.ErrorIs(t, err, ErrEmptyID)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "DECODE_FAILURE", "stored payload could not be decoded")
	}))
	defer srv.Close()

	c = New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	var buf bytes.Buffer
	_, err = c.Download(context.Background(), "r-1", &buf)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "DECODE_FAILURE", apiErr.Code)
	assert.Zero(t, buf.Len())
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/resources/r-1":
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		default:
			writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	require.NoError(t, c.Delete(context.Background(), "r-1"))

	err := c.Delete(context.Background(), "r-2")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	assert.ErrorIs(t, c.Delete(context.Background(), ""), ErrEmptyID)
}

func TestExpiredSessionIsRefreshedBeforeRequest(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token/refresh":
			writeJSON(w, http.StatusOK, sessionBody("acc-new", "ref-new"))
		case "/tags":
			assert.Equal(t, "Bearer acc-new", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"tags": []string{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL,
		WithSession(&Session{AccessToken: "acc-old", RefreshToken: "ref-old", ExpiresAt: now.Add(-time.Minute)}),
		withClock(func() time.Time { return now }),
	)
	_, err := c.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-new", c.Session().AccessToken)
}

func TestAPIError_WithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, WithSession(&Session{AccessToken: "tok"}))
	_, err := c.Tags(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "server returned 502", apiErr.Error())
}
