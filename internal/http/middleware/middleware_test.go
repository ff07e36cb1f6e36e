package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resourcehub/internal/auth"
	authMocks "resourcehub/internal/auth/mocks"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromCtx(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()

	app.Use(RequestID())
	app.Use(Logger(zap.New(core)))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, resp.Header.Get(RequestIDHeader), fields["request_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/test", fields["path"])
	assert.Equal(t, int64(fiber.StatusAccepted), fields["status"])
	assert.Contains(t, fields, "latency")

	req = httptest.NewRequest("GET", "/boom", nil)
	app.Test(req)

	require.Equal(t, 2, logs.Len())
	entry = logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, int64(fiber.StatusInternalServerError), entry.ContextMap()["status"])
}

func TestAuth(t *testing.T) {
	v := new(authMocks.MockVerifier)
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Auth(v, zap.NewNop()))
	app.Get("/me", func(c *fiber.Ctx) error {
		local, _ := IdentityFromCtx(c)
		fromCtx, ok := auth.FromContext(c.UserContext())
		assert.True(t, ok)
		assert.Equal(t, local, fromCtx)
		return c.SendString(local.ID)
	})

	errorCode := func(t *testing.T, body io.Reader) string {
		var payload struct {
			RequestID string `json:"request_id"`
			Error     struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(body).Decode(&payload))
		assert.NotEmpty(t, payload.RequestID)
		return payload.Error.Code
	}

	t.Run("valid token", func(t *testing.T) {
		v.On("Verify", mock.Anything, "good").Return(auth.Identity{ID: "u-1"}, nil).Once()

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "u-1", string(body))
	})

	t.Run("missing header", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/me", nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp.Body))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejected token", func(t *testing.T) {
		v.On("Verify", mock.Anything, "bad").Return(auth.Identity{}, auth.ErrUnauthorized).Once()

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer bad")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp.Body))
	})

	t.Run("provider unreachable", func(t *testing.T) {
		v.On("Verify", mock.Anything, "tok").
			Return(auth.Identity{}, &auth.UpstreamError{Phase: auth.PhaseVerify, Err: errors.New("dial tcp")}).Once()

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer tok")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "UPSTREAM_AUTH_ERROR", errorCode(t, resp.Body))
	})

	v.AssertExpectations(t)
}
