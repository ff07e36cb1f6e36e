package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"resourcehub/internal/auth"
)

// IdentityLocalKey is the locals key holding the authenticated auth.Identity.
const IdentityLocalKey = "identity"

// Auth rejects requests without a valid bearer token. On success the caller's
// identity is stored in locals and in the request's user context.
func Auth(v auth.Verifier, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return denied(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed bearer token")
		}

		id, err := v.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				return denied(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			}
			log.Error("token verification failed",
				zap.String("request_id", RequestIDFromCtx(c)),
				zap.String("component", "auth"),
				zap.Error(err),
			)
			return denied(c, fiber.StatusBadGateway, "UPSTREAM_AUTH_ERROR", "identity provider unavailable")
		}

		c.Locals(IdentityLocalKey, id)
		c.SetUserContext(auth.WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by Auth.
func IdentityFromCtx(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(auth.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func denied(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"request_id": RequestIDFromCtx(c),
		"error":      fiber.Map{"code": code, "message": message},
	})
}
