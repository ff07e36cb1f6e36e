package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"resourcehub/internal/auth"
	"resourcehub/internal/http/middleware"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionResponse struct {
	Success      bool      `json:"success"`
	User         auth.User `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
}

func newSessionResponse(u auth.User, t auth.Tokens) sessionResponse {
	return sessionResponse{
		Success:      true,
		User:         u,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
	}
}

// Signup creates a confirmed account and signs it in.
//
//	@Summary	Create an account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		signupRequest	true	"credentials"
//	@Success	200		{object}	sessionResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	500		{object}	errorPayload
//	@Router		/signup [post]
func Signup(accounts auth.Accounts, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signupRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "a valid email and a password of at least 6 characters are required")
		}

		user, err := accounts.CreateUser(c.UserContext(), req.Email, req.Password, req.Name)
		if err != nil {
			var ue *auth.UpstreamError
			if errors.As(err, &ue) && ue.Rejected() {
				return writeError(c, fiber.StatusBadRequest, "SIGNUP_REJECTED", ue.Message)
			}
			log.Error("create user failed",
				zap.String("request_id", middleware.RequestIDFromCtx(c)),
				zap.String("component", "auth"),
				zap.Error(err),
			)
			return writeError(c, fiber.StatusBadRequest, "SIGNUP_REJECTED", "account could not be created")
		}

		tokens, err := accounts.SignInWithPassword(c.UserContext(), req.Email, req.Password)
		if err != nil {
			log.Error("sign in after signup failed",
				zap.String("request_id", middleware.RequestIDFromCtx(c)),
				zap.String("component", "auth"),
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			return writeError(c, fiber.StatusInternalServerError, "SIGNIN_FAILED", "user created but failed to sign in; please try logging in")
		}

		return c.JSON(newSessionResponse(user, tokens))
	}
}

// Login exchanges credentials for a session.
//
//	@Summary	Sign in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"credentials"
//	@Success	200		{object}	sessionResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	502		{object}	errorPayload
//	@Router		/login [post]
func Login(accounts auth.Accounts, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		}

		tokens, err := accounts.SignInWithPassword(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return sessionError(c, log, err, "INVALID_CREDENTIALS", "invalid email or password")
		}
		return c.JSON(newSessionResponse(tokens.User, tokens))
	}
}

// Refresh rotates a session using its refresh token.
//
//	@Summary	Refresh a session
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		refreshRequest	true	"refresh token"
//	@Success	200		{object}	sessionResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	502		{object}	errorPayload
//	@Router		/token/refresh [post]
func Refresh(accounts auth.Accounts, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req refreshRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "refresh_token is required")
		}

		tokens, err := accounts.Refresh(c.UserContext(), req.RefreshToken)
		if err != nil {
			return sessionError(c, log, err, "UNAUTHORIZED", "invalid or expired refresh token")
		}
		return c.JSON(newSessionResponse(tokens.User, tokens))
	}
}

func sessionError(c *fiber.Ctx, log *zap.Logger, err error, code, message string) error {
	var ue *auth.UpstreamError
	if errors.As(err, &ue) && ue.Rejected() {
		return writeError(c, fiber.StatusUnauthorized, code, message)
	}
	log.Error("session request failed",
		zap.String("request_id", middleware.RequestIDFromCtx(c)),
		zap.String("component", "auth"),
		zap.Error(err),
	)
	return writeError(c, fiber.StatusBadGateway, "UPSTREAM_AUTH_ERROR", "identity provider unavailable")
}
