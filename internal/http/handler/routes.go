package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"resourcehub/internal/auth"
	"resourcehub/internal/http/middleware"
	"resourcehub/internal/kv"
	"resourcehub/internal/service"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Resources service.ResourceService
	Accounts  auth.Accounts
	Verifier  auth.Verifier
	Pinger    kv.Pinger
	Log       *zap.Logger
	// BasePath prefixes every route, e.g. "/api". Empty mounts at the root.
	BasePath string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app fiber.Router, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := app
	if d.BasePath != "" {
		r = app.Group(d.BasePath)
	}

	r.Get("/health", Health())
	r.Get("/readyz", Readiness(d.Pinger))

	r.Post("/signup", Signup(d.Accounts, log))
	r.Post("/login", Login(d.Accounts, log))
	r.Post("/token/refresh", Refresh(d.Accounts, log))

	guard := middleware.Auth(d.Verifier, log)
	r.Post("/upload", guard, UploadResource(d.Resources, d.BasePath, log))
	r.Get("/resources", guard, ListResources(d.Resources, d.BasePath, log))
	r.Get("/download/:id", guard, DownloadResource(d.Resources, log))
	r.Delete("/resources/:id", guard, DeleteResource(d.Resources, log))
	r.Get("/tags", guard, ListTags(d.Resources, log))
}
