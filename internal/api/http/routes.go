package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/paperdesk/internal/auth/middleware"
	"github.com/mind-engage/paperdesk/internal/rbac"
)

type UserDirectory interface {
	auth.Authenticator
	auth.RoleLookup
	UserCreator
}

// Server wires the handlers onto a router.
type Server struct {
	Auth   *auth.AuthService
	Users  UserDirectory
	Papers *PaperAPI
	Events EventSearcher
	// AllowClaimRole keeps the token's role when the users table cannot be read.
	AllowClaimRole bool
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func (s *Server) Mount(r chi.Router) {
	r.Post("/auth/login", auth.LoginHandler(s.Auth, s.Users))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil {
			if err := s.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Protected API (JWT → stored role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(s.Auth))
		pr.Use(auth.AttachRoleFromDB(s.Users, s.AllowClaimRole))

		pr.Get("/auth/me", auth.MeHandler(rbac.DefaultPolicy))

		p := s.Papers

		pr.With(rbac.Require("catalog:view")).Get("/catalog", ListCatalogHandler(p.Catalog))
		pr.With(rbac.Require("catalog:edit")).Post("/catalog", PutCatalogEntryHandler(p.Catalog))

		pr.With(rbac.Require("resolve:run")).Post("/resolve", ResolveHandler(p.Extractor, p.Resolver, p.Catalog))

		pr.With(rbac.Require("compliance:check")).Get("/compliance/rules", ListRulesHandler(p.Engine))
		pr.With(rbac.Require("compliance:check")).Post("/compliance/check", CheckComplianceHandler(p.Engine))

		pr.Route("/papers", func(pp chi.Router) {
			pp.With(rbac.Require("paper:import")).Post("/import", p.Import())
			pp.With(rbac.Require("paper:view")).Get("/", p.List())
			pp.Route("/{paperID}", func(one chi.Router) {
				one.With(rbac.Require("paper:view")).Get("/", p.Get())
				one.With(rbac.Require("paper:edit")).Patch("/metadata", p.UpdateMetadata())
				one.With(rbac.RequireAny("paper:edit", "resolve:run")).Get("/match", p.SuggestMatch())
				one.With(rbac.Require("paper:edit")).Put("/match", p.SetMatch())
				one.With(rbac.Require("paper:edit")).Put("/items/{number}/answers", p.SaveAnswers())
				one.With(rbac.Require("asset:upload")).Post("/items/{number}/attachments", p.UploadAttachment())
				one.With(rbac.Require("paper:view")).Get("/compliance", p.Compliance())
				one.With(rbac.Require("paper:view")).Get("/compliance/export", p.ExportCompliance())
				one.With(rbac.Require("paper:confirm")).Post("/confirm", p.Confirm())
			})
		})

		pr.With(rbac.Require("asset:view")).Route("/assets", func(ar chi.Router) {
			MountAssets(ar, p.Blobs)
		})

		pr.With(rbac.Require("audit:view")).Get("/admin/audit", AuditSearchHandler(s.Events))
		pr.With(rbac.Require("users:create")).Post("/admin/users", CreateUserHandler(s.Users))
	})
}
