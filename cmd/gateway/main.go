package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/paperdesk/internal/api/http"
	"github.com/mind-engage/paperdesk/internal/audit"
	auth "github.com/mind-engage/paperdesk/internal/auth/middleware"
	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/compliance"
	"github.com/mind-engage/paperdesk/internal/config"
	"github.com/mind-engage/paperdesk/internal/db"
	"github.com/mind-engage/paperdesk/internal/paper"
	"github.com/mind-engage/paperdesk/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- Policy tables ---
	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		log.Fatalf("tables: %v", err)
	}
	extractor, err := tables.Extractor()
	if err != nil {
		log.Fatalf("extractor: %v", err)
	}
	engine := compliance.NewEngine(compliance.DefaultRules(cfg.ComplianceSettings(), tables.Compliance()))

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	users := auth.NewUserStore(dbh)
	if err := users.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	events := audit.NewEventRepo(dbh, "")

	srv := &api.Server{
		Auth:  auth.NewAuthService(cfg.AuthSecret),
		Users: users,
		Papers: &api.PaperAPI{
			Store:     paper.NewSQLStore(dbh, cfg.DBDriver),
			Catalog:   catalog.NewSQLStore(dbh),
			Extractor: extractor,
			Resolver:  tables.Resolver(),
			Engine:    engine,
			Blobs:     bs,
			Events:    events,
		},
		Events:         events,
		AllowClaimRole: cfg.Mode == config.ModeOffline,
		Ready:          dbh.PingContext,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	srv.Mount(r)

	log.Printf("listening on %s (mode=%s, db=%s, rules=%d)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, len(engine.Rules()))
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
