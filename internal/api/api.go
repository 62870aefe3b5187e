package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/carnetdigital/carnet-api/internal/auth"
	"github.com/carnetdigital/carnet-api/internal/config"
	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/token"
	"github.com/carnetdigital/carnet-api/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ReportArchive is the read/prune side of the cleanup-report store. The S3
// storage client satisfies it; nil means no archive is configured.
type ReportArchive interface {
	ListReports(ctx context.Context, prefix string) ([]string, error)
	PresignReport(ctx context.Context, key string, expiration time.Duration) (string, error)
	PruneReports(ctx context.Context, prefix string) error
}

type Api struct {
	Config *config.Config
	Router *chi.Mux

	users         *users.Service
	tokens        *token.Service
	coordinator   *auth.Coordinator
	authenticator auth.Authenticator
	reports       ReportArchive
}

func NewApi(cfg *config.Config, userSvc *users.Service, tokenSvc *token.Service, coordinator *auth.Coordinator, authenticator auth.Authenticator, reports ReportArchive) *Api {
	api := &Api{
		Config:        cfg,
		Router:        chi.NewRouter(),
		users:         userSvc,
		tokens:        tokenSvc,
		coordinator:   coordinator,
		authenticator: authenticator,
		reports:       reports,
	}
	api.setupRoutes()
	return api
}

func (api *Api) setupRoutes() {
	r := api.Router

	// CORS before everything else
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*.local:*", "http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/heartbeat", api.Heartbeat)

	// Public auth routes
	r.Post("/auth/register", api.RegisterHandler)
	r.Post("/auth/login", api.LoginHandler)
	r.Post("/auth/refresh", api.RefreshHandler)
	r.Post("/auth/logout", api.LogoutHandler)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(api.authenticator))

		r.Get("/auth/me", api.MeHandler)

		r.Post("/tokens", api.CreateTokenHandler)
		r.Get("/tokens", api.ListTokensHandler)
		r.Post("/tokens/validate", api.ValidateTokenHandler)
		r.Get("/tokens/{tokenID}", api.GetTokenHandler)
		r.Delete("/tokens/{tokenID}", api.DeleteTokenHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Post("/admin/tokens/cleanup", api.CleanupTokensHandler)
			r.Get("/admin/tokens/cleanup-reports", api.ListCleanupReportsHandler)
			r.Get("/admin/tokens/cleanup-reports/download", api.DownloadCleanupReportHandler)
			r.Delete("/admin/tokens/cleanup-reports", api.PruneCleanupReportsHandler)
		})
	})
}

// Serve blocks on the HTTP listener
func (api *Api) Serve() error {
	addr := fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort)
	log.Printf("Starting API server on %s", addr)
	return http.ListenAndServe(addr, api.Router)
}

func (api *Api) Heartbeat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
