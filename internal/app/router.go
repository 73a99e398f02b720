package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/ronak-creation/storefront/internal/auth"
	"github.com/ronak-creation/storefront/internal/banners"
	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/dashboard"
	"github.com/ronak-creation/storefront/internal/observability"
	"github.com/ronak-creation/storefront/internal/products"
	"github.com/ronak-creation/storefront/internal/settings"
	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/storefront"
	"github.com/ronak-creation/storefront/jobs"
	"github.com/ronak-creation/storefront/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	StorefrontHandler *storefront.Handler
	CatalogAPI        *catalog.APIHandler
	AuthHandler       *auth.Handler
	DashboardHandler  *dashboard.Handler
	ProductsHandler   *products.Handler
	BannersHandler    *banners.Handler
	SettingsHandler   *settings.Handler
	JobHandler        *jobs.Handler

	// UploadDir is served under /uploads when images are stored on disk.
	UploadDir string
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	registerMimeTypes(params.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.RequestID, chimw.Recoverer, chimw.Logger)
	r.Use(params.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", cacheControl("public, max-age=3600", fileServer))
	}
	if params.UploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(noDirListing{http.Dir(params.UploadDir)}))
		r.Handle("/uploads/*", cacheControl("public, max-age=86400", fileServer))
	}

	timeout := 30 * time.Second
	if params.Config != nil && params.Config.AppRequestTimeout > 0 {
		timeout = params.Config.AppRequestTimeout
	}

	// Public JSON endpoints carry no session.
	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		r.Use(SecureHeaders(params.Logger, params.Config))
		r.Use(chimw.Compress(5))
		r.Use(httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		if params.CatalogAPI != nil {
			params.CatalogAPI.MountRoutes(r)
		}
		if params.BannersHandler != nil {
			params.BannersHandler.MountAPI(r)
		}
	})

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
		}) {
			r.Use(mw)
		}

		if params.StorefrontHandler != nil {
			params.StorefrontHandler.MountRoutes(r)
		}

		r.Route("/admin", func(r chi.Router) {
			if params.AuthHandler != nil {
				r.Get("/login", params.AuthHandler.ShowLogin)
				r.With(LoginRateLimit()).Post("/login", params.AuthHandler.HandleLogin)
				r.Post("/logout", params.AuthHandler.HandleLogout)
			}
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				if params.DashboardHandler != nil {
					params.DashboardHandler.MountRoutes(r)
				}
				if params.ProductsHandler != nil {
					r.Route("/products", params.ProductsHandler.MountRoutes)
				}
				if params.BannersHandler != nil {
					r.Route("/banners", params.BannersHandler.MountAdmin)
				}
				if params.SettingsHandler != nil {
					r.Route("/settings", params.SettingsHandler.MountRoutes)
				}
			})
		})

		if params.StorefrontHandler != nil {
			r.NotFound(params.StorefrontHandler.NotFound)
		}
	})

	return r
}

func cacheControl(value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}

// noDirListing hides directory indexes of the upload folder.
type noDirListing struct {
	fs http.FileSystem
}

func (n noDirListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
