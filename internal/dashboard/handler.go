// Package dashboard renders the admin landing page.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ronak-creation/storefront/internal/banners"
	"github.com/ronak-creation/storefront/internal/products"
	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/view"
)

// ProductCounter supplies product totals.
type ProductCounter interface {
	Counts(ctx context.Context) (products.Counts, error)
}

// BannerLister supplies every banner.
type BannerLister interface {
	List(ctx context.Context) ([]banners.Banner, error)
}

// Stats is the dashboard view model.
type Stats struct {
	TotalProducts    int
	TrendingProducts int
	HiddenProducts   int
	TotalBanners     int
	ActiveBanners    int
}

// Service gathers dashboard numbers.
type Service struct {
	products ProductCounter
	banners  BannerLister
}

// NewService constructs a Service.
func NewService(p ProductCounter, b BannerLister) *Service {
	return &Service{products: p, banners: b}
}

// Stats loads product and banner totals concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		st     Stats
		counts products.Counts
		all    []banners.Banner
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.products.Counts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.banners.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	st.TotalProducts = counts.Total
	st.TrendingProducts = counts.Trending
	st.HiddenProducts = counts.Hidden
	st.TotalBanners = len(all)
	for _, b := range all {
		if b.IsActive {
			st.ActiveBanners++
		}
	}
	return st, nil
}

// Handler serves GET /admin.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "pages/admin_dashboard.html", view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		IsAdmin:     sess.IsAdmin(),
		Data:        st,
	}); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}
