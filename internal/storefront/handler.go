package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ronak-creation/storefront/internal/banners"
	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/view"
)

// DefaultHomePageSize is the number of products listed on the home page.
const DefaultHomePageSize = 24

// Catalog is the read side used by the public pages.
type Catalog interface {
	List(ctx context.Context, site catalog.Site, p catalog.Params, withCount bool) (catalog.Result, error)
	Trending(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// BannerSource returns the banners shown on the home page.
type BannerSource interface {
	Active(ctx context.Context) ([]banners.Banner, error)
}

// Config holds presentation settings.
type Config struct {
	WhatsAppNumber string
	HomePageSize   int
}

// Handler serves the home, catalog and product pages.
type Handler struct {
	logger    *slog.Logger
	catalog   Catalog
	banners   BannerSource
	templates *view.Engine
	csrf      *shared.CSRFManager
	cfg       Config
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, c Catalog, b BannerSource, templates *view.Engine, csrf *shared.CSRFManager, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HomePageSize <= 0 {
		cfg.HomePageSize = DefaultHomePageSize
	}
	return &Handler{logger: logger, catalog: c, banners: b, templates: templates, csrf: csrf, cfg: cfg}
}

// MountRoutes registers the public pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/catalog", h.catalogPage)
	r.Get("/product/{id}", h.product)
}

type homeData struct {
	Banners    []banners.Banner
	Trending   []catalog.Product
	Products   []catalog.Product
	Filters    Filters
	CatalogURL string
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	params, err := catalog.ParseParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	params.Page = 1
	params.Limit = h.cfg.HomePageSize

	data := homeData{Filters: newFilters("/", params), CatalogURL: catalogURL(params)}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		active, err := h.banners.Active(ctx)
		if err != nil {
			// The page still renders without banners.
			h.logger.Warn("load home banners", slog.Any("error", err))
			return nil
		}
		data.Banners = active
		return nil
	})
	g.Go(func() error {
		trending, err := h.catalog.Trending(ctx)
		data.Trending = trending
		return err
	})
	g.Go(func() error {
		res, err := h.catalog.List(ctx, catalog.SiteHome, params, false)
		data.Products = res.Products
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load home page", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/home.html", "Home", data, http.StatusOK)
}

// catalogURL links the home listing to the same filters on the catalog page.
func catalogURL(p catalog.Params) string {
	p.Page = catalog.DefaultPage
	p.Limit = catalog.DefaultLimit
	if q := p.Values().Encode(); q != "" {
		return "/catalog?" + q
	}
	return "/catalog"
}

// PageLink is one entry of the pagination bar.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

type catalogData struct {
	Products   []catalog.Product
	Filters    Filters
	Pagination shared.Pagination
	Pages      []PageLink
	PrevURL    string
	NextURL    string
}

func (h *Handler) catalogPage(w http.ResponseWriter, r *http.Request) {
	params, err := catalog.ParseParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.catalog.List(r.Context(), catalog.SiteCatalog, params, true)
	if err != nil {
		h.logger.Error("load catalog page", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	total := 0
	if res.Count != nil {
		total = *res.Count
	}
	pg := shared.NewPagination(params.Page, params.Limit, total)
	data := catalogData{
		Products:   res.Products,
		Filters:    newFilters("/catalog", params),
		Pagination: pg,
		Pages:      pageLinks(*r.URL, pg),
	}
	if pg.HasPrev() {
		data.PrevURL = pg.PageURL(*r.URL, pg.Page-1)
	}
	if pg.HasNext() {
		data.NextURL = pg.PageURL(*r.URL, pg.Page+1)
	}
	h.render(w, r, "pages/catalog.html", "Catalog", data, http.StatusOK)
}

// pageLinks returns at most seven links centred on the current page.
func pageLinks(base url.URL, pg shared.Pagination) []PageLink {
	if pg.TotalPages <= 1 {
		return nil
	}
	from, to := pg.Page-3, pg.Page+3
	if from < 1 {
		to += 1 - from
		from = 1
	}
	if to > pg.TotalPages {
		from -= to - pg.TotalPages
		to = pg.TotalPages
	}
	if from < 1 {
		from = 1
	}
	links := make([]PageLink, 0, to-from+1)
	for n := from; n <= to; n++ {
		links = append(links, PageLink{Number: n, URL: pg.PageURL(base, n), Current: n == pg.Page})
	}
	return links
}

type productData struct {
	Product      catalog.Product
	DisplayPrice int
	WhatsAppURL  string
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.NotFound(w, r)
		return
	}
	p, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if catalog.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		h.logger.Error("load product", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load product", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/product.html", p.Heading, productData{
		Product:      p,
		DisplayPrice: p.DisplayPrice(),
		WhatsAppURL:  WhatsAppLink(h.cfg.WhatsAppNumber, p),
	}, http.StatusOK)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/not_found.html", "Not found", nil, http.StatusNotFound)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	// Public pages leave anonymous sessions untouched.
	if sess.IsAdmin() {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, name, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		IsAdmin:     sess.IsAdmin(),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}
