package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ronak-creation/storefront/internal/platform/httpx"
)

// APIHandler serves the public JSON catalog.
type APIHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewAPIHandler constructs an APIHandler.
func NewAPIHandler(logger *slog.Logger, service *Service) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{logger: logger, service: service}
}

// MountRoutes registers the product endpoints.
func (h *APIHandler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.show)
}

type listResponse struct {
	Data  []Summary `json:"data"`
	Count int       `json:"count"`
}

func (h *APIHandler) list(w http.ResponseWriter, r *http.Request) {
	params, err := ParseParams(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.List(r.Context(), SiteAPI, params, true)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := listResponse{Data: make([]Summary, 0, len(res.Products))}
	for _, p := range res.Products {
		out.Data = append(out.Data, p.Summarize())
	}
	if res.Count != nil {
		out.Count = *res.Count
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *APIHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, ErrNotFound)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !IsNotFound(err) {
			h.logger.Error("get product", slog.Any("error", err), slog.String("id", id.String()))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": product})
}
