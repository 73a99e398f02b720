package settings

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/view"
)

// Handler serves the admin settings page.
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

// MountRoutes registers the settings routes. Callers gate them behind the
// admin session check.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Post("/", h.update)
}

type formData struct {
	ActiveBannerCount string
	Errors            shared.FieldErrors
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}
	h.render(w, r, formData{ActiveBannerCount: strconv.Itoa(st.ActiveBannerCount)}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	raw := strings.TrimSpace(r.PostFormValue("active_banner_count"))
	form := formData{ActiveBannerCount: raw, Errors: shared.FieldErrors{}}

	count, err := strconv.Atoi(raw)
	if err != nil {
		form.Errors["ActiveBannerCount"] = "must be a whole number"
		h.render(w, r, form, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), Settings{ActiveBannerCount: count}); err != nil {
		if fields, ok := shared.AsFieldErrors(err); ok {
			form.Errors = fields
			h.render(w, r, form, http.StatusBadRequest)
			return
		}
		h.logger.Error("update settings", slog.Any("error", err))
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Settings saved"})
	}
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data formData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/admin_settings.html", view.TemplateData{
		Title:       "Settings",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		IsAdmin:     sess.IsAdmin(),
		Data:        data,
	}); err != nil {
		h.logger.Error("render settings", slog.Any("error", err))
	}
}
