package banners

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/platform/httpx"
	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/view"
)

// Handler serves the public banner feed and the admin banner pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	maxUpload int64
}

// NewHandler constructs a Handler. maxUpload bounds image uploads in bytes.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = media.DefaultMaxBytes
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, maxUpload: maxUpload}
}

// MountAPI registers the public JSON endpoint.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/banners", h.apiActive)
}

// MountAdmin registers the admin pages. Callers gate them behind the admin
// session check.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.newForm)
	r.Post("/", h.create)
	r.Post("/reorder", h.reorder)
	r.Post("/{id}/toggle", h.toggle)
	r.Post("/{id}/delete", h.delete)
}

func (h *Handler) apiActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.Active(r.Context())
	if err != nil {
		h.logger.Error("list active banners", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]Public, 0, len(active))
	for _, b := range active {
		out = append(out, b.Public())
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": out})
}

type formData struct {
	Name     string
	IsActive bool
	Errors   shared.FieldErrors
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list banners", slog.Any("error", err))
		http.Error(w, "Failed to load banners", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_banners.html", "Banners", map[string]any{"Banners": all}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_banner_form.html", "New banner", formData{IsActive: true}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "Upload too large or malformed", http.StatusBadRequest)
		return
	}
	form := formData{
		Name:     r.PostFormValue("name"),
		IsActive: r.PostFormValue("is_active") == "on",
	}

	var img Image
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if err := media.Validate(file, header, h.maxUpload); err != nil {
			form.Errors = shared.FieldErrors{"Image": err.Error()}
			h.render(w, r, "pages/admin_banner_form.html", "New banner", form, http.StatusBadRequest)
			return
		}
		img = Image{Reader: file, Filename: header.Filename}
	case !errors.Is(err, http.ErrMissingFile):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if _, err := h.service.Create(r.Context(), CreateInput{Name: form.Name, IsActive: form.IsActive}, img); err != nil {
		if fields, ok := shared.AsFieldErrors(err); ok {
			form.Errors = fields
			h.render(w, r, "pages/admin_banner_form.html", "New banner", form, http.StatusBadRequest)
			return
		}
		h.logger.Error("create banner", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/banners", "error", "Failed to create banner")
		return
	}
	h.redirectWithFlash(w, r, "/admin/banners", "success", "Banner created")
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bannerID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Toggle(r.Context(), id)
	if err != nil {
		h.fail(w, r, "toggle banner", err)
		return
	}
	msg := "Banner hidden"
	if b.IsActive {
		msg = "Banner activated"
	}
	h.redirectWithFlash(w, r, "/admin/banners", "success", msg)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bannerID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete banner", err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/banners", "success", "Banner deleted")
}

// reorder accepts a JSON array of ids or repeated "ids" form values.
func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var raw []string
	isJSON := false
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		isJSON = true
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expected a JSON array of banner ids")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		raw = r.PostForm["ids"]
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(v)
		if err != nil {
			if isJSON {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid banner id "+v)
				return
			}
			h.redirectWithFlash(w, r, "/admin/banners", "error", "Invalid banner id")
			return
		}
		ids = append(ids, id)
	}

	err := h.service.Reorder(r.Context(), ids)
	if isJSON {
		if err != nil {
			h.logger.Warn("reorder banners", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Reordered"})
		return
	}
	if err != nil {
		h.fail(w, r, "reorder banners", err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/banners", "success", "Banner order saved")
}

func (h *Handler) bannerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid banner ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case IsNotFound(err):
		h.redirectWithFlash(w, r, "/admin/banners", "error", "Banner not found")
	case errors.Is(err, httpx.ErrValidation):
		h.redirectWithFlash(w, r, "/admin/banners", "error", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/banners", "error", "Something went wrong, please retry")
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
