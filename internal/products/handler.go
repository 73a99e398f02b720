package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/platform/httpx"
	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/view"
)

// Handler serves the admin product pages.
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

// MountRoutes registers the product routes under /admin/products.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.newForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.edit)
	r.Post("/{id}", h.update)
	r.Post("/{id}/delete", h.delete)
	r.Post("/{id}/hide", h.toggleHidden)
}

type formData struct {
	ID               uuid.UUID
	Form             Form
	ImageURL         string
	Errors           shared.FieldErrors
	FabricCategories []string
	WorkCategories   []string
}

func (f formData) IsNew() bool { return f.ID == uuid.Nil }

func (f formData) Action() string {
	if f.IsNew() {
		return "/admin/products"
	}
	return "/admin/products/" + f.ID.String()
}

func newFormData(id uuid.UUID, form Form) formData {
	return formData{
		ID:               id,
		Form:             form,
		FabricCategories: catalog.FabricCategories,
		WorkCategories:   catalog.WorkCategories,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.service.List(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_products.html", "Products", result, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_product_form.html", "New product", newFormData(uuid.Nil, Form{}), http.StatusOK)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load product", err)
		return
	}
	data := newFormData(p.ID, FormFromProduct(p))
	data.ImageURL = p.ImageURL
	h.render(w, r, "pages/admin_product_form.html", "Edit product", data, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	data, in, img, ok := h.readForm(w, r, uuid.Nil)
	if !ok {
		return
	}
	defer img.close()
	if _, err := h.service.Create(r.Context(), in, img); err != nil {
		h.saveFailed(w, r, "create product", data, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/products", "success", "Product created")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	data, in, img, ok := h.readForm(w, r, id)
	if !ok {
		return
	}
	defer img.close()
	data.ImageURL = r.PostFormValue("current_image_url")
	if _, err := h.service.Update(r.Context(), id, in, img); err != nil {
		if IsNotFound(err) {
			h.fail(w, r, "update product", err)
			return
		}
		h.saveFailed(w, r, "update product", data, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/products", "success", "Product updated")
}

// readForm parses the multipart form. It renders the form itself and returns
// ok=false when the request cannot proceed. Callers close the returned image.
func (h *Handler) readForm(w http.ResponseWriter, r *http.Request, id uuid.UUID) (formData, Input, Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "Upload too large or malformed", http.StatusBadRequest)
		return formData{}, Input{}, Image{}, false
	}
	form := FormFromRequest(r)
	data := newFormData(id, form)
	title := "Edit product"
	if id == uuid.Nil {
		title = "New product"
	}

	var img Image
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		if err := media.Validate(file, header, h.maxUpload); err != nil {
			_ = file.Close()
			data.Errors = shared.FieldErrors{"Image": err.Error()}
			h.render(w, r, "pages/admin_product_form.html", title, data, http.StatusBadRequest)
			return formData{}, Input{}, Image{}, false
		}
		img = Image{Reader: file, Filename: header.Filename}
	case !errors.Is(err, http.ErrMissingFile):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return formData{}, Input{}, Image{}, false
	}

	in, parseErrs := form.Input()
	if parseErrs != nil {
		img.close()
		data.Errors = parseErrs
		h.render(w, r, "pages/admin_product_form.html", title, data, http.StatusBadRequest)
		return formData{}, Input{}, Image{}, false
	}
	return data, in, img, true
}

func (h *Handler) saveFailed(w http.ResponseWriter, r *http.Request, op string, data formData, err error) {
	title := "Edit product"
	if data.IsNew() {
		title = "New product"
	}
	if fields, ok := shared.AsFieldErrors(err); ok {
		data.Errors = fields
		h.render(w, r, "pages/admin_product_form.html", title, data, http.StatusBadRequest)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	h.redirectWithFlash(w, r, "/admin/products", "error", "Failed to save product")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete product", err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/products", "success", "Product deleted")
}

func (h *Handler) toggleHidden(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	p, err := h.service.ToggleHidden(r.Context(), id)
	if err != nil {
		h.fail(w, r, "toggle product visibility", err)
		return
	}
	msg := "Product is visible"
	if p.IsHidden {
		msg = "Product hidden"
	}
	h.redirectWithFlash(w, r, "/admin/products", "success", msg)
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case IsNotFound(err):
		h.redirectWithFlash(w, r, "/admin/products", "error", "Product not found")
	case errors.Is(err, httpx.ErrValidation):
		h.redirectWithFlash(w, r, "/admin/products", "error", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/products", "error", "Something went wrong, please retry")
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
