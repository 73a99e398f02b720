package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/view"
)

// Handler wires HTTP endpoints for the admin login flow.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers the login form and logout on r. The router mounts
// these outside the admin gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.ShowLogin)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
}

type loginForm struct {
	Password string `validate:"required,max=72"`
	Next     string
}

type loginPageData struct {
	Form   loginForm
	Errors shared.FieldErrors
}

// ShowLogin renders the login form.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if shared.IsAdmin(r.Context()) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.render(w, r, loginPageData{Form: loginForm{Next: safeNext(r.URL.Query().Get("next"))}}, http.StatusOK)
}

// HandleLogin checks the admin password and upgrades the session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := loginForm{
		Password: r.PostFormValue("password"),
		Next:     safeNext(r.PostFormValue("next")),
	}

	if err := shared.ValidateStruct(h.validator, form); err != nil {
		fields, _ := shared.AsFieldErrors(err)
		h.render(w, r, loginPageData{Form: loginForm{Next: form.Next}, Errors: fields}, http.StatusBadRequest)
		return
	}

	if err := h.service.Authenticate(r.Context(), form.Password); err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("authenticate admin", slog.Any("error", err))
		}
		h.logger.Warn("admin login rejected", slog.String("remote", r.RemoteAddr))
		errs := shared.FieldErrors{"general": "Invalid password"}
		h.render(w, r, loginPageData{Form: loginForm{Next: form.Next}, Errors: errs}, http.StatusUnauthorized)
		return
	}

	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.sessionManager.Renew(sess)
	h.csrfManager.RotateToken(sess)
	sess.SetUser(shared.AdminUser)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
	http.Redirect(w, r, form.Next, http.StatusSeeOther)
}

// HandleLogout destroys the session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/login.html", view.TemplateData{
		Title:       "Admin login",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}

// safeNext keeps post-login redirects inside the admin area.
func safeNext(next string) string {
	if next == "/admin" || strings.HasPrefix(next, "/admin/") {
		if !strings.HasPrefix(next, "/admin/login") {
			return next
		}
	}
	return "/admin"
}

// RequireAdmin sends visitors without an admin session to the login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.IsAdmin(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") || r.Header.Get("Accept") == "application/json" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		target := "/admin/login"
		if r.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(r.URL.Path)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
