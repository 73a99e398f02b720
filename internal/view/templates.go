package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/web"
)

// Engine holds the parsed page templates embedded in the binary.
type Engine struct {
	templates *template.Template
}

// TemplateData is the root value every page template receives.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	IsAdmin     bool
	Data        any
}

var rupees = message.NewPrinter(language.MustParse("en-IN"))

// FormatPrice renders whole rupees with locale digit grouping.
func FormatPrice(v int) string {
	return rupees.Sprintf("₹%d", v)
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatPrice": FormatPrice,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"seq": func(from, to int) []int {
			if to < from {
				return nil
			}
			out := make([]int, 0, to-from+1)
			for i := from; i <= to; i++ {
				out = append(out, i)
			}
			return out
		},
		"contains": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
		"join":      strings.Join,
		"hasPrefix": strings.HasPrefix,
		"deref": func(v *int) int {
			if v == nil {
				return 0
			}
			return *v
		},
	}
}

// NewEngine parses every page against the shared layout.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes page name into w. Callers that need a non-200 status
// write the header first.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
