package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"tours-api/store"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

type ViewsHandler struct {
	DB        *store.DB
	templates *template.Template
}

func NewViewsHandler(db *store.DB) (*ViewsHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &ViewsHandler{DB: db, templates: tmpl}, nil
}

// Overview renders the all-tours page.
func (h *ViewsHandler) Overview(w http.ResponseWriter, r *http.Request) error {
	tours, err := h.DB.Tours.FindAll(r.Context(), nil, nil)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return h.templates.ExecuteTemplate(w, "overview.html", map[string]interface{}{
		"Title": "All Tours",
		"Tours": tours,
	})
}

// TourDetail renders one tour by slug, with its reviews.
func (h *ViewsHandler) TourDetail(w http.ResponseWriter, r *http.Request) error {
	tour, err := h.DB.Tours.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		return err
	}
	reviews, err := h.DB.Reviews.ForTourWithAuthors(r.Context(), tour.ID)
	if err != nil {
		return err
	}
	guides, err := h.DB.Users.ByIDs(r.Context(), tour.Guides)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return h.templates.ExecuteTemplate(w, "tour.html", map[string]interface{}{
		"Title":   tour.Name,
		"Tour":    tour,
		"Guides":  guides,
		"Reviews": reviews,
	})
}
