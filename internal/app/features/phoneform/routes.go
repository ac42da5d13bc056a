package phoneform

import (
	"net/http"

	"github.com/dalemusser/phoneform/middleware"
	"github.com/dalemusser/phoneform/templates"
	"github.com/go-chi/chi/v5"
)

// bodyTypes are the request bodies the POST routes accept.
var bodyTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/json",
}

// Mount attaches the page, the form endpoints and the page's static files
// to r.
func Mount(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.SecureDefaults())
		r.Get("/", h.ServePage)
	})

	r.Route("/phone", func(r chi.Router) {
		r.Get("/state", h.ServeState)
		r.Get("/events", h.ServeEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentTypes(bodyTypes...))
			r.Post("/input", h.ServeInput)
			r.Post("/submit", h.ServeSubmit)
		})
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(templates.Static()))))
}
