// Package api exposes the engine over HTTP. It is a thin JSON adapter:
// every route delegates to the ApplicationService and no fiscal rule
// lives here.
package api

import (
	"net/http"

	"fiscal-engine/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)

	r.Get("/api/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", h.listDocuments)
		r.Post("/", h.saveDraft)
		r.Get("/types", h.listDocumentTypes)
		r.Get("/{id}", h.getDocument)
		r.Put("/{id}", h.saveDraft)
		r.Post("/{id}/certify", h.certifyDocument)
		r.Post("/{id}/cancel", h.cancelDocument)
		r.Post("/{id}/payments", h.liquidateDocument)
	})

	r.Route("/api/series", func(r chi.Router) {
		r.Get("/", h.listSeries)
		r.Post("/", h.createSeries)
	})

	r.Route("/api/parties", func(r chi.Router) {
		r.Get("/", h.listParties)
		r.Post("/", h.createParty)
		r.Get("/{id}/statement", h.partyStatement)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Post("/{id}/stock", h.receiveStock)
		r.Get("/{id}/movements", h.stockMovements)
	})

	r.Route("/api/registers", func(r chi.Router) {
		r.Get("/", h.listRegisters)
		r.Post("/", h.createRegister)
		r.Post("/{id}/open", h.openRegister)
		r.Post("/{id}/close", h.closeRegister)
		r.Get("/{id}/movements", h.registerMovements)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
