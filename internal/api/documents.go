package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fiscal-engine/internal/app"
	"fiscal-engine/internal/core"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// saveDraft handles POST /api/documents and PUT /api/documents/{id}.
func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req app.SaveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if id, ok := pathID(r); ok {
		req.DocumentID = id
	}

	result, err := h.svc.SaveDraft(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}

// certifyDocument handles POST /api/documents/{id}/certify.
func (h *Handler) certifyDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var req app.CertifyRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	result, err := h.svc.CertifyDocument(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}

// cancelDocument handles POST /api/documents/{id}/cancel.
func (h *Handler) cancelDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CancelDocument(r.Context(), id, req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// liquidateDocument handles POST /api/documents/{id}/payments.
func (h *Handler) liquidateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var req app.LiquidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.LiquidateDocument(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}

// getDocument handles GET /api/documents/{id}.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}

// listDocuments handles GET /api/documents?status=&party_id=.
func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	var status *core.DocumentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := core.DocumentStatus(s)
		status = &st
	}
	var partyID *int
	if p := r.URL.Query().Get("party_id"); p != "" {
		id, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, r, "invalid party_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		partyID = &id
	}

	result, err := h.svc.ListDocuments(r.Context(), status, partyID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Documents)
}

// listDocumentTypes handles GET /api/documents/types.
func (h *Handler) listDocumentTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListDocumentTypes(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Types)
}
