package api

import (
	"encoding/json"
	"net/http"

	"fiscal-engine/internal/app"
	"fiscal-engine/internal/core"
)

// ── Series ────────────────────────────────────────────────────────────────────

func (h *Handler) createSeries(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CreateSeries(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Series)
}

func (h *Handler) listSeries(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSeries(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Series)
}

// ── Parties ───────────────────────────────────────────────────────────────────

func (h *Handler) createParty(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CreateParty(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Party)
}

func (h *Handler) listParties(w http.ResponseWriter, r *http.Request) {
	kind := core.PartyKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = core.PartyClient
	}
	result, err := h.svc.ListParties(r.Context(), kind)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Parties)
}

func (h *Handler) partyStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid party id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetPartyStatement(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Statement)
}

// ── Products / stock ──────────────────────────────────────────────────────────

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var req app.ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	req.ProductID = id
	result, err := h.svc.ReceiveStock(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Product)
}

func (h *Handler) stockMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid product id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetStockMovements(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Movements)
}

// ── Cash registers ────────────────────────────────────────────────────────────

func (h *Handler) createRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CreateRegister(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Register)
}

func (h *Handler) listRegisters(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListRegisters(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Registers)
}

func (h *Handler) openRegister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid register id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.OpenRegister(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Register)
}

func (h *Handler) closeRegister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid register id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CloseRegister(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Register)
}

func (h *Handler) registerMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, "invalid register id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetRegisterMovements(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Movements)
}
