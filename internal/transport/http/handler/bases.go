package handler

import (
	"net/http"

	"github.com/flightdesk-api/internal/application/base"
	"github.com/flightdesk-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

type BaseHandler struct {
	svc base.Service
}

func NewBaseHandler(svc base.Service) *BaseHandler { return &BaseHandler{svc: svc} }

func (h *BaseHandler) List(w http.ResponseWriter, r *http.Request) {
	bases, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if bases == nil {
		bases = []domain.Base{}
	}
	writeJSON(w, http.StatusOK, DataEnvelope[domain.Base]{Data: bases})
}

func (h *BaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.BaseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.BaseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
