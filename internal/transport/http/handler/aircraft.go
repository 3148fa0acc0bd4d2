package handler

import (
	"errors"
	"net/http"

	"github.com/flightdesk-api/internal/application/aircraft"
	"github.com/flightdesk-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AircraftHandler struct {
	svc            aircraft.Service
	uploadMaxBytes int64
}

func NewAircraftHandler(svc aircraft.Service, uploadMaxBytes int64) *AircraftHandler {
	return &AircraftHandler{svc: svc, uploadMaxBytes: uploadMaxBytes}
}

func (h *AircraftHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("base_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Aircraft{}
	}
	writeJSON(w, http.StatusOK, DataEnvelope[domain.Aircraft]{Data: list})
}

func (h *AircraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AircraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.AircraftInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AircraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.AircraftInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AircraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a multipart form with the file in the "image" field.
func (h *AircraftHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'image' is required")
		return
	}
	defer file.Close()

	a, err := h.svc.UploadImage(r.Context(), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Image redirects to a short-lived presigned URL for the aircraft image.
func (h *AircraftHandler) Image(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.ImageURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}
