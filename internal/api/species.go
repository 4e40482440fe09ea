package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/model"
)

// SpeciesHandler handles the species catalog endpoints.
type SpeciesHandler struct {
	Catalog       *catalog.Service
	MaxUploadSize int64
}

type speciesResponse struct {
	model.Species
	AuthorName string `json:"author_name,omitempty"`
}

// withAuthorNames attaches display names in one batched lookup.
func (h *SpeciesHandler) withAuthorNames(r *http.Request, species []model.Species) []speciesResponse {
	ids := make([]string, 0, len(species))
	seen := make(map[string]bool, len(species))
	for _, s := range species {
		if s.Author != "" && !seen[s.Author] {
			seen[s.Author] = true
			ids = append(ids, s.Author)
		}
	}

	names, err := h.Catalog.ProfileDisplayNames(r.Context(), ids)
	if err != nil {
		slog.Error("Error fetching author details", "error", err)
	}

	out := make([]speciesResponse, len(species))
	for i, s := range species {
		out[i] = speciesResponse{Species: s, AuthorName: names[s.Author]}
	}
	return out
}

// List handles GET /api/species.
func (h *SpeciesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := catalog.Filter{
		Query:  r.URL.Query().Get("q"),
		Author: r.URL.Query().Get("author"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	species, err := h.Catalog.ListSpecies(r.Context(), filter)
	if err != nil {
		catalogError(w, r, err, "species")
		return
	}
	jsonResponse(w, http.StatusOK, h.withAuthorNames(r, species))
}

// Create handles POST /api/species.
func (h *SpeciesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewSpecies
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	species, err := h.Catalog.CreateSpecies(r.Context(), claims.ProfileID(), req)
	if err != nil {
		catalogError(w, r, err, "species")
		return
	}
	jsonResponse(w, http.StatusCreated, species)
}

// Get handles GET /api/species/{id}.
func (h *SpeciesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid species id")
		return
	}

	species, err := h.Catalog.GetSpecies(r.Context(), id)
	if err != nil {
		catalogError(w, r, err, "species")
		return
	}
	jsonResponse(w, http.StatusOK, h.withAuthorNames(r, []model.Species{*species})[0])
}

// Delete handles DELETE /api/species/{id}. Only the author may delete.
func (h *SpeciesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid species id")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Catalog.DeleteSpecies(r.Context(), claims.ProfileID(), id); err != nil {
		catalogError(w, r, err, "species")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "species deleted"})
}

// UploadImage handles PUT /api/species/{id}/image (multipart field "image").
func (h *SpeciesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid species id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	claims := GetClaims(r.Context())
	species, err := h.Catalog.SetSpeciesImage(r.Context(), claims.ProfileID(), id, file)
	if err != nil {
		catalogError(w, r, err, "species")
		return
	}
	jsonResponse(w, http.StatusOK, species)
}

// GetImage handles GET /api/species/{id}/image.
func (h *SpeciesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid species id")
		return
	}

	img, err := h.Catalog.SpeciesImage(r.Context(), id)
	if err != nil {
		catalogError(w, r, err, "image")
		return
	}

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(img.Data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
