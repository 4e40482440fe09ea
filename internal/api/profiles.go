package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/vrste/internal/catalog"
)

// ProfilesHandler exposes public profile details.
type ProfilesHandler struct {
	Catalog *catalog.Service
}

type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Get handles GET /api/profiles/{id}.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name, err := h.Catalog.ProfileDisplayName(r.Context(), id)
	if err != nil {
		catalogError(w, r, err, "profile")
		return
	}
	jsonResponse(w, http.StatusOK, profileResponse{ID: id, DisplayName: name})
}

// UpdateMe handles PUT /api/profile, editing the caller's own profile.
func (h *ProfilesHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Catalog.UpdateProfile(r.Context(), claims.ProfileID(), req); err != nil {
		catalogError(w, r, err, "profile")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
