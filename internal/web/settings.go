package web

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

const settingsTitle = "Settings"

type settingsPage struct {
	PageData
	Profile *model.Profile
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	claims := GetWebClaims(r.Context())
	profile, err := store.GetProfile(r.Context(), s.DB, claims.ProfileID())
	if err != nil {
		s.Logger.Error("failed to load profile", "error", err)
	}
	if profile == nil {
		profile = &model.Profile{ID: claims.ProfileID(), Username: claims.Username}
	}
	s.Templates.RenderStatus(w, status, "settings.html", &settingsPage{
		PageData: PageData{Title: settingsTitle, User: claims, Error: errMsg, Success: success},
		Profile:  profile,
	})
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, r, http.StatusOK, "", "")
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		s.renderSettings(w, r, http.StatusBadRequest, "Enter your current and new password.", "")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderSettings(w, r, http.StatusBadRequest, "The new password must be at least 8 characters.", "")
		return
	}

	profile, err := store.GetProfile(r.Context(), s.DB, claims.ProfileID())
	if err != nil || profile == nil {
		s.renderSettings(w, r, http.StatusInternalServerError, "Could not load your account.", "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(currentPassword)); err != nil {
		s.renderSettings(w, r, http.StatusUnauthorized, "The current password is wrong.", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.renderSettings(w, r, http.StatusInternalServerError, "Could not save the password.", "")
		return
	}

	if err := store.UpdateProfilePassword(r.Context(), s.DB, claims.ProfileID(), string(hash)); err != nil {
		s.Logger.Error("failed to update password", "error", err)
		s.renderSettings(w, r, http.StatusInternalServerError, "Could not save the password.", "")
		return
	}

	s.Logger.Info("password changed", "user", claims.Username)
	s.renderSettings(w, r, http.StatusOK, "", "Password changed.")
}

// ProfileSubmit handles POST /settings/profile.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	err := s.Catalog.UpdateProfile(r.Context(), claims.ProfileID(), catalog.ProfileUpdate{
		DisplayName: r.FormValue("display_name"),
		Email:       r.FormValue("email"),
		Biography:   r.FormValue("biography"),
	})
	switch {
	case err == nil:
		s.renderSettings(w, r, http.StatusOK, "", "Profile saved.")
	case errors.Is(err, catalog.ErrInvalid):
		s.renderSettings(w, r, http.StatusBadRequest, err.Error(), "")
	default:
		s.Logger.Error("failed to update profile", "error", err)
		s.renderSettings(w, r, http.StatusInternalServerError, "Could not save the profile.", "")
	}
}
