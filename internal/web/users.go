package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

const usersTitle = "Users"

type usersPage struct {
	PageData
	Users []model.Profile
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	profiles, err := store.ListProfiles(r.Context(), s.DB)
	if err != nil {
		s.Logger.Error("failed to list users", "error", err)
		status, errMsg = http.StatusInternalServerError, "Could not load users."
	}
	s.Templates.RenderStatus(w, status, "users.html", &usersPage{
		PageData: PageData{Title: usersTitle, User: GetWebClaims(r.Context()), Error: errMsg, Success: success},
		Users:    profiles,
	})
}

// requireAdmin renders a 403 for non-admins and reports whether to go on.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := GetWebClaims(r.Context())
	if claims == nil || !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	s.renderUsers(w, r, http.StatusOK, "", "")
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || password == "" || !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Username, password and role are required.", "")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, "The password must be at least 8 characters.", "")
		return
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not hash the password.", "")
		return
	}

	if _, err := store.CreateProfile(r.Context(), s.DB, username, displayName, string(hash), role); err != nil {
		s.renderUsers(w, r, http.StatusConflict, "That username is taken.", "")
		return
	}

	s.Logger.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	id := chi.URLParam(r, "id")

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, "The password must be at least 8 characters.", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not hash the password.", "")
		return
	}

	if err := store.UpdateProfilePassword(r.Context(), s.DB, id, string(hash)); err != nil {
		s.Logger.Error("failed to reset password", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not reset the password.", "")
		return
	}

	s.Logger.Info("user password reset", "user", GetWebClaims(r.Context()).Username, "target", id)
	s.renderUsers(w, r, http.StatusOK, "", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	role := r.FormValue("role")

	if !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Unknown role.", "")
		return
	}
	if err := store.UpdateProfileRole(r.Context(), s.DB, id, role); err != nil {
		s.Logger.Error("failed to update role", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not update the role.", "")
		return
	}

	s.Logger.Info("user role updated", "user", GetWebClaims(r.Context()).Username, "target", id, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only). Species
// the user added stay in the catalog.
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())
	id := chi.URLParam(r, "id")

	if id == claims.ProfileID() {
		s.renderUsers(w, r, http.StatusBadRequest, "You cannot delete yourself.", "")
		return
	}
	if err := s.Catalog.DeleteProfile(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.renderUsers(w, r, http.StatusNotFound, "No such user.", "")
			return
		}
		s.Logger.Error("failed to delete user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Could not delete the user.", "")
		return
	}

	s.Logger.Info("user deleted", "user", claims.Username, "target", id)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
