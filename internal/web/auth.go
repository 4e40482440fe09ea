package web

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vrste/internal/auth"
	"github.com/erazemk/vrste/internal/store"
)

const loginTitle = "Sign in"

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: loginTitle})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "login.html", &PageData{Title: loginTitle, Error: msg})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Enter your username and password.")
		return
	}

	profile, err := store.GetProfileByUsername(r.Context(), s.DB, username)
	if err != nil {
		s.Logger.Error("failed to look up profile", "error", err)
		fail(http.StatusInternalServerError, "Sign in failed.")
		return
	}
	if profile == nil {
		fail(http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		s.Logger.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		fail(http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, profile.ID, profile.Username, profile.Role)
	if err != nil {
		fail(http.StatusInternalServerError, "Sign in failed.")
		return
	}

	s.setAuthCookie(w, token)
	s.Logger.Info("user logged in", "user", profile.Username)
	http.Redirect(w, r, "/species", http.StatusSeeOther)
}

// Logout handles POST /logout. The cookie's token is revoked so a copy of
// it stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
				s.Logger.Error("failed to revoke token", "error", err)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
