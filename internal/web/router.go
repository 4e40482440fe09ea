package web

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/imaging"
	webembed "github.com/erazemk/vrste/web"
)

// Deps are the collaborators of the page handlers.
type Deps struct {
	DB            *sql.DB
	Catalog       *catalog.Service
	JWTSecret     string
	Logger        *slog.Logger
	MaxUploadSize int64
	SecureCookies bool
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(d Deps) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadSize <= 0 {
		d.MaxUploadSize = imaging.MaxUploadBytes
	}

	s := &Server{
		DB:            d.DB,
		Catalog:       d.Catalog,
		Templates:     templates,
		JWTSecret:     d.JWTSecret,
		Logger:        d.Logger,
		MaxUploadSize: d.MaxUploadSize,
		SecureCookies: d.SecureCookies,
	}

	r := chi.NewRouter()

	// Static assets.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	r.Get("/login", s.LoginPage)
	r.Post("/login", s.LoginSubmit)
	r.Post("/logout", s.Logout)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(CookieAuthMiddleware(d.JWTSecret, d.DB))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/species", http.StatusSeeOther)
		})

		r.Get("/species", s.SpeciesPage)
		r.Post("/species", s.SpeciesCreateSubmit)
		r.Post("/species/{id}/delete", s.SpeciesDeleteSubmit)
		r.Get("/species/{id}/image", s.SpeciesImageGet)
		r.Post("/species/{id}/image", s.SpeciesImageSubmit)

		r.Get("/users", s.UsersPage)
		r.Post("/users", s.UserCreateSubmit)
		r.Post("/users/{id}/password", s.UserResetPasswordSubmit)
		r.Post("/users/{id}/role", s.UserUpdateRoleSubmit)
		r.Post("/users/{id}/delete", s.UserDeleteSubmit)

		r.Get("/settings", s.SettingsPage)
		r.Post("/settings", s.SettingsSubmit)
		r.Post("/settings/profile", s.ProfileSubmit)
	})

	return r, nil
}
