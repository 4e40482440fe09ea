package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/imaging"
	"github.com/erazemk/vrste/internal/model"
)

// Deps are the collaborators of the API handlers.
type Deps struct {
	DB            *sql.DB
	Catalog       *catalog.Service
	JWTSecret     string
	MaxUploadSize int64
}

// NewRouter creates the API router with all endpoints registered under /api.
func NewRouter(d Deps) http.Handler {
	if d.MaxUploadSize <= 0 {
		d.MaxUploadSize = imaging.MaxUploadBytes
	}

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB, Catalog: d.Catalog}
	speciesHandler := &SpeciesHandler{Catalog: d.Catalog, MaxUploadSize: d.MaxUploadSize}
	profilesHandler := &ProfilesHandler{Catalog: d.Catalog}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		// Public: login.
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.JWTSecret, d.DB))

			r.Put("/auth/password", authHandler.ChangePassword)
			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/species", speciesHandler.List)
			r.Post("/species", speciesHandler.Create)
			r.Get("/species/{id}", speciesHandler.Get)
			r.Delete("/species/{id}", speciesHandler.Delete)
			r.Put("/species/{id}/image", speciesHandler.UploadImage)
			r.Get("/species/{id}/image", speciesHandler.GetImage)

			r.Get("/profiles/{id}", profilesHandler.Get)
			r.Put("/profile", profilesHandler.UpdateMe)

			// Accounts (admin only).
			r.Route("/users", func(r chi.Router) {
				r.Use(RequireRole(model.RoleAdmin))
				r.Get("/", usersHandler.List)
				r.Post("/", usersHandler.Create)
				r.Get("/{id}", usersHandler.Get)
				r.Put("/{id}", usersHandler.Update)
				r.Put("/{id}/password", usersHandler.ResetPassword)
				r.Delete("/{id}", usersHandler.Delete)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			jsonError(w, http.StatusNotFound, "not found")
		})
	})

	return r
}
