// Package catalog is the species catalog backend: species CRUD, photo
// storage and author name resolution.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/vrste/internal/imagestore"
	"github.com/erazemk/vrste/internal/imaging"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 5000
)

// Filter narrows ListSpecies.
type Filter = store.SpeciesFilter

// NameCache caches profile display names.
type NameCache interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
	SetDisplayNames(ctx context.Context, names map[string]string) error
	InvalidateDisplayName(ctx context.Context, profileID string) error
}

// Service implements catalog operations on top of the store.
type Service struct {
	db     *sql.DB
	images imagestore.Store
	names  NameCache
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNameCache puts a display name cache in front of the profile store.
func WithNameCache(c NameCache) Option {
	return func(s *Service) {
		s.names = c
	}
}

// New creates a catalog service.
func New(db *sql.DB, images imagestore.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{db: db, images: images, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSpecies holds the fields of a species being added.
type NewSpecies struct {
	ScientificName  string `json:"scientific_name"`
	CommonName      string `json:"common_name"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	Kingdom         string `json:"kingdom"`
	TotalPopulation *int64 `json:"total_population"`
}

func (n *NewSpecies) normalize() {
	n.ScientificName = strings.TrimSpace(n.ScientificName)
	n.CommonName = strings.TrimSpace(n.CommonName)
	n.Description = strings.TrimSpace(n.Description)
	n.Image = strings.TrimSpace(n.Image)
	n.Kingdom = strings.TrimSpace(n.Kingdom)
}

// Validate checks a normalized NewSpecies.
func (n NewSpecies) Validate() error {
	switch {
	case n.ScientificName == "":
		return invalid("scientific name is required")
	case utf8.RuneCountInString(n.ScientificName) > maxNameLength:
		return invalid("scientific name is too long")
	case utf8.RuneCountInString(n.CommonName) > maxNameLength:
		return invalid("common name is too long")
	case utf8.RuneCountInString(n.Description) > maxDescriptionLength:
		return invalid("description is too long")
	case !model.ValidKingdom(n.Kingdom):
		return invalid(fmt.Sprintf("unknown kingdom %q", n.Kingdom))
	case n.TotalPopulation != nil && *n.TotalPopulation < 0:
		return invalid("total population cannot be negative")
	case n.Image != "" && !strings.HasPrefix(n.Image, "http://") && !strings.HasPrefix(n.Image, "https://"):
		return invalid("image must be an http or https URL")
	}
	return nil
}

// ListSpecies returns the species matching filter.
func (s *Service) ListSpecies(ctx context.Context, filter Filter) ([]model.Species, error) {
	return store.ListSpecies(ctx, s.db, filter)
}

// GetSpecies returns a species or ErrNotFound.
func (s *Service) GetSpecies(ctx context.Context, id int64) (*model.Species, error) {
	sp, err := store.GetSpecies(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, ErrNotFound
	}
	return sp, nil
}

// CreateSpecies adds a species authored by viewer.
func (s *Service) CreateSpecies(ctx context.Context, viewer string, in NewSpecies) (*model.Species, error) {
	if viewer == "" {
		return nil, ErrForbidden
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sp, err := store.CreateSpecies(ctx, s.db, model.Species{
		ScientificName:  in.ScientificName,
		CommonName:      in.CommonName,
		Description:     in.Description,
		Image:           in.Image,
		Author:          viewer,
		Kingdom:         in.Kingdom,
		TotalPopulation: in.TotalPopulation,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("species created", "id", sp.ID, "scientific_name", sp.ScientificName, "author", viewer)
	return sp, nil
}

// authored loads a species and checks that viewer wrote it.
func (s *Service) authored(ctx context.Context, viewer string, id int64) (*model.Species, error) {
	sp, err := s.GetSpecies(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer == "" || sp.Author != viewer {
		return nil, ErrForbidden
	}
	return sp, nil
}

// DeleteSpecies removes a species authored by viewer, along with its photo.
func (s *Service) DeleteSpecies(ctx context.Context, viewer string, id int64) error {
	if _, err := s.authored(ctx, viewer, id); err != nil {
		return err
	}

	deleted, err := store.DeleteSpecies(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	if err := s.images.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete species image", "id", id, "error", err)
	}

	s.logger.Info("species deleted", "id", id, "author", viewer)
	return nil
}

// SetSpeciesImage processes an uploaded photo and attaches it to a species
// authored by viewer.
func (s *Service) SetSpeciesImage(ctx context.Context, viewer string, id int64, r io.Reader) (*model.Species, error) {
	if _, err := s.authored(ctx, viewer, id); err != nil {
		return nil, err
	}

	photo, err := imaging.Process(r)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
			return nil, invalid(err.Error())
		}
		return nil, invalid(fmt.Sprintf("processing image: %v", err))
	}

	if err := s.images.Put(ctx, id, imagestore.Image{Data: photo.Data, MIME: photo.MIME}); err != nil {
		return nil, err
	}
	if err := store.SetSpeciesImageURL(ctx, s.db, id, model.LocalImagePath(id)); err != nil {
		return nil, err
	}

	s.logger.Info("species image updated", "id", id, "width", photo.Width, "height", photo.Height)
	return s.GetSpecies(ctx, id)
}

// SpeciesImage returns the uploaded photo of a species or ErrNotFound.
func (s *Service) SpeciesImage(ctx context.Context, id int64) (*imagestore.Image, error) {
	img, err := s.images.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrNotFound
	}
	return img, nil
}
