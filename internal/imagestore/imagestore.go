// Package imagestore keeps the bytes of uploaded species photos.
package imagestore

import (
	"context"
	"database/sql"

	"github.com/erazemk/vrste/internal/store"
)

// Image is a stored photo.
type Image struct {
	Data []byte
	MIME string
}

// Store persists species photos keyed by species ID. Get returns nil, nil
// when no photo exists.
type Store interface {
	Put(ctx context.Context, speciesID int64, img Image) error
	Get(ctx context.Context, speciesID int64) (*Image, error)
	Delete(ctx context.Context, speciesID int64) error
}

// DB stores photos as blobs next to the catalog in SQLite.
type DB struct {
	db *sql.DB
}

// NewDB returns a blob store backed by the catalog database.
func NewDB(db *sql.DB) *DB {
	return &DB{db: db}
}

func (s *DB) Put(ctx context.Context, speciesID int64, img Image) error {
	return store.PutSpeciesImage(ctx, s.db, speciesID, img.Data, img.MIME)
}

func (s *DB) Get(ctx context.Context, speciesID int64) (*Image, error) {
	data, mime, err := store.GetSpeciesImage(ctx, s.db, speciesID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return &Image{Data: data, MIME: mime}, nil
}

func (s *DB) Delete(ctx context.Context, speciesID int64) error {
	return store.DeleteSpeciesImage(ctx, s.db, speciesID)
}
