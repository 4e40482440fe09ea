package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PutSpeciesImage stores (or replaces) the image bytes of a species.
func PutSpeciesImage(ctx context.Context, db *sql.DB, speciesID int64, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO species_images (species_id, data, mime) VALUES (?, ?, ?)
		 ON CONFLICT(species_id) DO UPDATE SET data = excluded.data, mime = excluded.mime`,
		speciesID, data, mime,
	)
	if err != nil {
		return fmt.Errorf("storing species image: %w", err)
	}
	return nil
}

// GetSpeciesImage returns a species image and its MIME type. Data is nil
// when no image is stored.
func GetSpeciesImage(ctx context.Context, db *sql.DB, speciesID int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM species_images WHERE species_id = ?`, speciesID,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting species image: %w", err)
	}
	return data, mime, nil
}

// DeleteSpeciesImage removes a stored image, if any.
func DeleteSpeciesImage(ctx context.Context, db *sql.DB, speciesID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM species_images WHERE species_id = ?`, speciesID); err != nil {
		return fmt.Errorf("deleting species image: %w", err)
	}
	return nil
}
