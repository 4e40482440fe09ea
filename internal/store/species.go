package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/vrste/internal/model"
)

var speciesColumns = []string{
	"id", "scientific_name", "common_name", "description", "image",
	"author", "kingdom", "total_population", "created_at",
}

// SpeciesFilter narrows ListSpecies. Zero values match everything.
type SpeciesFilter struct {
	// Query matches scientific or common name, case-insensitively.
	Query  string
	Author string
	Limit  uint64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpecies(row rowScanner) (*model.Species, error) {
	var s model.Species
	var commonName, description, image, author, kingdom sql.NullString
	var population sql.NullInt64
	if err := row.Scan(&s.ID, &s.ScientificName, &commonName, &description, &image,
		&author, &kingdom, &population, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.CommonName = commonName.String
	s.Description = description.String
	s.Image = image.String
	s.Author = author.String
	s.Kingdom = kingdom.String
	if population.Valid {
		n := population.Int64
		s.TotalPopulation = &n
	}
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateSpecies inserts a species and returns the stored row.
func CreateSpecies(ctx context.Context, db *sql.DB, s model.Species) (*model.Species, error) {
	var population sql.NullInt64
	if s.TotalPopulation != nil {
		population = sql.NullInt64{Int64: *s.TotalPopulation, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO species (scientific_name, common_name, description, image, author, kingdom, total_population)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ScientificName, nullString(s.CommonName), nullString(s.Description), nullString(s.Image),
		nullString(s.Author), nullString(s.Kingdom), population,
	)
	if err != nil {
		return nil, fmt.Errorf("creating species: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting species id: %w", err)
	}

	return GetSpecies(ctx, db, id)
}

// GetSpecies returns a species by ID, or nil if it does not exist.
func GetSpecies(ctx context.Context, db *sql.DB, id int64) (*model.Species, error) {
	query, args, err := sq.Select(speciesColumns...).
		From("species").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building species query: %w", err)
	}

	s, err := scanSpecies(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting species: %w", err)
	}
	return s, nil
}

// ListSpecies returns species matching the filter, oldest first.
func ListSpecies(ctx context.Context, db *sql.DB, filter SpeciesFilter) ([]model.Species, error) {
	b := sq.Select(speciesColumns...).From("species").OrderBy("id")

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		b = b.Where(sq.Or{
			sq.Like{"lower(scientific_name)": pattern},
			sq.Like{"lower(common_name)": pattern},
		})
	}
	if filter.Author != "" {
		b = b.Where(sq.Eq{"author": filter.Author})
	}
	if filter.Limit > 0 {
		b = b.Limit(filter.Limit)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building species query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing species: %w", err)
	}
	defer rows.Close()

	var species []model.Species
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning species: %w", err)
		}
		species = append(species, *s)
	}
	return species, rows.Err()
}

// SetSpeciesImageURL sets the image URI of a species.
func SetSpeciesImageURL(ctx context.Context, db *sql.DB, id int64, image string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE species SET image = ? WHERE id = ?`,
		nullString(image), id,
	)
	if err != nil {
		return fmt.Errorf("setting species image: %w", err)
	}
	return nil
}

// DeleteSpecies removes a species. It reports whether a row was deleted.
func DeleteSpecies(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM species WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting species: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted species: %w", err)
	}
	return n > 0, nil
}
