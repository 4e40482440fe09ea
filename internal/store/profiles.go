package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/oklog/ulid/v2"

	"github.com/erazemk/vrste/internal/model"
)

const profileColumns = `id, username, display_name, email, biography, password_hash, role, created_at, deleted_at`

// CreateProfile creates a new profile with a fresh ULID identifier.
func CreateProfile(ctx context.Context, db *sql.DB, username, displayName, passwordHash, role string) (*model.Profile, error) {
	id := ulid.Make().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO profiles (id, username, display_name, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		id, username, displayName, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	return GetProfile(ctx, db, id)
}

// GetProfile returns a profile by ID.
func GetProfile(ctx context.Context, db *sql.DB, id string) (*model.Profile, error) {
	p := &model.Profile{}
	err := db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Email, &p.Biography, &p.PasswordHash, &p.Role, &p.CreatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// GetProfileByUsername returns the active profile with the given username.
func GetProfileByUsername(ctx context.Context, db *sql.DB, username string) (*model.Profile, error) {
	p := &model.Profile{}
	err := db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = ? AND deleted_at IS NULL`, username,
	).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Email, &p.Biography, &p.PasswordHash, &p.Role, &p.CreatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile by username: %w", err)
	}
	return p, nil
}

// GetProfileDisplayNames returns display names keyed by profile ID. Unknown
// and deleted profiles are absent from the result.
func GetProfileDisplayNames(ctx context.Context, db *sql.DB, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query, args, err := sq.Select("id", "display_name").
		From("profiles").
		Where(sq.Eq{"id": ids, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building display name query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting profile display names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning display name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// ListProfiles returns all non-deleted profiles.
func ListProfiles(ctx context.Context, db *sql.DB) ([]model.Profile, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE deleted_at IS NULL ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Email, &p.Biography, &p.PasswordHash, &p.Role, &p.CreatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfileRole updates a profile's role.
func UpdateProfileRole(ctx context.Context, db *sql.DB, id, role string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET role = ? WHERE id = ? AND deleted_at IS NULL`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating profile role: %w", err)
	}
	return nil
}

// UpdateProfileDetails updates the public fields of a profile.
func UpdateProfileDetails(ctx context.Context, db *sql.DB, id, displayName, email, biography string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET display_name = ?, email = ?, biography = ? WHERE id = ? AND deleted_at IS NULL`,
		displayName, email, biography, id,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// UpdateProfilePassword updates a profile's password hash.
func UpdateProfilePassword(ctx context.Context, db *sql.DB, id, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating profile password: %w", err)
	}
	return nil
}

// DeleteProfile soft-deletes a profile. Species keep their author reference.
func DeleteProfile(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
