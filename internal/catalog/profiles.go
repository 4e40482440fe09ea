package catalog

import (
	"context"

	"github.com/erazemk/vrste/internal/store"
)

// ProfileDisplayName returns the display name of a profile or ErrNotFound.
func (s *Service) ProfileDisplayName(ctx context.Context, id string) (string, error) {
	names, err := s.ProfileDisplayNames(ctx, []string{id})
	if err != nil {
		return "", err
	}
	name, ok := names[id]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

// ProfileDisplayNames resolves display names for ids, consulting the cache
// first. Unknown profiles are absent from the result. Cache failures are
// logged and fall through to the store.
func (s *Service) ProfileDisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	missing := ids

	if s.names != nil && len(ids) > 0 {
		cached, err := s.names.DisplayNames(ctx, ids)
		if err != nil {
			s.logger.Warn("display name cache read failed", "error", err)
		} else {
			missing = missing[:0:0]
			for _, id := range ids {
				if name, ok := cached[id]; ok {
					names[id] = name
				} else {
					missing = append(missing, id)
				}
			}
		}
	}

	if len(missing) == 0 {
		return names, nil
	}

	loaded, err := store.GetProfileDisplayNames(ctx, s.db, missing)
	if err != nil {
		return nil, err
	}
	for id, name := range loaded {
		names[id] = name
	}

	if s.names != nil && len(loaded) > 0 {
		if err := s.names.SetDisplayNames(ctx, loaded); err != nil {
			s.logger.Warn("display name cache write failed", "error", err)
		}
	}

	return names, nil
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Biography   string `json:"biography"`
}

// UpdateProfile changes a profile's public details and drops its cached
// display name.
func (s *Service) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) error {
	if len(u.DisplayName) > maxNameLength {
		return invalid("display name is too long")
	}
	if len(u.Biography) > maxDescriptionLength {
		return invalid("biography is too long")
	}

	p, err := store.GetProfile(ctx, s.db, id)
	if err != nil {
		return err
	}
	if p == nil || p.DeletedAt != nil {
		return ErrNotFound
	}

	if err := store.UpdateProfileDetails(ctx, s.db, id, u.DisplayName, u.Email, u.Biography); err != nil {
		return err
	}

	if s.names != nil {
		if err := s.names.InvalidateDisplayName(ctx, id); err != nil {
			s.logger.Warn("display name cache invalidation failed", "profile", id, "error", err)
		}
	}
	return nil
}

// DeleteProfile soft-deletes a profile. Its species stay in the catalog but
// the author name stops resolving, so the cached name is dropped as well.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	p, err := store.GetProfile(ctx, s.db, id)
	if err != nil {
		return err
	}
	if p == nil || p.DeletedAt != nil {
		return ErrNotFound
	}

	if err := store.DeleteProfile(ctx, s.db, id); err != nil {
		return err
	}

	if s.names != nil {
		if err := s.names.InvalidateDisplayName(ctx, id); err != nil {
			s.logger.Warn("display name cache invalidation failed", "profile", id, "error", err)
		}
	}
	s.logger.Info("profile deleted", "profile", id)
	return nil
}
