package catalog

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

const (
	maxNameBatch = 100
	nameWait     = 2 * time.Millisecond
)

// Session is a per-request view of the catalog for one viewer. Profile
// lookups made through it are batched, so a page of cards by a handful of
// authors costs one query. Sessions must not outlive the request.
type Session struct {
	svc    *Service
	viewer string
	names  *dataloader.Loader[string, string]
}

// Session returns a request-scoped handle for viewer.
func (s *Service) Session(viewer string) *Session {
	return &Session{
		svc:    s,
		viewer: viewer,
		names: dataloader.NewBatchedLoader(
			s.displayNamesBatchFn(),
			dataloader.WithWait[string, string](nameWait),
			dataloader.WithBatchCapacity[string, string](maxNameBatch),
		),
	}
}

func (s *Service) displayNamesBatchFn() dataloader.BatchFunc[string, string] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[string] {
		names, err := s.ProfileDisplayNames(ctx, keys)
		results := make([]*dataloader.Result[string], len(keys))
		for i, key := range keys {
			switch name, ok := names[key]; {
			case err != nil:
				results[i] = &dataloader.Result[string]{Error: err}
			case !ok:
				results[i] = &dataloader.Result[string]{Error: ErrNotFound}
			default:
				results[i] = &dataloader.Result[string]{Data: name}
			}
		}
		return results
	}
}

// Viewer returns the profile ID the session acts for.
func (s *Session) Viewer() string {
	return s.viewer
}

// ProfileDisplayName resolves a display name through the batched loader.
func (s *Session) ProfileDisplayName(ctx context.Context, id string) (string, error) {
	return s.names.Load(ctx, id)()
}

// DeleteSpecies deletes a species as the session's viewer.
func (s *Session) DeleteSpecies(ctx context.Context, id int64) error {
	return s.svc.DeleteSpecies(ctx, s.viewer, id)
}
