// Package ui holds the view state of the catalog's species card and dialogs.
// Types here know nothing about HTTP; the web package renders their views.
package ui

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/erazemk/vrste/internal/model"
)

// DeleteConfirmMessage is the question asked before a species is deleted.
const DeleteConfirmMessage = "Are you sure you want to delete this species?"

const deleteErrorPrefix = "Error deleting species: "

// DescriptionPreviewLength is how many characters of a description a card
// shows.
const DescriptionPreviewLength = 150

// Backend is what a card needs from the catalog.
type Backend interface {
	ProfileDisplayName(ctx context.Context, authorID string) (string, error)
	DeleteSpecies(ctx context.Context, id int64) error
}

// Prompter asks the user to confirm an action and reports failures.
type Prompter interface {
	Confirm(message string) bool
	Alert(message string)
}

// Refresher refetches the list a card belongs to.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// DeleteResult is the outcome of Card.Delete.
type DeleteResult int

const (
	// DeleteUnavailable means the delete affordance was not shown.
	DeleteUnavailable DeleteResult = iota
	// DeleteCancelled means the user declined the confirmation.
	DeleteCancelled
	// DeleteFailed means the backend rejected the delete.
	DeleteFailed
	// Deleted means the species is gone and the list was refreshed.
	Deleted
)

func (r DeleteResult) String() string {
	switch r {
	case DeleteUnavailable:
		return "unavailable"
	case DeleteCancelled:
		return "cancelled"
	case DeleteFailed:
		return "failed"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Card is the view state of one species in the catalog grid.
//
// Hover and author resolution are independent. The author's display name
// is looked up asynchronously once per mount and per distinct author value.
// Every lookup carries the generation it was issued in; a result arriving
// after the author changed or the card was unmounted is dropped, so the
// latest lookup always wins.
type Card struct {
	backend Backend
	viewer  string
	logger  *slog.Logger

	mu         sync.Mutex
	species    model.Species
	hovered    bool
	authorName string
	mounted    bool
	generation uint64

	inflight sync.WaitGroup
}

// NewCard creates an unmounted card for species as seen by viewer.
func NewCard(backend Backend, species model.Species, viewer string, logger *slog.Logger) *Card {
	return &Card{
		backend: backend,
		species: species,
		viewer:  viewer,
		logger:  logger,
	}
}

// Mount starts the author lookup. Species without an author issue none.
func (c *Card) Mount(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted {
		return
	}
	c.mounted = true
	c.generation++
	c.authorName = ""
	c.lookupLocked(ctx)
}

// Unmount drops any lookup still in flight.
func (c *Card) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mounted = false
	c.generation++
}

// SetSpecies replaces the record. A changed author clears the known name
// and, on a mounted card, starts a new lookup.
func (c *Card) SetSpecies(ctx context.Context, s model.Species) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := s.Author != c.species.Author
	c.species = s
	if !changed {
		return
	}

	c.generation++
	c.authorName = ""
	if c.mounted {
		c.lookupLocked(ctx)
	}
}

func (c *Card) lookupLocked(ctx context.Context) {
	author := c.species.Author
	if author == "" {
		return
	}
	gen := c.generation

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		name, err := c.backend.ProfileDisplayName(ctx, author)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return
		}
		if err != nil {
			c.logger.Error("Error fetching author details", "species", c.species.ID, "author", author, "error", err)
			return
		}
		c.authorName = name
	}()
}

// Wait blocks until every issued lookup has finished.
func (c *Card) Wait() {
	c.inflight.Wait()
}

// PointerEnter marks the card as hovered.
func (c *Card) PointerEnter() {
	c.mu.Lock()
	c.hovered = true
	c.mu.Unlock()
}

// PointerLeave clears the hover state.
func (c *Card) PointerLeave() {
	c.mu.Lock()
	c.hovered = false
	c.mu.Unlock()
}

// Hovered reports the hover state.
func (c *Card) Hovered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// AuthorName returns the resolved author name, or "" while unknown.
func (c *Card) AuthorName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorName
}

// Species returns the current record.
func (c *Card) Species() model.Species {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.species
}

func (c *Card) ownedLocked() bool {
	return c.species.Author != "" && c.species.Author == c.viewer
}

// DeleteVisible reports whether the delete affordance is shown.
func (c *Card) DeleteVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered && c.ownedLocked()
}

// Delete runs the delete flow: confirm, delete, then alert on failure or
// refresh on success. A refresh error is returned alongside Deleted.
func (c *Card) Delete(ctx context.Context, p Prompter, r Refresher) (DeleteResult, error) {
	if !c.DeleteVisible() {
		return DeleteUnavailable, nil
	}
	if !p.Confirm(DeleteConfirmMessage) {
		return DeleteCancelled, nil
	}

	id := c.Species().ID
	if err := c.backend.DeleteSpecies(ctx, id); err != nil {
		p.Alert(deleteErrorPrefix + err.Error())
		return DeleteFailed, err
	}

	return Deleted, r.Refresh(ctx)
}

// CardView is a render snapshot of a card.
type CardView struct {
	ID             int64
	ScientificName string
	CommonName     string
	Description    string
	Image          string
	AuthorName     string
	// CanDelete is true when the viewer authored the species; the page
	// reveals the control on hover.
	CanDelete bool
	// ShowDelete is the delete affordance under the current hover state.
	ShowDelete bool
}

// View returns a snapshot for rendering.
func (c *Card) View() CardView {
	c.mu.Lock()
	defer c.mu.Unlock()

	owned := c.ownedLocked()
	return CardView{
		ID:             c.species.ID,
		ScientificName: c.species.ScientificName,
		CommonName:     c.species.CommonName,
		Description:    Truncate(c.species.Description),
		Image:          c.species.Image,
		AuthorName:     c.authorName,
		CanDelete:      owned,
		ShowDelete:     owned && c.hovered,
	}
}

// Truncate shortens a description for a card: the first
// DescriptionPreviewLength characters, trimmed, followed by "...". An empty
// description stays empty.
func Truncate(desc string) string {
	if desc == "" {
		return ""
	}
	runes := []rune(desc)
	if len(runes) > DescriptionPreviewLength {
		runes = runes[:DescriptionPreviewLength]
	}
	return strings.TrimSpace(string(runes)) + "..."
}
