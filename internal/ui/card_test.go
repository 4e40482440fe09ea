package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/vrste/internal/model"
)

type fakeBackend struct {
	mu        sync.Mutex
	names     map[string]string
	lookupErr error
	lookups   []string
	// gates, when set for an author, hold its lookup until closed.
	gates map[string]chan struct{}

	deleteErr error
	deletes   []int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		names: map[string]string{"u1": "Ana", "u2": "Bor"},
		gates: map[string]chan struct{}{},
	}
}

func (f *fakeBackend) gate(author string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[author] = ch
	return ch
}

func (f *fakeBackend) ProfileDisplayName(ctx context.Context, author string) (string, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, author)
	gate := f.gates[author]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.names[author], nil
}

func (f *fakeBackend) DeleteSpecies(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func (f *fakeBackend) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups)
}

type fakePrompter struct {
	answer   bool
	confirms []string
	alerts   []string
}

func (p *fakePrompter) Confirm(message string) bool {
	p.confirms = append(p.confirms, message)
	return p.answer
}

func (p *fakePrompter) Alert(message string) {
	p.alerts = append(p.alerts, message)
}

type fakeRefresher struct {
	refreshes int
}

func (r *fakeRefresher) Refresh(context.Context) error {
	r.refreshes++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lion(author string) model.Species {
	return model.Species{ID: 1, ScientificName: "Panthera leo", Author: author}
}

func TestMountWithoutAuthorIssuesNoLookup(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion(""), "u1", discardLogger())

	card.Mount(context.Background())
	card.Wait()

	assert.Zero(t, backend.lookupCount())
	assert.Empty(t, card.AuthorName())
	assert.Empty(t, card.View().AuthorName)
}

func TestMountLooksUpAuthorOnce(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "u2", discardLogger())
	ctx := context.Background()

	card.Mount(ctx)
	card.Mount(ctx)
	card.Wait()

	assert.Equal(t, []string{"u1"}, backend.lookups)
	assert.Equal(t, "Ana", card.AuthorName())
	assert.Equal(t, "Ana", card.View().AuthorName)
}

func TestSetSpeciesRefetchesOnlyOnAuthorChange(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "u1", discardLogger())
	ctx := context.Background()

	card.Mount(ctx)
	card.Wait()

	renamed := lion("u1")
	renamed.CommonName = "Lion"
	card.SetSpecies(ctx, renamed)
	card.Wait()
	assert.Equal(t, 1, backend.lookupCount(), "same author, no new lookup")
	assert.Equal(t, "Lion", card.View().CommonName)

	card.SetSpecies(ctx, lion("u2"))
	card.Wait()
	assert.Equal(t, []string{"u1", "u2"}, backend.lookups)
	assert.Equal(t, "Bor", card.AuthorName())

	card.SetSpecies(ctx, lion(""))
	card.Wait()
	assert.Equal(t, 2, backend.lookupCount())
	assert.Empty(t, card.AuthorName())
}

func TestStaleLookupIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	slow := backend.gate("u1")
	fast := backend.gate("u2")
	card := NewCard(backend, lion("u1"), "", discardLogger())
	ctx := context.Background()

	card.Mount(ctx)
	card.SetSpecies(ctx, lion("u2"))

	close(fast)
	close(slow)
	card.Wait()

	assert.Equal(t, "Bor", card.AuthorName(), "the later lookup wins")
}

func TestUnmountDiscardsInFlightLookup(t *testing.T) {
	backend := newFakeBackend()
	gate := backend.gate("u1")
	card := NewCard(backend, lion("u1"), "", discardLogger())

	card.Mount(context.Background())
	card.Unmount()
	close(gate)
	card.Wait()

	assert.Empty(t, card.AuthorName())
}

func TestRemountLooksUpAgain(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "", discardLogger())
	ctx := context.Background()

	card.Mount(ctx)
	card.Wait()
	card.Unmount()
	card.Mount(ctx)
	card.Wait()

	assert.Equal(t, 2, backend.lookupCount())
	assert.Equal(t, "Ana", card.AuthorName())
}

func TestLookupFailureIsLoggedAndNameStaysEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.lookupErr = errors.New("profile service down")
	var logs bytes.Buffer
	card := NewCard(backend, lion("u1"), "u1", slog.New(slog.NewTextHandler(&logs, nil)))

	card.Mount(context.Background())
	card.Wait()

	assert.Empty(t, card.AuthorName())
	assert.Contains(t, logs.String(), "Error fetching author details")
	assert.Contains(t, logs.String(), "profile service down")
}

func TestHoverToggles(t *testing.T) {
	card := NewCard(newFakeBackend(), lion("u1"), "u1", discardLogger())

	assert.False(t, card.Hovered())
	card.PointerEnter()
	assert.True(t, card.Hovered())
	card.PointerLeave()
	assert.False(t, card.Hovered())
}

func TestDeleteVisibleCombinations(t *testing.T) {
	tests := []struct {
		name    string
		hovered bool
		author  string
		want    bool
	}{
		{"hovered owner", true, "u1", true},
		{"hovered other author", true, "u2", false},
		{"idle owner", false, "u1", false},
		{"idle other author", false, "u2", false},
		{"hovered no author", true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := NewCard(newFakeBackend(), lion(tt.author), "u1", discardLogger())
			if tt.hovered {
				card.PointerEnter()
			}
			assert.Equal(t, tt.want, card.DeleteVisible())
			assert.Equal(t, tt.want, card.View().ShowDelete)
			assert.Equal(t, tt.author == "u1", card.View().CanDelete)
		})
	}
}

func TestEmptyViewerNeverOwnsAuthorlessSpecies(t *testing.T) {
	card := NewCard(newFakeBackend(), lion(""), "", discardLogger())
	card.PointerEnter()
	assert.False(t, card.DeleteVisible())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, 0},
		{149, 149},
		{150, 150},
		{151, 150},
	}
	for _, tt := range tests {
		desc := strings.Repeat("a", tt.length)
		got := Truncate(desc)
		if tt.length == 0 {
			assert.Equal(t, "", got)
			continue
		}
		assert.Equal(t, desc[:tt.want]+"...", got, "length %d", tt.length)
	}
}

func TestTruncateCountsCharacters(t *testing.T) {
	desc := strings.Repeat("č", 151)
	assert.Equal(t, strings.Repeat("č", 150)+"...", Truncate(desc))
}

func TestTruncateTrimsCutWhitespace(t *testing.T) {
	desc := strings.Repeat("a", 149) + " tail"
	assert.Equal(t, strings.Repeat("a", 149)+"...", Truncate(desc))
}

func TestDeleteDeclined(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "u1", discardLogger())
	card.PointerEnter()
	prompt := &fakePrompter{answer: false}
	refresh := &fakeRefresher{}

	result, err := card.Delete(context.Background(), prompt, refresh)
	require.NoError(t, err)

	assert.Equal(t, DeleteCancelled, result)
	assert.Equal(t, []string{DeleteConfirmMessage}, prompt.confirms)
	assert.Empty(t, backend.deletes)
	assert.Zero(t, refresh.refreshes)
}

func TestDeleteAcceptedSuccess(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "u1", discardLogger())
	card.PointerEnter()
	prompt := &fakePrompter{answer: true}
	refresh := &fakeRefresher{}

	result, err := card.Delete(context.Background(), prompt, refresh)
	require.NoError(t, err)

	assert.Equal(t, Deleted, result)
	assert.Equal(t, []int64{1}, backend.deletes)
	assert.Equal(t, 1, refresh.refreshes)
	assert.Empty(t, prompt.alerts)
}

func TestDeleteAcceptedFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.deleteErr = errors.New("permission denied")
	card := NewCard(backend, lion("u1"), "u1", discardLogger())
	card.PointerEnter()
	prompt := &fakePrompter{answer: true}
	refresh := &fakeRefresher{}

	result, err := card.Delete(context.Background(), prompt, refresh)
	assert.Error(t, err)

	assert.Equal(t, DeleteFailed, result)
	assert.Equal(t, []string{"Error deleting species: permission denied"}, prompt.alerts)
	assert.Zero(t, refresh.refreshes)
}

func TestPantheraLeoOwnerDeletes(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "u1", discardLogger())
	card.Mount(context.Background())
	card.Wait()

	card.PointerEnter()
	require.True(t, card.View().ShowDelete)

	prompt := &fakePrompter{answer: true}
	refresh := &fakeRefresher{}
	result, err := card.Delete(context.Background(), prompt, refresh)
	require.NoError(t, err)

	assert.Equal(t, Deleted, result)
	assert.Equal(t, 1, refresh.refreshes)
}

func TestPantheraLeoOtherViewerCannotDelete(t *testing.T) {
	backend := newFakeBackend()
	card := NewCard(backend, lion("u1"), "u2", discardLogger())
	card.PointerEnter()
	assert.False(t, card.View().ShowDelete)

	prompt := &fakePrompter{answer: true}
	refresh := &fakeRefresher{}
	for i := 0; i < 3; i++ {
		result, err := card.Delete(context.Background(), prompt, refresh)
		require.NoError(t, err)
		assert.Equal(t, DeleteUnavailable, result)
	}

	assert.Empty(t, prompt.confirms)
	assert.Empty(t, backend.deletes)
	assert.Zero(t, refresh.refreshes)
}

func TestDeleteResultString(t *testing.T) {
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "cancelled", DeleteCancelled.String())
	assert.Equal(t, "unknown", DeleteResult(42).String())
}
