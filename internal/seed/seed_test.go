package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/db"
	"github.com/erazemk/vrste/internal/imagestore"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

const sample = `
- scientific_name: Panthera leo
  common_name: Lion
  kingdom: Animalia
  total_population: 23000
  description: A large cat of the genus Panthera.
- scientific_name: Quercus robur
  common_name: English oak
  kingdom: Plantae
- scientific_name: Amanita muscaria
  kingdom: Fungi
  image: https://example.com/amanita.jpg
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Panthera leo", entries[0].ScientificName)
	require.NotNil(t, entries[0].TotalPopulation)
	assert.Equal(t, int64(23000), *entries[0].TotalPopulation)
	assert.Nil(t, entries[1].TotalPopulation)
	assert.Equal(t, "https://example.com/amanita.jpg", entries[2].Image)
}

func TestParseEmpty(t *testing.T) {
	entries, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "- scientific_name: Panthera leo\n  colour: tawny\n",
		"missing name":   "- common_name: Lion\n",
		"bad kingdom":    "- scientific_name: Panthera leo\n  kingdom: Dragons\n",
		"negative count": "- scientific_name: Panthera leo\n  total_population: -1\n",
		"not a list":     "scientific_name: Panthera leo\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestImport(t *testing.T) {
	database := db.NewTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.New(database, imagestore.NewDB(database), logger)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	admin, err := store.CreateProfile(ctx, database, "admin", "Admin", string(hash), model.RoleAdmin)
	require.NoError(t, err)

	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	res, err := Import(ctx, svc, admin.ID, entries)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 3}, res)

	list, err := svc.ListSpecies(ctx, catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, sp := range list {
		assert.Equal(t, admin.ID, sp.Author)
		assert.Equal(t, entries[i].ScientificName, sp.ScientificName, "catalog order should follow the file")
	}

	// A second run only skips.
	res, err = Import(ctx, svc, admin.ID, entries)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 3}, res)
}

func TestParseFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}
	first := write("animals.yaml", "- scientific_name: Panthera leo\n- scientific_name: Ursus arctos\n")
	second := write("plants.yaml", "- scientific_name: Quercus robur\n  kingdom: Plantae\n")

	entries, err := ParseFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, e.ScientificName)
	}
	assert.Equal(t, []string{"Panthera leo", "Ursus arctos", "Quercus robur"}, got)

	bad := write("bad.yaml", "- common_name: Lion\n")
	_, err = ParseFiles(context.Background(), []string{first, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	_, err = ParseFiles(context.Background(), []string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}
