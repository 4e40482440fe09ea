// Package seed imports species from YAML files.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/vrste/internal/catalog"
)

// parseWorkers bounds how many seed files are read at once.
const parseWorkers = 4

// Entry is one species in a seed file.
type Entry struct {
	ScientificName  string `yaml:"scientific_name"`
	CommonName      string `yaml:"common_name"`
	Kingdom         string `yaml:"kingdom"`
	TotalPopulation *int64 `yaml:"total_population"`
	Description     string `yaml:"description"`
	Image           string `yaml:"image"`
}

func (e Entry) species() catalog.NewSpecies {
	return catalog.NewSpecies{
		ScientificName:  e.ScientificName,
		CommonName:      e.CommonName,
		Description:     e.Description,
		Image:           e.Image,
		Kingdom:         e.Kingdom,
		TotalPopulation: e.TotalPopulation,
	}
}

// Parse reads a seed file: a YAML list of entries. Every entry is
// validated before anything is returned.
func Parse(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}

	for i, e := range entries {
		if err := e.species().Validate(); err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i+1, e.ScientificName, err)
		}
	}
	return entries, nil
}

// ParseFiles parses several seed files concurrently and returns their
// entries in argument order.
func ParseFiles(ctx context.Context, paths []string) ([]Entry, error) {
	parsed := make([][]Entry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := Parse(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			parsed[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Entry
	for _, entries := range parsed {
		all = append(all, entries...)
	}
	return all, nil
}

// Result counts what an import did.
type Result struct {
	Created int
	Skipped int
}

// Import adds entries to the catalog as author. Entries whose scientific
// name is already in the catalog are skipped, so a file can be imported
// more than once.
func Import(ctx context.Context, svc *catalog.Service, author string, entries []Entry) (Result, error) {
	existing, err := svc.ListSpecies(ctx, catalog.Filter{})
	if err != nil {
		return Result{}, fmt.Errorf("listing species: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, sp := range existing {
		seen[strings.ToLower(sp.ScientificName)] = true
	}

	var todo []Entry
	var res Result
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.ScientificName))
		if seen[key] {
			res.Skipped++
			continue
		}
		seen[key] = true
		todo = append(todo, e)
	}

	// Inserts run in file order so catalog ids follow the file.
	for _, e := range todo {
		if _, err := svc.CreateSpecies(ctx, author, e.species()); err != nil {
			return res, fmt.Errorf("importing %q: %w", e.ScientificName, err)
		}
		res.Created++
	}
	return res, nil
}
