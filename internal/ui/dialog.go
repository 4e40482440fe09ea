package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/erazemk/vrste/internal/model"
)

// AddSpeciesTitle labels the add dialog and its trigger.
const AddSpeciesTitle = "Add Species"

// AddSpeciesDescription is the add dialog's instruction line.
const AddSpeciesDescription = `Add a new species here. Click "Add Species" below when you're done.`

// DetailsDialog shows a species in full. Its open state is controlled: the
// parent owns Open and learns about requested changes via OnOpenChange.
type DetailsDialog struct {
	Species model.Species
	// Viewer is accepted for parity with Card; the details view does not
	// depend on it.
	Viewer       string
	Open         bool
	OnOpenChange func(open bool)
}

// SetOpen requests a new open state. The callback only fires on a change.
func (d *DetailsDialog) SetOpen(open bool) {
	setOpen(d.Open, open, d.OnOpenChange)
}

func setOpen(current, next bool, onChange func(bool)) {
	if current == next || onChange == nil {
		return
	}
	onChange(next)
}

// DialogView is the rendered content of a DetailsDialog.
type DialogView struct {
	Open bool
	ID   int64
	// Title is the scientific name.
	Title string
	// Subtitle is the common name; empty when the species has none.
	Subtitle    string
	Description string
	Kingdom     string
	Population  string
	Image       string
}

// View returns the dialog content.
func (d *DetailsDialog) View() DialogView {
	v := DialogView{
		Open:        d.Open,
		ID:          d.Species.ID,
		Title:       d.Species.ScientificName,
		Subtitle:    d.Species.CommonName,
		Description: d.Species.Description,
		Kingdom:     d.Species.Kingdom,
		Image:       d.Species.Image,
	}
	if p := d.Species.TotalPopulation; p != nil {
		v.Population = FormatPopulation(*p)
	}
	return v
}

// FormatPopulation groups digits by thousands: 23000 becomes "23,000".
func FormatPopulation(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// SpeciesForm holds the raw values of the add form.
type SpeciesForm struct {
	ScientificName  string
	CommonName      string
	Kingdom         string
	TotalPopulation string
	Description     string
	Image           string
}

// ErrBadPopulation is returned for a population that is not a whole number.
var ErrBadPopulation = errors.New("total population must be a whole number")

// Population parses the population field. Blank means unknown.
func (f SpeciesForm) Population() (*int64, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(f.TotalPopulation), ",", "")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ErrBadPopulation
	}
	return &n, nil
}

// AddSpeciesDialog is the controlled dialog holding the add form. Error and
// Form are kept across a failed submit so the user can correct the input.
type AddSpeciesDialog struct {
	Open         bool
	OnOpenChange func(open bool)
	Form         SpeciesForm
	Error        string
}

// SetOpen requests a new open state. The callback only fires on a change.
func (d *AddSpeciesDialog) SetOpen(open bool) {
	setOpen(d.Open, open, d.OnOpenChange)
}

// AddDialogView is the rendered content of an AddSpeciesDialog.
type AddDialogView struct {
	Open        bool
	Title       string
	Description string
	Kingdoms    []string
	Form        SpeciesForm
	Error       string
}

// View returns the dialog content.
func (d *AddSpeciesDialog) View() AddDialogView {
	return AddDialogView{
		Open:        d.Open,
		Title:       AddSpeciesTitle,
		Description: AddSpeciesDescription,
		Kingdoms:    model.Kingdoms,
		Form:        d.Form,
		Error:       d.Error,
	}
}
