package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/ui"
)

const speciesTitle = "Species"

// speciesPage is the data of species.html.
type speciesPage struct {
	PageData
	Query          string
	Cards          []ui.CardView
	Details        *ui.DialogView
	Add            *ui.AddDialogView
	ConfirmMessage string
}

// speciesView holds what a species page render varies on besides the list.
type speciesView struct {
	status  int
	errMsg  string
	details int64
	add     *ui.AddSpeciesDialog
}

// SpeciesPage handles GET /species. ?details={id} opens that species'
// details dialog and ?add=1 opens the add dialog; the page owns both open
// states through the URL.
func (s *Server) SpeciesPage(w http.ResponseWriter, r *http.Request) {
	v := speciesView{status: http.StatusOK}
	if raw := r.URL.Query().Get("details"); raw != "" {
		v.details, _ = strconv.ParseInt(raw, 10, 64)
	}
	if r.URL.Query().Get("add") == "1" {
		v.add = &ui.AddSpeciesDialog{Open: true}
	}
	s.renderSpecies(w, r, v)
}

// mountCards builds one card per species and resolves every author name
// before returning. Each card looks its author up in its own goroutine and
// the session batches the lookups.
func (s *Server) mountCards(ctx context.Context, session *catalog.Session, species []model.Species) []ui.CardView {
	cards := make([]*ui.Card, len(species))
	for i, sp := range species {
		cards[i] = ui.NewCard(session, sp, session.Viewer(), s.Logger)
		cards[i].Mount(ctx)
	}

	views := make([]ui.CardView, len(cards))
	for i, card := range cards {
		card.Wait()
		views[i] = card.View()
		card.Unmount()
	}
	return views
}

func (s *Server) renderSpecies(w http.ResponseWriter, r *http.Request, v speciesView) {
	claims := GetWebClaims(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	species, err := s.Catalog.ListSpecies(r.Context(), catalog.Filter{Query: query})
	if err != nil {
		s.Logger.Error("failed to list species", "error", err)
		v.status = http.StatusInternalServerError
		v.errMsg = "Could not load the catalog."
	}

	page := &speciesPage{
		PageData:       PageData{Title: speciesTitle, User: claims, Error: v.errMsg},
		Query:          query,
		Cards:          s.mountCards(r.Context(), s.Catalog.Session(claims.ProfileID()), species),
		ConfirmMessage: ui.DeleteConfirmMessage,
	}

	if v.details != 0 {
		sp, err := s.Catalog.GetSpecies(r.Context(), v.details)
		switch {
		case err == nil:
			dialog := &ui.DetailsDialog{Species: *sp, Viewer: claims.ProfileID(), Open: true}
			view := dialog.View()
			page.Details = &view
		case !errors.Is(err, catalog.ErrNotFound):
			s.Logger.Error("failed to load species details", "id", v.details, "error", err)
		}
	}
	if v.add != nil {
		view := v.add.View()
		page.Add = &view
	}

	s.Templates.RenderStatus(w, v.status, "species.html", page)
}

// SpeciesCreateSubmit handles POST /species from the add dialog.
func (s *Server) SpeciesCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(s.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderSpecies(w, r, speciesView{
			status: http.StatusBadRequest,
			add:    &ui.AddSpeciesDialog{Open: true, Error: "The upload is too large."},
		})
		return
	}

	form := ui.SpeciesForm{
		ScientificName:  r.FormValue("scientific_name"),
		CommonName:      r.FormValue("common_name"),
		Kingdom:         r.FormValue("kingdom"),
		TotalPopulation: r.FormValue("total_population"),
		Description:     r.FormValue("description"),
		Image:           r.FormValue("image"),
	}
	retry := func(status int, msg string) {
		s.renderSpecies(w, r, speciesView{
			status: status,
			add:    &ui.AddSpeciesDialog{Open: true, Form: form, Error: msg},
		})
	}

	population, err := form.Population()
	if err != nil {
		retry(http.StatusBadRequest, err.Error())
		return
	}

	sp, err := s.Catalog.CreateSpecies(r.Context(), claims.ProfileID(), catalog.NewSpecies{
		ScientificName:  form.ScientificName,
		CommonName:      form.CommonName,
		Description:     form.Description,
		Image:           form.Image,
		Kingdom:         form.Kingdom,
		TotalPopulation: population,
	})
	if err != nil {
		status, msg := s.catalogFailure(err)
		retry(status, msg)
		return
	}

	if file, _, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		if _, err := s.Catalog.SetSpeciesImage(r.Context(), claims.ProfileID(), sp.ID, file); err != nil {
			status, msg := s.catalogFailure(err)
			s.renderSpecies(w, r, speciesView{status: status, errMsg: "Species added, but the photo was rejected: " + msg, details: sp.ID})
			return
		}
	}

	http.Redirect(w, r, "/species", http.StatusSeeOther)
}

// SpeciesDeleteSubmit handles POST /species/{id}/delete, the card's delete
// control. The control is only revealed on hover, so the card is driven
// as hovered before the delete flow runs.
func (s *Server) SpeciesDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sp, err := s.Catalog.GetSpecies(r.Context(), id)
	if err != nil {
		status, msg := s.catalogFailure(err)
		s.renderSpecies(w, r, speciesView{status: status, errMsg: "Error deleting species: " + msg})
		return
	}

	session := s.Catalog.Session(claims.ProfileID())
	card := ui.NewCard(session, *sp, claims.ProfileID(), s.Logger)
	card.PointerEnter()

	prompt := &formPrompter{confirmed: r.FormValue("confirmed") == "yes"}
	refresh := &redirectRefresher{w: w, r: r, target: speciesURL(r.FormValue("q"))}

	result, err := card.Delete(r.Context(), prompt, refresh)
	switch result {
	case ui.DeleteUnavailable:
		s.renderSpecies(w, r, speciesView{status: http.StatusForbidden, errMsg: "You can only delete species you added."})
	case ui.DeleteCancelled:
		http.Redirect(w, r, refresh.target, http.StatusSeeOther)
	case ui.DeleteFailed:
		status, _ := s.catalogFailure(err)
		s.renderSpecies(w, r, speciesView{status: status, errMsg: prompt.alert})
	case ui.Deleted:
		if err != nil {
			s.Logger.Error("failed to refresh after delete", "error", err)
		}
	}
}

// SpeciesImageGet handles GET /species/{id}/image.
func (s *Server) SpeciesImageGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	img, err := s.Catalog.SpeciesImage(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.Logger.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(img.Data); err != nil {
		s.Logger.Error("failed to write image response", "error", err)
	}
}

// SpeciesImageSubmit handles POST /species/{id}/image from the details
// dialog.
func (s *Server) SpeciesImageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(s.MaxUploadSize); err != nil {
		s.renderSpecies(w, r, speciesView{status: http.StatusBadRequest, errMsg: "The upload is too large.", details: id})
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		s.renderSpecies(w, r, speciesView{status: http.StatusBadRequest, errMsg: "Choose a photo to upload.", details: id})
		return
	}
	defer file.Close()

	if _, err := s.Catalog.SetSpeciesImage(r.Context(), claims.ProfileID(), id, file); err != nil {
		status, msg := s.catalogFailure(err)
		s.renderSpecies(w, r, speciesView{status: status, errMsg: msg, details: id})
		return
	}

	http.Redirect(w, r, speciesURL("", "details", id), http.StatusSeeOther)
}

// catalogFailure maps a catalog error to a status and a user-facing message.
func (s *Server) catalogFailure(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, catalog.ErrForbidden):
		return http.StatusForbidden, "only the author can change this species"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "species not found"
	default:
		s.Logger.Error("catalog request failed", "error", err)
		return http.StatusInternalServerError, err.Error()
	}
}

// formPrompter answers the delete confirmation from the submitted form and
// keeps the alert for the page's error banner.
type formPrompter struct {
	confirmed bool
	alert     string
}

func (p *formPrompter) Confirm(string) bool {
	return p.confirmed
}

func (p *formPrompter) Alert(message string) {
	p.alert = message
}

// redirectRefresher refetches the list with a Post/Redirect/Get.
type redirectRefresher struct {
	w      http.ResponseWriter
	r      *http.Request
	target string
}

func (rr *redirectRefresher) Refresh(context.Context) error {
	http.Redirect(rr.w, rr.r, rr.target, http.StatusSeeOther)
	return nil
}
