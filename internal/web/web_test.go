package web

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/vrste/internal/auth"
	"github.com/erazemk/vrste/internal/catalog"
	"github.com/erazemk/vrste/internal/db"
	"github.com/erazemk/vrste/internal/imagestore"
	"github.com/erazemk/vrste/internal/model"
	"github.com/erazemk/vrste/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	handler http.Handler
	db      *sql.DB
	catalog *catalog.Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.New(database, imagestore.NewDB(database), logger)

	handler, err := NewRouter(Deps{DB: database, Catalog: svc, JWTSecret: testJWTSecret, Logger: logger})
	if err != nil {
		t.Fatalf("creating router: %v", err)
	}
	return &testEnv{handler: handler, db: database, catalog: svc}
}

func (e *testEnv) profile(t *testing.T, username, displayName, role string) *model.Profile {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	p, err := store.CreateProfile(context.Background(), e.db, username, displayName, string(hash), role)
	if err != nil {
		t.Fatalf("creating %s: %v", username, err)
	}
	return p
}

func (e *testEnv) species(t *testing.T, author *model.Profile, name string) *model.Species {
	t.Helper()
	population := int64(23000)
	sp, err := e.catalog.CreateSpecies(context.Background(), author.ID, catalog.NewSpecies{
		ScientificName:  name,
		CommonName:      "Lion",
		Description:     "A large cat of the genus Panthera.",
		Kingdom:         model.KingdomAnimalia,
		TotalPopulation: &population,
	})
	if err != nil {
		t.Fatalf("creating species: %v", err)
	}
	return sp
}

// request sends a request as p; a nil profile sends it anonymously.
func (e *testEnv) request(t *testing.T, p *model.Profile, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if p != nil {
		token, err := auth.GenerateToken(testJWTSecret, p.ID, p.Username, p.Role)
		if err != nil {
			t.Fatal(err)
		}
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.request(t, nil, http.MethodGet, "/species", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoginSetsCookie(t *testing.T) {
	env := setupTestEnv(t)
	env.profile(t, "alice", "Alice", model.RoleUser)

	rec := env.request(t, nil, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"password"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/species" {
		t.Fatalf("expected redirect to /species, got %d", rec.Code)
	}

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookieName {
			token = c.Value
		}
	}
	if _, err := auth.ValidateToken(testJWTSecret, token); err != nil {
		t.Fatalf("login cookie does not hold a valid token: %v", err)
	}

	rec = env.request(t, nil, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong password, got %d", rec.Code)
	}
}

func TestSpeciesPageShowsAuthorAndDeleteForOwner(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)
	bob := env.profile(t, "bob", "Bob", model.RoleUser)
	sp := env.species(t, alice, "Panthera leo")

	deleteAction := `action="/species/` + strconv.FormatInt(sp.ID, 10) + `/delete"`

	rec := env.request(t, alice, http.MethodGet, "/species", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Panthera leo", "Author: Alice", deleteAction, `aria-label="Delete Species"`, "Learn More"} {
		if !strings.Contains(body, want) {
			t.Errorf("species page for the author is missing %q", want)
		}
	}

	body = env.request(t, bob, http.MethodGet, "/species", nil).Body.String()
	if !strings.Contains(body, "Author: Alice") {
		t.Error("other viewers should see the author name")
	}
	if strings.Contains(body, deleteAction) {
		t.Error("delete control rendered for a non-author")
	}
}

func TestSpeciesPageSearch(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)
	env.species(t, alice, "Panthera leo")
	env.species(t, alice, "Ursus arctos")

	body := env.request(t, alice, http.MethodGet, "/species?q=ursus", nil).Body.String()
	if !strings.Contains(body, "Ursus arctos") || strings.Contains(body, "Panthera leo") {
		t.Error("search did not filter the list")
	}
}

func TestDetailsDialogOpensFromQuery(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)
	sp := env.species(t, alice, "Panthera leo")

	body := env.request(t, alice, http.MethodGet, "/species", nil).Body.String()
	if strings.Contains(body, "<dialog") {
		t.Error("dialog rendered without being opened")
	}

	body = env.request(t, alice, http.MethodGet, "/species?details="+strconv.FormatInt(sp.ID, 10), nil).Body.String()
	for _, want := range []string{"<dialog open", "Total population", "23,000", "Animalia"} {
		if !strings.Contains(body, want) {
			t.Errorf("details dialog is missing %q", want)
		}
	}
}

func TestDeleteFlow(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)
	bob := env.profile(t, "bob", "Bob", model.RoleUser)
	sp := env.species(t, alice, "Panthera leo")
	target := "/species/" + strconv.FormatInt(sp.ID, 10) + "/delete"

	exists := func() bool {
		got, err := store.GetSpecies(context.Background(), env.db, sp.ID)
		if err != nil {
			t.Fatal(err)
		}
		return got != nil
	}

	// Not confirmed: nothing happens.
	rec := env.request(t, alice, http.MethodPost, target, url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect on cancel, got %d", rec.Code)
	}
	if !exists() {
		t.Fatal("species deleted without confirmation")
	}

	// Someone else's species.
	rec = env.request(t, bob, http.MethodPost, target, url.Values{"confirmed": {"yes"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-author, got %d", rec.Code)
	}
	if !exists() {
		t.Fatal("non-author deleted the species")
	}

	// Confirmed by the author, keeping the search.
	rec = env.request(t, alice, http.MethodPost, target, url.Values{"confirmed": {"yes"}, "q": {"panthera"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/species?q=panthera" {
		t.Fatalf("expected refresh redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if exists() {
		t.Fatal("species not deleted")
	}

	// Already gone.
	rec = env.request(t, alice, http.MethodPost, target, url.Values{"confirmed": {"yes"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a deleted species, got %d", rec.Code)
	}
}

func TestCreateSpeciesFromForm(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)

	rec := env.request(t, alice, http.MethodGet, "/species?add=1", nil)
	if !strings.Contains(rec.Body.String(), "Add a new species here.") {
		t.Error("add dialog not open")
	}

	rec = env.request(t, alice, http.MethodPost, "/species", url.Values{
		"scientific_name":  {"Vulpes vulpes"},
		"common_name":      {"Red fox"},
		"kingdom":          {model.KingdomAnimalia},
		"total_population": {"1,000"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}

	list, err := env.catalog.ListSpecies(context.Background(), catalog.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Author != alice.ID {
		t.Fatalf("expected one species by alice, got %+v", list)
	}

	rec = env.request(t, alice, http.MethodPost, "/species", url.Values{"common_name": {"Nameless"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing name, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<dialog open") || !strings.Contains(body, `value="Nameless"`) {
		t.Error("failed submit should keep the add dialog open with the input")
	}
}

func TestUsersPageAdminOnly(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.profile(t, "admin", "Admin", model.RoleAdmin)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)

	if rec := env.request(t, alice, http.MethodGet, "/users", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a user, got %d", rec.Code)
	}

	rec := env.request(t, admin, http.MethodPost, "/users", url.Values{
		"username": {"carol"}, "password": {"password1"}, "role": {model.RoleUser},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	carol, err := store.GetProfileByUsername(context.Background(), env.db, "carol")
	if err != nil || carol == nil {
		t.Fatalf("carol not created: %v", err)
	}
	if carol.DisplayName != "carol" {
		t.Errorf("display name should default to the username, got %q", carol.DisplayName)
	}

	rec = env.request(t, admin, http.MethodPost, "/users/"+admin.ID+"/delete", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-delete, got %d", rec.Code)
	}
}

func TestProfileUpdateChangesAuthorName(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)
	env.species(t, alice, "Panthera leo")

	rec := env.request(t, alice, http.MethodPost, "/settings/profile", url.Values{"display_name": {"Alice Liddell"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := env.request(t, alice, http.MethodGet, "/species", nil).Body.String()
	if !strings.Contains(body, "Author: Alice Liddell") {
		t.Error("card should show the new display name")
	}
}

func TestChangePassword(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)

	rec := env.request(t, alice, http.MethodPost, "/settings", url.Values{"current_password": {"wrong"}, "new_password": {"newpassword"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong current password, got %d", rec.Code)
	}

	rec = env.request(t, alice, http.MethodPost, "/settings", url.Values{"current_password": {"password"}, "new_password": {"newpassword"}})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Password changed.") {
		t.Fatalf("password change failed: %d", rec.Code)
	}

	rec = env.request(t, nil, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"newpassword"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login with the new password failed: %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.request(t, nil, http.MethodGet, "/static/style.css", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), ".card:hover .card-delete") {
		t.Fatalf("stylesheet not served: %d", rec.Code)
	}
}

func TestDeleteFailureShowsAlertBanner(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.profile(t, "alice", "Alice", model.RoleUser)
	sp := env.species(t, alice, "Panthera leo")

	// The row is found but the delete itself fails.
	if _, err := env.db.Exec(`CREATE TRIGGER keep_species BEFORE DELETE ON species
		BEGIN SELECT RAISE(ABORT, 'species is locked'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	target := "/species/" + strconv.FormatInt(sp.ID, 10) + "/delete"
	rec := env.request(t, alice, http.MethodPost, target, url.Values{"confirmed": {"yes"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `class="banner error"`) ||
		!strings.Contains(body, "Error deleting species: ") ||
		!strings.Contains(body, "species is locked") {
		t.Errorf("expected the delete error in the banner, got %s", body)
	}
	if !strings.Contains(body, "Panthera leo") {
		t.Error("the list should still show the species")
	}

	got, err := store.GetSpecies(context.Background(), env.db, sp.ID)
	if err != nil || got == nil {
		t.Fatalf("species should survive a failed delete: %v", err)
	}
}

func TestDeletedUserLosesAuthorName(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.profile(t, "admin", "Admin", model.RoleAdmin)
	gone := env.profile(t, "gone", "Gone Author", model.RoleUser)
	env.species(t, gone, "Panthera leo")

	body := env.request(t, admin, http.MethodGet, "/species", nil).Body.String()
	if !strings.Contains(body, "Author: Gone Author") {
		t.Fatal("author name should show before the delete")
	}

	rec := env.request(t, admin, http.MethodPost, "/users/"+gone.ID+"/delete", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	body = env.request(t, admin, http.MethodGet, "/species", nil).Body.String()
	if !strings.Contains(body, "Panthera leo") {
		t.Error("species should outlive its author")
	}
	if strings.Contains(body, "Gone Author") {
		t.Error("deleted author's name still shown")
	}

	rec = env.request(t, admin, http.MethodPost, "/users/"+gone.ID+"/delete", url.Values{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting a deleted user, got %d", rec.Code)
	}
}
