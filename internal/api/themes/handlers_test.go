package themes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/biolink/internal/api/apiutil"
	"github.com/codr1/biolink/internal/api/authz"
	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/ratelimit"
	themestore "github.com/codr1/biolink/internal/themes"
)

type mockThemeRepository struct {
	mu       sync.Mutex
	themes   map[string]models.Theme
	failWith error
}

func newMockThemeRepository() *mockThemeRepository {
	return &mockThemeRepository{themes: make(map[string]models.Theme)}
}

func (m *mockThemeRepository) add(theme models.Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	theme.Tokens = theme.Tokens.Clone()
	m.themes[theme.ID] = theme
}

func (m *mockThemeRepository) get(id string) (models.Theme, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	theme, ok := m.themes[id]
	return theme, ok
}

func (m *mockThemeRepository) FindByID(ctx context.Context, id string) (models.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return models.Theme{}, m.failWith
	}
	theme, ok := m.themes[id]
	if !ok {
		return models.Theme{}, themestore.ErrNoRows
	}
	theme.Tokens = theme.Tokens.Clone()
	return theme, nil
}

func (m *mockThemeRepository) FindByOwnerOrSystem(ctx context.Context, ownerID string) ([]models.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var results []models.Theme
	for _, theme := range m.themes {
		if theme.IsSystem || theme.IsOwnedBy(ownerID) {
			results = append(results, theme)
		}
	}
	return results, nil
}

func (m *mockThemeRepository) Insert(ctx context.Context, theme models.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.themes[theme.ID] = theme
	return nil
}

func (m *mockThemeRepository) UpdateByID(ctx context.Context, theme models.Theme, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.themes[theme.ID]
	if !ok || existing.IsSystem || !existing.IsOwnedBy(ownerID) {
		return themestore.ErrNoRows
	}
	m.themes[theme.ID] = theme
	return nil
}

func (m *mockThemeRepository) DeleteByID(ctx context.Context, id string, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	existing, ok := m.themes[id]
	if !ok || existing.IsSystem || !existing.IsOwnedBy(ownerID) {
		return false, nil
	}
	delete(m.themes, id)
	return true, nil
}

func strPtr(value string) *string {
	return &value
}

type testServer struct {
	repo *mockThemeRepository
	mux  *http.ServeMux
}

func setupThemeHandlers(t *testing.T, opts ...HandlerOption) *testServer {
	t.Helper()

	repo := newMockThemeRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.add(models.Theme{
		ID:        "sys-ocean",
		Name:      "Ocean",
		IsSystem:  true,
		IsDefault: true,
		Tokens:    models.ParseTokens(map[string]string{"--primary": "#0077be"}),
		CreatedAt: now,
		UpdatedAt: now,
	})
	repo.add(models.Theme{
		ID:        "alice-1",
		Name:      "Mine",
		OwnerID:   strPtr("alice"),
		Tokens:    models.ParseTokens(map[string]string{"--radius": "1rem"}),
		CreatedAt: now,
		UpdatedAt: now,
	})
	repo.add(models.Theme{
		ID:        "bob-1",
		Name:      "Bob's",
		OwnerID:   strPtr("bob"),
		CreatedAt: now,
		UpdatedAt: now,
	})

	var seq int
	store := themestore.NewStore(repo,
		themestore.WithClock(func() time.Time { return now.Add(time.Hour) }),
		themestore.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("new-%d", seq)
		}),
	)

	mux := http.NewServeMux()
	NewHandler(store, append([]HandlerOption{WithQueryTimeout(time.Second)}, opts...)...).RegisterRoutes(mux)
	return &testServer{repo: repo, mux: mux}
}

func (s *testServer) do(t *testing.T, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	if userID != "" {
		req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: userID}))
	}
	recorder := httptest.NewRecorder()
	s.mux.ServeHTTP(recorder, req)
	return recorder
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = strings.NewReader(string(encoded))
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(recorder.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestListThemes_Visibility(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes", nil), "alice")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[struct {
		Themes []models.Theme `json:"themes"`
	}](t, recorder)

	if len(resp.Themes) != 2 || resp.Themes[0].ID != "sys-ocean" || resp.Themes[1].ID != "alice-1" {
		t.Fatalf("unexpected list: %+v", resp.Themes)
	}

	anonymous := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes", nil), "")
	anon := decodeBody[struct {
		Themes []models.Theme `json:"themes"`
	}](t, anonymous)
	if len(anon.Themes) != 1 || !anon.Themes[0].IsSystem {
		t.Fatalf("anonymous list should only hold system themes: %+v", anon.Themes)
	}
}

func TestListThemes_HTMXFragment(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/themes?selected=alice-1", nil)
	req.Header.Set("HX-Request", "true")
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type: %s", ct)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `id="themes-list"`) || !strings.Contains(body, `is-selected" data-theme-id="alice-1"`) {
		t.Fatalf("unexpected fragment: %s", body)
	}
}

func TestGetTheme_NotFound(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/missing", nil), "alice")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[apiutil.ErrorResponse](t, recorder)
	if resp.Error != "Theme not found" {
		t.Fatalf("unexpected error: %+v", resp)
	}
}

func TestGetTheme_ForeignThemeIsReadable(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/bob-1", nil), "alice")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	theme := decodeBody[models.Theme](t, recorder)
	if theme.Name != "Bob's" {
		t.Fatalf("unexpected theme: %+v", theme)
	}
}

func TestGetTheme_HTMXEditorShowsForkNotice(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/themes/sys-ocean", nil)
	req.Header.Set("HX-Request", "true")
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "fork-notice") {
		t.Fatal("system theme editor should carry a fork notice")
	}
}

func TestNewThemeStartsFromDefault(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/new", nil), "alice")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `name="tokens[--primary]" value="#0077be"`) {
		t.Fatalf("new theme should start from the default system theme tokens:\n%s", body)
	}
	if !strings.Contains(body, `name="theme_id" value=""`) {
		t.Fatal("a draft must not carry a theme id")
	}
}

func TestResolvedTheme(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/sys-ocean/resolved", nil), "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[resolvedResponse](t, recorder)
	if len(resp.Resolved) != len(models.AllKeys()) {
		t.Fatalf("resolved %d tokens, want %d", len(resp.Resolved), len(models.AllKeys()))
	}
	if resp.Resolved[models.TokenPrimary] != "#0077be" {
		t.Fatalf("primary = %q", resp.Resolved[models.TokenPrimary])
	}
	if resp.StyleVars["--radius"] != models.DefaultsMap()[models.TokenRadius] {
		t.Fatalf("radius should fall back to default, got %q", resp.StyleVars["--radius"])
	}
}

func TestCreateTheme_RequiresUser(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/themes", map[string]any{"name": "Nope"})
	recorder := srv.do(t, req, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestCreateTheme_ValidInput(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/themes", map[string]any{
		"name":   "  Sunrise ",
		"tokens": map[string]string{"--primary": "oklch(0.7 0.15 40)", "--accent": ""},
	})
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	result := decodeBody[themestore.SaveResult](t, recorder)
	if result.Outcome != themestore.SaveCreated || result.Theme.Name != "Sunrise" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Theme.OwnerID == nil || *result.Theme.OwnerID != "alice" || result.Theme.IsSystem {
		t.Fatalf("new theme must be owned by alice: %+v", result.Theme)
	}
	if _, ok := result.Theme.Tokens.Known[models.TokenAccent]; ok {
		t.Fatal("blank token should not be stored")
	}
}

func TestCreateTheme_InvalidName(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/themes", map[string]any{"name": strings.Repeat("x", 101)})
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[apiutil.ErrorResponse](t, recorder)
	if resp.Field != "name" {
		t.Fatalf("unexpected error: %+v", resp)
	}
}

func TestCreateTheme_UnknownJSONField(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/themes", map[string]any{"name": "x", "isSystem": true})
	recorder := srv.do(t, req, "alice")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestSaveTheme_ForksSystemTheme(t *testing.T) {
	srv := setupThemeHandlers(t)
	before, _ := srv.repo.get("sys-ocean")

	req := jsonRequest(t, http.MethodPut, "/api/v1/themes/sys-ocean", map[string]any{
		"name":   "My Ocean",
		"tokens": map[string]string{"--primary": "#ff0000"},
	})
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	result := decodeBody[themestore.SaveResult](t, recorder)
	if result.Outcome != themestore.SaveForked || result.SourceID != "sys-ocean" || result.Theme.ID == "sys-ocean" {
		t.Fatalf("unexpected result: %+v", result)
	}

	after, _ := srv.repo.get("sys-ocean")
	if after.Name != before.Name || after.Tokens.Known[models.TokenPrimary] != "#0077be" || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("system theme changed: %+v", after)
	}
}

func TestSaveTheme_UpdatesOwnTheme(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPut, "/api/v1/themes/alice-1", map[string]any{
		"name":   "Renamed",
		"tokens": map[string]string{"--primary": "#00ff00"},
	})
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	stored, _ := srv.repo.get("alice-1")
	if stored.Name != "Renamed" || stored.Tokens.Len() != 1 {
		t.Fatalf("tokens should be replaced wholesale: %+v", stored)
	}
}

func TestSaveTheme_HTMXForm(t *testing.T) {
	srv := setupThemeHandlers(t)

	form := url.Values{}
	form.Set("name", "Bob's, mine now")
	form.Set("theme_id", "bob-1")
	form.Set("tokens[--primary]", "#123456")
	form.Set("tokens[--brand]", "teal")
	req := httptest.NewRequest(http.MethodPut, "/api/v1/themes/bob-1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Header().Get("HX-Trigger") != "refreshThemesList" {
		t.Fatalf("missing trigger header: %v", recorder.Header())
	}
	if recorder.Header().Get("HX-Push-Url") != "/themes?theme=new-1" {
		t.Fatalf("push url = %q", recorder.Header().Get("HX-Push-Url"))
	}
	if !strings.Contains(recorder.Body.String(), "Saved as your own copy.") {
		t.Fatalf("unexpected feedback: %s", recorder.Body.String())
	}

	fork, ok := srv.repo.get("new-1")
	if !ok || fork.Tokens.Known[models.TokenPrimary] != "#123456" || fork.Tokens.Unknown["--brand"] != "teal" {
		t.Fatalf("fork not stored as expected: %+v", fork)
	}
	if original, _ := srv.repo.get("bob-1"); original.Name != "Bob's" {
		t.Fatal("foreign theme was modified")
	}
}

func TestPatchTheme(t *testing.T) {
	srv := setupThemeHandlers(t)

	tests := []struct {
		name       string
		themeID    string
		userID     string
		payload    map[string]any
		wantStatus int
	}{
		{name: "own theme", themeID: "alice-1", userID: "alice", payload: map[string]any{"description": "calm"}, wantStatus: http.StatusOK},
		{name: "foreign theme", themeID: "bob-1", userID: "alice", payload: map[string]any{"name": "x"}, wantStatus: http.StatusNotFound},
		{name: "system theme", themeID: "sys-ocean", userID: "alice", payload: map[string]any{"name": "x"}, wantStatus: http.StatusNotFound},
		{name: "empty patch", themeID: "alice-1", userID: "alice", payload: map[string]any{}, wantStatus: http.StatusBadRequest},
		{name: "blank name", themeID: "alice-1", userID: "alice", payload: map[string]any{"name": "  "}, wantStatus: http.StatusBadRequest},
		{name: "anonymous", themeID: "alice-1", userID: "", payload: map[string]any{"name": "x"}, wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPatch, "/api/v1/themes/"+tc.themeID, tc.payload)
			recorder := srv.do(t, req, tc.userID)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status: %d, want %d (%s)", recorder.Code, tc.wantStatus, recorder.Body.String())
			}
		})
	}

	stored, _ := srv.repo.get("alice-1")
	if stored.Description == nil || *stored.Description != "calm" || stored.Name != "Mine" {
		t.Fatalf("patch should only touch the description: %+v", stored)
	}
}

func TestDeleteTheme(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/themes/sys-ocean", nil), "alice")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("deleting a system theme: status %d", recorder.Code)
	}

	recorder = srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/themes/bob-1", nil), "alice")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("deleting a foreign theme: status %d", recorder.Code)
	}

	recorder = srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/themes/alice-1", nil), "alice")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status: %d", recorder.Code)
	}
	if _, ok := srv.repo.get("alice-1"); ok {
		t.Fatal("theme still stored")
	}
}

func TestCloneTheme(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/themes/sys-ocean/clone", nil)
	recorder := srv.do(t, req, "alice")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	clone := decodeBody[models.Theme](t, recorder)
	if clone.Name != "Copy of Ocean" || clone.IsSystem || clone.OwnerID == nil || *clone.OwnerID != "alice" {
		t.Fatalf("unexpected clone: %+v", clone)
	}
	if clone.Tokens.Len() != len(models.AllKeys()) {
		t.Fatalf("clone should carry resolved tokens, got %d", clone.Tokens.Len())
	}

	named := jsonRequest(t, http.MethodPost, "/api/v1/themes/sys-ocean/clone", map[string]any{"name": "Sea"})
	recorder = srv.do(t, named, "alice")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d", recorder.Code)
	}
	if got := decodeBody[models.Theme](t, recorder); got.Name != "Sea" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestPreview_JSON(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/themes/preview", map[string]any{
		"tokens": map[string]string{
			"--primary":            "#ffffff",
			"--primary-foreground": "#fefefe",
			"--radius":             "1rem; } body { display:none",
		},
	})
	recorder := srv.do(t, req, "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[previewResponse](t, recorder)
	if resp.Resolved[models.TokenPrimary] != "#ffffff" || resp.Resolved[models.TokenBackground] == "" {
		t.Fatalf("unexpected resolved map: %v", resp.Resolved)
	}
	if strings.Contains(resp.StyleDeclarations, "display:none") {
		t.Fatalf("unsafe value leaked into declarations: %s", resp.StyleDeclarations)
	}
	var flagged bool
	for _, warning := range resp.Warnings {
		if warning.Foreground == models.TokenPrimaryForeground && warning.Background == models.TokenPrimary {
			flagged = true
		}
	}
	if !flagged {
		t.Fatalf("expected a contrast warning, got %+v", resp.Warnings)
	}
}

func TestPreview_HTMXKeepsTypedName(t *testing.T) {
	srv := setupThemeHandlers(t)

	form := url.Values{}
	form.Set("theme_id", "alice-1")
	form.Set("name", "Typed but unsaved")
	form.Set("tokens[--primary]", "#336699")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/themes/preview", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	recorder := srv.do(t, req, "alice")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `value="Typed but unsaved"`) || !strings.Contains(body, `value="#336699"`) {
		t.Fatalf("preview lost working state: %s", body)
	}
	if stored, _ := srv.repo.get("alice-1"); stored.Name != "Mine" {
		t.Fatal("preview must not persist")
	}
}

func TestRenderPage(t *testing.T) {
	srv := setupThemeHandlers(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/themes/sys-ocean/render", map[string]any{
		"root":    map[string]any{"type": "ProfileHeader", "props": map[string]any{"name": "Ada"}},
		"content": []any{map[string]any{"type": "LinkButton", "props": map[string]any{"title": "Home", "url": "https://example.com"}}},
	})
	recorder := srv.do(t, req, "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	body := recorder.Body.String()
	for _, want := range []string{`class="theme-scope"`, "--primary:#0077be", "<h1>Ada</h1>", `href="https://example.com"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q: %s", want, body)
		}
	}
}

func TestColorHex(t *testing.T) {
	srv := setupThemeHandlers(t)

	tests := []struct {
		value string
		hex   string
		valid bool
		name  string
	}{
		{value: "#abc", hex: "#aabbcc", valid: true, name: "Silver"},
		{value: "rgb(255, 0, 0)", hex: "#ff0000", valid: true, name: "Red"},
		{value: "not a color", hex: "#000000", valid: false, name: ""},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			target := "/api/v1/colors/hex?value=" + url.QueryEscape(tc.value)
			recorder := srv.do(t, httptest.NewRequest(http.MethodGet, target, nil), "")
			resp := decodeBody[struct {
				Hex   string `json:"hex"`
				Valid bool   `json:"valid"`
				Name  string `json:"name"`
			}](t, recorder)
			if resp.Hex != tc.hex || resp.Valid != tc.valid || resp.Name != tc.name {
				t.Fatalf("got %+v, want %s/%t/%s", resp, tc.hex, tc.valid, tc.name)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/schema", nil), "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[schemaResponse](t, recorder)
	if len(resp.Groups) != len(models.TokenGroups()) || len(resp.Defaults) != len(models.AllKeys()) {
		t.Fatalf("unexpected schema: %d groups, %d defaults", len(resp.Groups), len(resp.Defaults))
	}
}

func TestStorageFailureIsRetryable500(t *testing.T) {
	srv := setupThemeHandlers(t)
	srv.repo.mu.Lock()
	srv.repo.failWith = errors.New("database is locked")
	srv.repo.mu.Unlock()

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/alice-1", nil), "alice")
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", recorder.Code)
	}
	resp := decodeBody[apiutil.ErrorResponse](t, recorder)
	if !resp.Retryable || strings.Contains(resp.Error, "locked") {
		t.Fatalf("storage errors must be generic and retryable: %+v", resp)
	}
}

func TestThemesPage(t *testing.T) {
	srv := setupThemeHandlers(t)

	recorder := srv.do(t, httptest.NewRequest(http.MethodGet, "/themes?theme=sys-ocean", nil), "alice")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	body := recorder.Body.String()
	for _, want := range []string{"<!doctype html>", "<style>:root{", `id="themes-list"`, `id="theme-editor"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestWriteLimiterThrottlesWrites(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Window: time.Minute, MaxPerUser: 1})
	t.Cleanup(limiter.Close)
	srv := setupThemeHandlers(t, WithWriteLimiter(limiter))

	recorder := srv.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/themes/alice-1/clone", nil), "alice")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("first write: status %d", recorder.Code)
	}

	recorder = srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/themes/alice-1", nil), "alice")
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("second write: status %d", recorder.Code)
	}
	if recorder.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
	if resp := decodeBody[apiutil.ErrorResponse](t, recorder); !resp.Retryable {
		t.Fatalf("throttled writes should be retryable: %+v", resp)
	}
	if _, ok := srv.repo.get("alice-1"); !ok {
		t.Fatal("throttled delete must not reach the store")
	}

	recorder = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes/alice-1", nil), "alice")
	if recorder.Code != http.StatusOK {
		t.Fatalf("reads are not throttled: status %d", recorder.Code)
	}
}
