// internal/api/themes/handlers.go
package themes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/biolink/internal/api/apiutil"
	"github.com/codr1/biolink/internal/api/authz"
	"github.com/codr1/biolink/internal/api/htmx"
	"github.com/codr1/biolink/internal/color"
	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/ratelimit"
	"github.com/codr1/biolink/internal/render"
	"github.com/codr1/biolink/internal/templates/components/blocks"
	themetempl "github.com/codr1/biolink/internal/templates/components/themes"
	"github.com/codr1/biolink/internal/templates/layouts"
	themestore "github.com/codr1/biolink/internal/themes"
)

const (
	defaultQueryTimeout = 5 * time.Second
	themeIDParam        = "id"
	refreshListEvent    = "refreshThemesList"
	formTokenPrefix     = "tokens["
)

// Handler serves the theme API on top of a Store.
type Handler struct {
	store        *themestore.Store
	blocks       *render.Registry
	limiter      *ratelimit.Limiter
	queryTimeout time.Duration
}

type HandlerOption func(*Handler)

func WithQueryTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.queryTimeout = timeout
		}
	}
}

// WithBlocks replaces the built-in block registry used by page previews.
func WithBlocks(registry *render.Registry) HandlerOption {
	return func(h *Handler) {
		h.blocks = registry
	}
}

// WithWriteLimiter throttles the routes that change stored themes.
func WithWriteLimiter(limiter *ratelimit.Limiter) HandlerOption {
	return func(h *Handler) {
		h.limiter = limiter
	}
}

func NewHandler(store *themestore.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:        store,
		blocks:       blocks.NewRegistry(),
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /themes", h.HandleThemesPage)
	mux.HandleFunc("GET /api/v1/themes", h.HandleThemesList)
	mux.HandleFunc("GET /api/v1/themes/schema", h.HandleSchema)
	mux.HandleFunc("GET /api/v1/themes/new", h.HandleThemeNew)
	mux.HandleFunc("POST /api/v1/themes", h.limitWrites(h.HandleThemeCreate))
	mux.HandleFunc("POST /api/v1/themes/preview", h.HandleThemePreview)
	mux.HandleFunc("GET /api/v1/themes/{id}", h.HandleThemeDetail)
	mux.HandleFunc("GET /api/v1/themes/{id}/resolved", h.HandleThemeResolved)
	mux.HandleFunc("PUT /api/v1/themes/{id}", h.limitWrites(h.HandleThemeSave))
	mux.HandleFunc("PATCH /api/v1/themes/{id}", h.limitWrites(h.HandleThemeUpdate))
	mux.HandleFunc("DELETE /api/v1/themes/{id}", h.limitWrites(h.HandleThemeDelete))
	mux.HandleFunc("POST /api/v1/themes/{id}/clone", h.limitWrites(h.HandleThemeClone))
	mux.HandleFunc("POST /api/v1/themes/{id}/render", h.HandlePageRender)
	mux.HandleFunc("GET /api/v1/colors/hex", h.HandleColorHex)
}

func (h *Handler) limitWrites(next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authz.UserIDFromContext(r.Context())
		ip := h.limiter.ClientIP(r)
		result := h.limiter.Allow(userID, ip)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), userID, ip, result)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			apiutil.WriteError(w, r, apiutil.HandlerError{
				Status:    http.StatusTooManyRequests,
				Message:   "Too many theme changes, please retry shortly",
				Retryable: true,
			}, "Theme write throttled")
			return
		}
		next(w, r)
	}
}

type themeCloneRequest struct {
	Name string `json:"name"`
}

type previewRequest struct {
	ThemeID string        `json:"themeId,omitempty"`
	Tokens  models.Tokens `json:"tokens"`
}

type previewResponse struct {
	Resolved          map[models.TokenKey]string `json:"resolved"`
	StyleVars         map[string]string          `json:"styleVars"`
	StyleDeclarations string                     `json:"styleDeclarations"`
	Warnings          []models.ContrastWarning   `json:"warnings"`
}

type resolvedResponse struct {
	ThemeID   string                     `json:"themeId"`
	Resolved  map[models.TokenKey]string `json:"resolved"`
	StyleVars map[string]string          `json:"styleVars"`
}

type schemaResponse struct {
	Groups   []models.TokenGroupDefinition `json:"groups"`
	Defaults map[models.TokenKey]string    `json:"defaults"`
}

// /themes
func (h *Handler) HandleThemesPage(w http.ResponseWriter, r *http.Request) {
	userID := authz.UserIDFromContext(r.Context())
	selectedID := strings.TrimSpace(r.URL.Query().Get("theme"))

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	rows, err := h.store.List(ctx, userID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to list themes")
		return
	}

	var theme models.Theme
	if selectedID != "" {
		theme, err = h.store.Get(ctx, selectedID)
	} else {
		theme, err = h.draft(ctx)
	}
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load theme")
		return
	}

	editor := themetempl.NewThemeEditorData(theme, userID)
	page := layouts.Page("Themes",
		layouts.ThemeStyle(editor.StyleVars),
		themetempl.ThemeAdmin(themetempl.NewThemes(rows, userID, selectedID), editor),
	)
	apiutil.RenderHTMLComponent(r.Context(), w, page, nil, "Failed to render themes page", "Failed to render page")
}

// /api/v1/themes
func (h *Handler) HandleThemesList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	userID := authz.UserIDFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	rows, err := h.store.List(ctx, userID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to list themes")
		return
	}

	if htmx.IsRequest(r) {
		selectedID := strings.TrimSpace(r.URL.Query().Get("selected"))
		component := themetempl.ThemeList(themetempl.NewThemes(rows, userID, selectedID))
		apiutil.RenderHTMLComponent(r.Context(), w, component, nil, "Failed to render themes list", "Failed to render list")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"themes": rows}); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to write themes list response")
	}
}

// /api/v1/themes/schema
func (h *Handler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	resp := schemaResponse{
		Groups:   models.TokenGroups(),
		Defaults: models.DefaultsMap(),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write schema response")
	}
}

// /api/v1/themes/new
func (h *Handler) HandleThemeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	theme, err := h.draft(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load default theme")
		return
	}
	editor := themetempl.NewThemeEditorData(theme, authz.UserIDFromContext(r.Context()))
	component := themetempl.ThemeEditor(editor)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil, "Failed to render new theme form", "Failed to render form")
}

// draft is the starting point for a new theme: the default system theme's
// tokens under an empty name.
func (h *Handler) draft(ctx context.Context) (models.Theme, error) {
	base, err := h.store.Default(ctx)
	if err != nil {
		return models.Theme{}, err
	}
	return models.DraftFrom(base), nil
}

// /api/v1/themes/{id}
func (h *Handler) HandleThemeDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	themeID := themeIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	theme, err := h.store.Get(ctx, themeID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to fetch theme")
		return
	}

	if !htmx.IsRequest(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, theme); err != nil {
			logger.Error().Err(err).Str("theme_id", themeID).Msg("Failed to write theme response")
		}
		return
	}

	editor := themetempl.NewThemeEditorData(theme, authz.UserIDFromContext(r.Context()))
	apiutil.RenderHTMLComponent(r.Context(), w, themetempl.ThemeEditor(editor), nil, "Failed to render theme form", "Failed to render form")
}

// /api/v1/themes/{id}/resolved
func (h *Handler) HandleThemeResolved(w http.ResponseWriter, r *http.Request) {
	themeID := themeIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	resolved, err := h.store.Resolved(ctx, themeID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to resolve theme")
		return
	}

	resp := resolvedResponse{
		ThemeID:   themeID,
		Resolved:  resolved,
		StyleVars: render.ToStyleVars(resolved),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("theme_id", themeID).Msg("Failed to write resolved theme response")
	}
}

// POST /api/v1/themes
func (h *Handler) HandleThemeCreate(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// PUT /api/v1/themes/{id}
func (h *Handler) HandleThemeSave(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, themeIDFromRequest(r))
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, themeID string) {
	logger := log.Ctx(r.Context())

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err, "Theme save without user")
		return
	}

	input, err := decodeThemeInput(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to decode theme")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	result, err := h.store.Save(ctx, themeID, user.ID, input)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to save theme")
		return
	}

	status := http.StatusOK
	if result.Outcome != themestore.SaveUpdated {
		status = http.StatusCreated
	}

	if htmx.IsRequest(r) {
		htmx.Trigger(w, refreshListEvent)
		if result.Outcome != themestore.SaveUpdated {
			htmx.PushURL(w, "/themes?theme="+url.QueryEscape(result.Theme.ID))
		}
		apiutil.WriteHTMLFeedback(w, status, saveFeedback(result.Outcome))
		return
	}

	if err := apiutil.WriteJSON(w, status, result); err != nil {
		logger.Error().Err(err).Str("theme_id", result.Theme.ID).Str("user_id", user.ID).Msg("Failed to write theme save response")
	}
}

func saveFeedback(outcome themestore.SaveOutcome) string {
	switch outcome {
	case themestore.SaveCreated:
		return "Theme created."
	case themestore.SaveForked:
		return "Saved as your own copy."
	default:
		return "Theme updated."
	}
}

// PATCH /api/v1/themes/{id}
func (h *Handler) HandleThemeUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	themeID := themeIDFromRequest(r)

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err, "Theme update without user")
		return
	}

	var patch models.ThemePatch
	if err := apiutil.DecodeJSON(r, &patch); err != nil {
		apiutil.WriteError(w, r, badRequest(err), "Failed to decode theme patch")
		return
	}
	if patch.IsEmpty() {
		apiutil.WriteError(w, r, badRequest(fmt.Errorf("patch has no fields")), "Empty theme patch")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	updated, err := h.store.Update(ctx, themeID, user.ID, patch)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to update theme")
		return
	}

	if htmx.IsRequest(r) {
		htmx.Trigger(w, refreshListEvent)
		apiutil.WriteHTMLFeedback(w, http.StatusOK, "Theme updated.")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Str("theme_id", themeID).Msg("Failed to write theme update response")
	}
}

// DELETE /api/v1/themes/{id}
func (h *Handler) HandleThemeDelete(w http.ResponseWriter, r *http.Request) {
	themeID := themeIDFromRequest(r)

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err, "Theme delete without user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	if _, err := h.store.Delete(ctx, themeID, user.ID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to delete theme")
		return
	}

	if htmx.IsRequest(r) {
		htmx.Trigger(w, refreshListEvent)
		apiutil.WriteHTMLFeedback(w, http.StatusOK, "Theme deleted.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/themes/{id}/clone
func (h *Handler) HandleThemeClone(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	themeID := themeIDFromRequest(r)

	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err, "Theme clone without user")
		return
	}

	req, err := decodeThemeCloneRequest(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to decode clone request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	created, err := h.store.Clone(ctx, themeID, user.ID, req.Name)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to clone theme")
		return
	}

	if htmx.IsRequest(r) {
		htmx.Trigger(w, refreshListEvent)
		htmx.PushURL(w, "/themes?theme="+url.QueryEscape(created.ID))
		apiutil.WriteHTMLFeedback(w, http.StatusCreated, "Theme cloned.")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Str("theme_id", themeID).Msg("Failed to write theme clone response")
	}
}

// POST /api/v1/themes/preview
//
// Resolves an unsaved working map. Nothing is stored. With HX-Request the
// editor is re-rendered around the working tokens.
func (h *Handler) HandleThemePreview(w http.ResponseWriter, r *http.Request) {
	var (
		req  previewRequest
		form *models.ThemeInput
	)
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, r, badRequest(err), "Failed to decode preview request")
			return
		}
	} else {
		input, err := decodeThemeForm(r)
		if err != nil {
			apiutil.WriteError(w, r, err, "Failed to decode preview form")
			return
		}
		form = &input
		req = previewRequest{ThemeID: strings.TrimSpace(r.PostFormValue("theme_id")), Tokens: input.Tokens}
	}
	if err := req.Tokens.Validate(); err != nil {
		apiutil.WriteError(w, r, err, "Invalid preview tokens")
		return
	}

	preview := render.NewPreview(req.Tokens)

	if htmx.IsRequest(r) {
		theme := models.DefaultTheme()
		if req.ThemeID != "" {
			ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
			defer cancel()
			loaded, err := h.store.Get(ctx, req.ThemeID)
			if err != nil {
				apiutil.WriteError(w, r, err, "Failed to load theme for preview")
				return
			}
			theme = loaded
		}
		if form != nil {
			// Keep what the user typed so far.
			theme.Name = form.Name
			theme.Description = form.Description
		}
		editor := themetempl.NewPreviewEditorData(theme, preview, authz.UserIDFromContext(r.Context()))
		apiutil.RenderHTMLComponent(r.Context(), w, themetempl.ThemeEditor(editor), nil, "Failed to render preview", "Failed to render preview")
		return
	}

	resolved := preview.Resolved()
	vars := render.ToStyleVars(resolved)
	resp := previewResponse{
		Resolved:          resolved,
		StyleVars:         vars,
		StyleDeclarations: render.StyleDeclarations(vars),
		Warnings:          models.ContrastWarnings(resolved),
	}
	if resp.Warnings == nil {
		resp.Warnings = []models.ContrastWarning{}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write preview response")
	}
}

// POST /api/v1/themes/{id}/render
//
// Renders page content with the theme applied, scoped to a wrapper element.
func (h *Handler) HandlePageRender(w http.ResponseWriter, r *http.Request) {
	themeID := themeIDFromRequest(r)

	var page render.Page
	if err := apiutil.DecodeJSON(r, &page); err != nil {
		apiutil.WriteError(w, r, badRequest(err), "Failed to decode page")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	theme, err := h.store.Get(ctx, themeID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load theme for page")
		return
	}

	vars := render.VarsFor(theme)
	component := layouts.ThemeScope(vars, h.blocks.RenderPage(page, vars))
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil, "Failed to render page", "Failed to render page")
}

// GET /api/v1/colors/hex?value=
func (h *Handler) HandleColorHex(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	_, ok := color.Parse(value)
	resp := map[string]any{
		"value": value,
		"hex":   color.ToHex(value),
		"valid": ok,
		"name":  color.NearestName(value),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write color response")
	}
}

func themeIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.PathValue(themeIDParam))
}

func badRequest(err error) error {
	return apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
}

func decodeThemeInput(r *http.Request) (models.ThemeInput, error) {
	if apiutil.IsJSONRequest(r) {
		var input models.ThemeInput
		if err := apiutil.DecodeJSON(r, &input); err != nil {
			return models.ThemeInput{}, badRequest(err)
		}
		return input, nil
	}
	return decodeThemeForm(r)
}

// decodeThemeForm reads the editor form: name, description and one
// "tokens[--key]" field per token.
func decodeThemeForm(r *http.Request) (models.ThemeInput, error) {
	if err := r.ParseForm(); err != nil {
		return models.ThemeInput{}, badRequest(err)
	}

	input := models.ThemeInput{Name: apiutil.FirstNonEmpty(r.PostFormValue("name"))}
	if _, ok := r.PostForm["description"]; ok {
		description := r.PostFormValue("description")
		input.Description = &description
	}

	raw := make(map[string]string)
	for field, values := range r.PostForm {
		if !strings.HasPrefix(field, formTokenPrefix) || !strings.HasSuffix(field, "]") || len(values) == 0 {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(field, formTokenPrefix), "]")
		raw[key] = values[len(values)-1]
	}
	input.Tokens = models.ParseTokens(raw)
	return input, nil
}

func decodeThemeCloneRequest(r *http.Request) (themeCloneRequest, error) {
	if apiutil.IsJSONRequest(r) {
		var req themeCloneRequest
		if r.ContentLength == 0 {
			return req, nil
		}
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			return themeCloneRequest{}, badRequest(err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return themeCloneRequest{}, badRequest(err)
	}
	return themeCloneRequest{Name: apiutil.FirstNonEmpty(r.FormValue("name"))}, nil
}
