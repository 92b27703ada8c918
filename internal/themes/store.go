// Package themes owns theme lifecycle rules: visibility, ownership and the
// fork-on-write save that keeps system and foreign themes untouched.
package themes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/biolink/internal/models"
)

// ErrNoActingUser is returned by writes made without a user id.
var ErrNoActingUser = errors.New("acting user is required")

// SaveOutcome tells the caller what a Save did, so it can redirect the
// editor to a newly created fork.
type SaveOutcome string

const (
	SaveCreated SaveOutcome = "created"
	SaveForked  SaveOutcome = "forked"
	SaveUpdated SaveOutcome = "updated"
)

type SaveResult struct {
	Theme   models.Theme `json:"theme"`
	Outcome SaveOutcome  `json:"outcome"`
	// SourceID is the theme a fork was made from.
	SourceID string `json:"sourceId,omitempty"`
}

type Store struct {
	repo    Repository
	now     func() time.Time
	newID   func() string
	metrics Metrics
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the system themes followed by the themes owned by
// actingUserID, each part ordered by name.
func (s *Store) List(ctx context.Context, actingUserID string) ([]models.Theme, error) {
	rows, err := s.repo.FindByOwnerOrSystem(ctx, actingUserID)
	if err != nil {
		return nil, s.fail("list", err)
	}

	visible := make([]models.Theme, 0, len(rows))
	for _, theme := range rows {
		if theme.IsSystem || theme.IsOwnedBy(actingUserID) {
			visible = append(visible, theme)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if a.IsSystem != b.IsSystem {
			return a.IsSystem
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
	return visible, nil
}

// Get reads any theme by id. Reads are not restricted by ownership.
func (s *Store) Get(ctx context.Context, themeID string) (models.Theme, error) {
	if strings.TrimSpace(themeID) == "" {
		return models.Theme{}, ErrNotFound
	}
	theme, err := s.repo.FindByID(ctx, themeID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return models.Theme{}, ErrNotFound
		}
		return models.Theme{}, s.fail("get", err)
	}
	return theme, nil
}

// Default returns the system theme new themes start from. When no system
// theme is marked default it returns the empty DefaultTheme.
func (s *Store) Default(ctx context.Context) (models.Theme, error) {
	if finder, ok := s.repo.(DefaultFinder); ok {
		theme, err := finder.GetDefaultSystemTheme(ctx)
		if err != nil {
			if errors.Is(err, ErrNoRows) {
				return models.DefaultTheme(), nil
			}
			return models.Theme{}, s.fail("default", err)
		}
		return theme, nil
	}

	rows, err := s.repo.FindByOwnerOrSystem(ctx, "")
	if err != nil {
		return models.Theme{}, s.fail("default", err)
	}
	for _, theme := range rows {
		if theme.IsSystem && theme.IsDefault {
			return theme, nil
		}
	}
	return models.DefaultTheme(), nil
}

// Resolved returns the theme's tokens overlaid on the schema defaults.
func (s *Store) Resolved(ctx context.Context, themeID string) (map[models.TokenKey]string, error) {
	theme, err := s.Get(ctx, themeID)
	if err != nil {
		return nil, err
	}
	return models.Resolve(theme), nil
}

// Create stores a new theme owned by actingUserID. The result is never a
// system theme.
func (s *Store) Create(ctx context.Context, actingUserID string, input models.ThemeInput) (models.Theme, error) {
	if actingUserID == "" {
		return models.Theme{}, ErrNoActingUser
	}
	if err := input.Validate(); err != nil {
		return models.Theme{}, err
	}
	return s.insert(ctx, actingUserID, input)
}

func (s *Store) insert(ctx context.Context, actingUserID string, input models.ThemeInput) (models.Theme, error) {
	now := s.now()
	owner := actingUserID
	theme := models.Theme{
		ID:          s.newID(),
		Name:        strings.TrimSpace(input.Name),
		Description: normalizeDescription(input.Description),
		OwnerID:     &owner,
		IsSystem:    false,
		Tokens:      input.Tokens.Compact(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, theme); err != nil {
		return models.Theme{}, s.fail("insert", err)
	}
	return theme, nil
}

// Update applies patch to a theme actingUserID owns. A present Tokens field
// replaces the whole token map.
func (s *Store) Update(ctx context.Context, themeID, actingUserID string, patch models.ThemePatch) (models.Theme, error) {
	if actingUserID == "" {
		return models.Theme{}, ErrNoActingUser
	}
	if err := patch.Validate(); err != nil {
		return models.Theme{}, err
	}
	existing, err := s.editable(ctx, themeID, actingUserID)
	if err != nil {
		return models.Theme{}, err
	}
	return s.apply(ctx, existing, actingUserID, patch)
}

func (s *Store) apply(ctx context.Context, existing models.Theme, actingUserID string, patch models.ThemePatch) (models.Theme, error) {
	updated := existing
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		updated.Description = normalizeDescription(patch.Description)
	}
	if patch.Tokens != nil {
		updated.Tokens = patch.Tokens.Compact()
	} else {
		updated.Tokens = existing.Tokens.Clone()
	}
	updated.UpdatedAt = s.now()

	if err := s.repo.UpdateByID(ctx, updated, actingUserID); err != nil {
		if errors.Is(err, ErrNoRows) {
			return models.Theme{}, ErrNotFoundOrForbidden
		}
		return models.Theme{}, s.fail("update", err)
	}
	return updated, nil
}

// Delete removes a theme actingUserID owns.
func (s *Store) Delete(ctx context.Context, themeID, actingUserID string) (bool, error) {
	if actingUserID == "" {
		return false, ErrNoActingUser
	}
	if _, err := s.editable(ctx, themeID, actingUserID); err != nil {
		return false, err
	}
	deleted, err := s.repo.DeleteByID(ctx, themeID, actingUserID)
	if err != nil {
		return false, s.fail("delete", err)
	}
	if !deleted {
		return false, ErrNotFoundOrForbidden
	}
	return true, nil
}

// Save is the editor's single write path. With no themeID it creates a
// theme. Saving over a system theme or another user's theme creates a new
// theme owned by actingUserID and leaves the original as it was. Saving over
// an owned theme updates it in place.
func (s *Store) Save(ctx context.Context, themeID, actingUserID string, input models.ThemeInput) (SaveResult, error) {
	if actingUserID == "" {
		return SaveResult{}, ErrNoActingUser
	}
	if err := input.Validate(); err != nil {
		return SaveResult{}, err
	}

	if strings.TrimSpace(themeID) == "" {
		theme, err := s.insert(ctx, actingUserID, input)
		if err != nil {
			return SaveResult{}, err
		}
		return s.saved(SaveResult{Theme: theme, Outcome: SaveCreated}), nil
	}

	existing, err := s.repo.FindByID(ctx, themeID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return SaveResult{}, ErrNotFoundOrForbidden
		}
		return SaveResult{}, s.fail("get", err)
	}

	if !models.IsEditable(existing, actingUserID) {
		theme, err := s.insert(ctx, actingUserID, input)
		if err != nil {
			return SaveResult{}, err
		}
		log.Ctx(ctx).Info().
			Str("source_theme_id", existing.ID).
			Str("theme_id", theme.ID).
			Bool("source_is_system", existing.IsSystem).
			Msg("Forked theme on save")
		return s.saved(SaveResult{Theme: theme, Outcome: SaveForked, SourceID: existing.ID}), nil
	}

	tokens := input.Tokens
	theme, err := s.apply(ctx, existing, actingUserID, models.ThemePatch{
		Name:        &input.Name,
		Description: descriptionPatch(input.Description),
		Tokens:      &tokens,
	})
	if err != nil {
		return SaveResult{}, err
	}
	return s.saved(SaveResult{Theme: theme, Outcome: SaveUpdated}), nil
}

// Clone copies any readable theme into a new theme owned by actingUserID.
// The copy carries the source's resolved tokens, so later changes to the
// defaults do not alter it. An empty name becomes "Copy of <source>".
func (s *Store) Clone(ctx context.Context, themeID, actingUserID, name string) (models.Theme, error) {
	if actingUserID == "" {
		return models.Theme{}, ErrNoActingUser
	}
	source, err := s.Get(ctx, themeID)
	if err != nil {
		return models.Theme{}, err
	}

	if strings.TrimSpace(name) == "" {
		name = cloneName(source.Name)
	}

	tokens := models.Tokens{
		Known:   models.Resolve(source),
		Unknown: source.Tokens.Clone().Unknown,
	}
	input := models.ThemeInput{
		Name:        name,
		Description: source.Description,
		Tokens:      tokens,
	}
	if err := input.Validate(); err != nil {
		return models.Theme{}, err
	}
	return s.insert(ctx, actingUserID, input)
}

// editable loads themeID and checks actingUserID may write it.
func (s *Store) editable(ctx context.Context, themeID, actingUserID string) (models.Theme, error) {
	if strings.TrimSpace(themeID) == "" {
		return models.Theme{}, ErrNotFoundOrForbidden
	}
	existing, err := s.repo.FindByID(ctx, themeID)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return models.Theme{}, ErrNotFoundOrForbidden
		}
		return models.Theme{}, s.fail("get", err)
	}
	if !models.IsEditable(existing, actingUserID) {
		return models.Theme{}, ErrNotFoundOrForbidden
	}
	return existing, nil
}

func (s *Store) saved(result SaveResult) SaveResult {
	if s.metrics != nil {
		s.metrics.SaveOutcome(result.Outcome)
	}
	return result
}

func (s *Store) fail(op string, err error) error {
	if s.metrics != nil {
		s.metrics.StoreError(op)
	}
	return storageError(op, err)
}

func cloneName(source string) string {
	name := fmt.Sprintf("Copy of %s", source)
	if utf8.RuneCountInString(name) <= models.MaxThemeNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:models.MaxThemeNameLength]))
}

func normalizeDescription(description *string) *string {
	if description == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// descriptionPatch makes a full save clear a description the input omits.
func descriptionPatch(description *string) *string {
	if description == nil {
		empty := ""
		return &empty
	}
	return description
}
