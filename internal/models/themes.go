// internal/models/themes.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codr1/biolink/internal/color"
)

// MaxThemeNameLength is the longest accepted theme name, in runes.
const MaxThemeNameLength = 100

const maxThemeDescriptionLength = 500
const maxTokenValueLength = 2048
const maxTokenCount = 256

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a rejected field on a theme write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Tokens is a theme's token map split into catalog keys and everything else.
// Unknown keys are never applied, but they survive a load/save round trip.
type Tokens struct {
	Known   map[TokenKey]string
	Unknown map[string]string
}

// ParseTokens splits a flat token map. A nil map yields empty Tokens.
func ParseTokens(raw map[string]string) Tokens {
	tokens := Tokens{
		Known:   make(map[TokenKey]string),
		Unknown: make(map[string]string),
	}
	for key, value := range raw {
		if IsKnownToken(key) {
			tokens.Known[TokenKey(key)] = value
			continue
		}
		tokens.Unknown[key] = value
	}
	return tokens
}

// Map recombines the token map into its flat stored form.
func (t Tokens) Map() map[string]string {
	flat := make(map[string]string, len(t.Known)+len(t.Unknown))
	for key, value := range t.Unknown {
		flat[key] = value
	}
	for key, value := range t.Known {
		flat[string(key)] = value
	}
	return flat
}

func (t Tokens) Len() int {
	return len(t.Known) + len(t.Unknown)
}

func (t Tokens) Clone() Tokens {
	return ParseTokens(t.Map())
}

// Compact drops entries whose value is blank. Blank values resolve to the
// default anyway, so they are not worth storing.
func (t Tokens) Compact() Tokens {
	flat := t.Map()
	for key, value := range flat {
		if strings.TrimSpace(value) == "" {
			delete(flat, key)
		}
	}
	return ParseTokens(flat)
}

// Keys returns every key in sorted order.
func (t Tokens) Keys() []string {
	keys := make([]string, 0, t.Len())
	for key := range t.Map() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (t Tokens) Validate() error {
	if t.Len() > maxTokenCount {
		return invalid("tokens", "at most %d tokens are allowed", maxTokenCount)
	}
	for key, value := range t.Map() {
		if strings.TrimSpace(key) == "" {
			return invalid("tokens", "token keys must not be empty")
		}
		if len(value) > maxTokenValueLength {
			return invalid("tokens", "%s must be %d characters or fewer", key, maxTokenValueLength)
		}
	}
	return nil
}

func (t Tokens) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

func (t *Tokens) UnmarshalJSON(data []byte) error {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("tokens must be an object of strings: %w", err)
	}
	*t = ParseTokens(flat)
	return nil
}

type Theme struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     *string   `json:"ownerId,omitempty"`
	IsSystem    bool      `json:"isSystem"`
	IsDefault   bool      `json:"isDefault,omitempty"`
	Tokens      Tokens    `json:"tokens"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DefaultTheme is an empty unsaved document.
func DefaultTheme() Theme {
	return Theme{
		Name:   "",
		Tokens: ParseTokens(nil),
	}
}

// DraftFrom is an unsaved document seeded with base's tokens, used when a new
// theme starts from the default system theme.
func DraftFrom(base Theme) Theme {
	draft := DefaultTheme()
	draft.Tokens = base.Tokens.Clone()
	return draft
}

func (t Theme) IsOwnedBy(userID string) bool {
	return t.OwnerID != nil && userID != "" && *t.OwnerID == userID
}

// IsEditable reports whether actingUserID may modify the theme in place.
// System themes are never editable; anything else only by its owner.
func IsEditable(theme Theme, actingUserID string) bool {
	return !theme.IsSystem && theme.IsOwnedBy(actingUserID)
}

// Resolve overlays the theme's non-blank known tokens on the schema defaults.
// The result always carries every catalog key.
func Resolve(theme Theme) map[TokenKey]string {
	return ResolveTokens(theme.Tokens)
}

// ResolveTokens is Resolve for a working token map that has not been saved.
func ResolveTokens(tokens Tokens) map[TokenKey]string {
	resolved := DefaultsMap()
	for key, value := range tokens.Known {
		if strings.TrimSpace(value) == "" {
			continue
		}
		resolved[key] = value
	}
	return resolved
}

func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid("name", "name is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxThemeNameLength {
		return invalid("name", "name must be %d characters or fewer", MaxThemeNameLength)
	}
	return nil
}

func validateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if utf8.RuneCountInString(*description) > maxThemeDescriptionLength {
		return invalid("description", "description must be %d characters or fewer", maxThemeDescriptionLength)
	}
	return nil
}

// ThemeInput carries the fields of a theme write. Name is trimmed before it
// is stored.
type ThemeInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Tokens      Tokens  `json:"tokens"`
}

func (in ThemeInput) Validate() error {
	if err := ValidateName(in.Name); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	return in.Tokens.Validate()
}

// ThemePatch is a partial update. Nil fields are left unchanged; Tokens, when
// present, replaces the whole token map.
type ThemePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Tokens      *Tokens `json:"tokens,omitempty"`
}

func (p ThemePatch) Validate() error {
	if p.Name != nil {
		if err := ValidateName(*p.Name); err != nil {
			return err
		}
	}
	if err := validateDescription(p.Description); err != nil {
		return err
	}
	if p.Tokens != nil {
		return p.Tokens.Validate()
	}
	return nil
}

func (p ThemePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Tokens == nil
}

// ContrastPair is a foreground token expected to be readable on a background.
type ContrastPair struct {
	Foreground TokenKey
	Background TokenKey
}

var contrastPairs = []ContrastPair{
	{Foreground: TokenForeground, Background: TokenBackground},
	{Foreground: TokenCardForeground, Background: TokenCard},
	{Foreground: TokenPopoverForeground, Background: TokenPopover},
	{Foreground: TokenPrimaryForeground, Background: TokenPrimary},
	{Foreground: TokenSecondaryForeground, Background: TokenSecondary},
	{Foreground: TokenMutedForeground, Background: TokenMuted},
	{Foreground: TokenAccentForeground, Background: TokenAccent},
	{Foreground: TokenDestructiveForeground, Background: TokenDestructive},
}

// ContrastWarning flags a pair below the WCAG AA threshold for large text.
type ContrastWarning struct {
	Foreground TokenKey `json:"foreground"`
	Background TokenKey `json:"background"`
	Ratio      float64  `json:"ratio"`
	Minimum    float64  `json:"minimum"`
}

func (w ContrastWarning) String() string {
	return fmt.Sprintf("%s on %s has contrast ratio %.2f; %.1f is recommended", w.Foreground, w.Background, w.Ratio, w.Minimum)
}

// ContrastWarnings checks resolved tokens for hard-to-read pairs. It is
// advisory; a low ratio never blocks a save.
func ContrastWarnings(resolved map[TokenKey]string) []ContrastWarning {
	var warnings []ContrastWarning
	for _, pair := range contrastPairs {
		ratio := color.ContrastRatio(resolved[pair.Foreground], resolved[pair.Background])
		if ratio < color.MinUIContrast {
			warnings = append(warnings, ContrastWarning{
				Foreground: pair.Foreground,
				Background: pair.Background,
				Ratio:      ratio,
				Minimum:    color.MinUIContrast,
			})
		}
	}
	return warnings
}
