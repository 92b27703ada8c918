package themes

import (
	"strings"

	"github.com/codr1/biolink/internal/color"
	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/render"
)

const forkNoticeSystem = "This is a system theme. Saving will create your own copy."
const forkNoticeForeign = "This theme belongs to someone else. Saving will create your own copy."

// Theme is a list entry.
type Theme struct {
	models.Theme
	IsEditable bool
	IsSelected bool
	// Swatch is the picker hex of the theme's primary color.
	Swatch string
}

func NewTheme(theme models.Theme, actingUserID, selectedID string) Theme {
	resolved := models.Resolve(theme)
	return Theme{
		Theme:      theme,
		IsEditable: models.IsEditable(theme, actingUserID),
		IsSelected: theme.ID != "" && theme.ID == selectedID,
		Swatch:     color.ToHex(resolved[models.TokenPrimary]),
	}
}

// Badge labels themes the acting user cannot edit.
func (t Theme) Badge() string {
	switch {
	case t.IsSystem:
		return "System"
	case !t.IsEditable:
		return "Shared"
	default:
		return ""
	}
}

func NewThemes(rows []models.Theme, actingUserID, selectedID string) []Theme {
	themes := make([]Theme, len(rows))
	for i, row := range rows {
		themes[i] = NewTheme(row, actingUserID, selectedID)
	}
	return themes
}

// Field is one editable token as the editor shows it.
type Field struct {
	Key   models.TokenKey  `json:"key"`
	Label string           `json:"label"`
	Kind  models.TokenKind `json:"kind"`
	// Value is the raw working value; empty means "use the default".
	Value    string `json:"value"`
	Resolved string `json:"resolved"`
	// Hex is the picker value for color fields. Editing the text value
	// never round-trips through it.
	Hex        string `json:"hex,omitempty"`
	Overridden bool   `json:"overridden"`
}

type Group struct {
	ID     models.TokenGroup `json:"id"`
	Title  string            `json:"title"`
	Fields []Field           `json:"fields"`
}

type ThemeEditorData struct {
	Theme      models.Theme             `json:"theme"`
	Groups     []Group                  `json:"groups"`
	ReadOnly   bool                     `json:"readOnly"`
	ForkNotice string                   `json:"forkNotice,omitempty"`
	Warnings   []models.ContrastWarning `json:"warnings,omitempty"`
	StyleVars  map[string]string        `json:"styleVars"`
}

func (d ThemeEditorData) Description() string {
	if d.Theme.Description == nil {
		return ""
	}
	return *d.Theme.Description
}

// NewThemeEditorData builds the editor view of theme for actingUserID.
// Themes the user cannot edit are shown read-only with a notice that saving
// forks them.
func NewThemeEditorData(theme models.Theme, actingUserID string) ThemeEditorData {
	return newEditorData(theme, theme.Tokens, actingUserID)
}

// NewPreviewEditorData is the editor view for unsaved working tokens on top
// of theme.
func NewPreviewEditorData(theme models.Theme, preview *render.Preview, actingUserID string) ThemeEditorData {
	return newEditorData(theme, preview.Tokens(), actingUserID)
}

func newEditorData(theme models.Theme, working models.Tokens, actingUserID string) ThemeEditorData {
	resolved := models.ResolveTokens(working)

	data := ThemeEditorData{
		Theme:     theme,
		Warnings:  models.ContrastWarnings(resolved),
		StyleVars: render.ToStyleVars(resolved),
	}
	if theme.ID != "" && !models.IsEditable(theme, actingUserID) {
		data.ReadOnly = true
		data.ForkNotice = forkNoticeForeign
		if theme.IsSystem {
			data.ForkNotice = forkNoticeSystem
		}
	}

	for _, groupDef := range models.TokenGroups() {
		group := Group{ID: groupDef.ID, Title: groupDef.Title}
		for _, fieldDef := range groupDef.Fields {
			value := working.Known[fieldDef.Key]
			field := Field{
				Key:        fieldDef.Key,
				Label:      fieldDef.Label,
				Kind:       fieldDef.Kind,
				Value:      value,
				Resolved:   resolved[fieldDef.Key],
				Overridden: strings.TrimSpace(value) != "",
			}
			if fieldDef.Kind == models.TokenKindColor {
				field.Hex = color.ToHex(field.Resolved)
			}
			group.Fields = append(group.Fields, field)
		}
		data.Groups = append(data.Groups, group)
	}
	return data
}
