// internal/models/tokens.go
package models

// TokenKey names a CSS custom property carried by a theme, e.g. "--primary".
type TokenKey string

// TokenKind tells the editor which control to show for a token.
type TokenKind string

const (
	TokenKindColor TokenKind = "color"
	TokenKindText  TokenKind = "text"
)

// TokenGroup identifies an editor section.
type TokenGroup string

const (
	GroupPrimary     TokenGroup = "primary"
	GroupSecondary   TokenGroup = "secondary"
	GroupBase        TokenGroup = "base"
	GroupCard        TokenGroup = "card"
	GroupPopover     TokenGroup = "popover"
	GroupMuted       TokenGroup = "muted"
	GroupAccent      TokenGroup = "accent"
	GroupDestructive TokenGroup = "destructive"
	GroupBorders     TokenGroup = "borders"
	GroupTypography  TokenGroup = "typography"
	GroupRadius      TokenGroup = "radius"
	GroupShadows     TokenGroup = "shadows"
)

const (
	TokenBackground            TokenKey = "--background"
	TokenForeground            TokenKey = "--foreground"
	TokenCard                  TokenKey = "--card"
	TokenCardForeground        TokenKey = "--card-foreground"
	TokenPopover               TokenKey = "--popover"
	TokenPopoverForeground     TokenKey = "--popover-foreground"
	TokenPrimary               TokenKey = "--primary"
	TokenPrimaryForeground     TokenKey = "--primary-foreground"
	TokenSecondary             TokenKey = "--secondary"
	TokenSecondaryForeground   TokenKey = "--secondary-foreground"
	TokenMuted                 TokenKey = "--muted"
	TokenMutedForeground       TokenKey = "--muted-foreground"
	TokenAccent                TokenKey = "--accent"
	TokenAccentForeground      TokenKey = "--accent-foreground"
	TokenDestructive           TokenKey = "--destructive"
	TokenDestructiveForeground TokenKey = "--destructive-foreground"
	TokenBorder                TokenKey = "--border"
	TokenInput                 TokenKey = "--input"
	TokenRing                  TokenKey = "--ring"
	TokenFontSans              TokenKey = "--font-sans"
	TokenFontSerif             TokenKey = "--font-serif"
	TokenFontMono              TokenKey = "--font-mono"
	TokenRadius                TokenKey = "--radius"
	TokenShadow2XS             TokenKey = "--shadow-2xs"
	TokenShadowXS              TokenKey = "--shadow-xs"
	TokenShadowSM              TokenKey = "--shadow-sm"
	TokenShadow                TokenKey = "--shadow"
	TokenShadowMD              TokenKey = "--shadow-md"
	TokenShadowLG              TokenKey = "--shadow-lg"
	TokenShadowXL              TokenKey = "--shadow-xl"
	TokenShadow2XL             TokenKey = "--shadow-2xl"
	TokenTrackingNormal        TokenKey = "--tracking-normal"
	TokenSpacing               TokenKey = "--spacing"
)

// TokenDefinition describes one token in the catalog. Group is the first
// editor section the token appears in.
type TokenDefinition struct {
	Key     TokenKey   `json:"key"`
	Group   TokenGroup `json:"group"`
	Label   string     `json:"label"`
	Kind    TokenKind  `json:"kind"`
	Default string     `json:"default"`
}

// TokenField is a token placed inside an editor section.
type TokenField struct {
	Key   TokenKey  `json:"key"`
	Label string    `json:"label"`
	Kind  TokenKind `json:"kind"`
}

// TokenGroupDefinition is an ordered editor section.
type TokenGroupDefinition struct {
	ID     TokenGroup   `json:"id"`
	Title  string       `json:"title"`
	Fields []TokenField `json:"fields"`
}

const (
	shadowLight = "0 1px 3px 0px hsl(0 0% 0% / 0.05)"
	shadowSmall = "0 1px 3px 0px hsl(0 0% 0% / 0.10), 0 1px 2px -1px hsl(0 0% 0% / 0.10)"
)

var tokenDefaults = map[TokenKey]string{
	TokenBackground:            "oklch(1 0 0)",
	TokenForeground:            "oklch(0.1450 0 0)",
	TokenCard:                  "oklch(1 0 0)",
	TokenCardForeground:        "oklch(0.1450 0 0)",
	TokenPopover:               "oklch(1 0 0)",
	TokenPopoverForeground:     "oklch(0.1450 0 0)",
	TokenPrimary:               "oklch(0.2050 0 0)",
	TokenPrimaryForeground:     "oklch(0.9850 0 0)",
	TokenSecondary:             "oklch(0.9700 0 0)",
	TokenSecondaryForeground:   "oklch(0.2050 0 0)",
	TokenMuted:                 "oklch(0.9700 0 0)",
	TokenMutedForeground:       "oklch(0.5560 0 0)",
	TokenAccent:                "oklch(0.9700 0 0)",
	TokenAccentForeground:      "oklch(0.2050 0 0)",
	TokenDestructive:           "oklch(0.5770 0.2450 27.3250)",
	TokenDestructiveForeground: "oklch(1 0 0)",
	TokenBorder:                "oklch(0.9220 0 0)",
	TokenInput:                 "oklch(0.9220 0 0)",
	TokenRing:                  "oklch(0.7080 0 0)",
	TokenFontSans:              "ui-sans-serif, system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, 'Noto Sans', sans-serif, 'Apple Color Emoji', 'Segoe UI Emoji', 'Segoe UI Symbol', 'Noto Color Emoji'",
	TokenFontSerif:             `ui-serif, Georgia, Cambria, "Times New Roman", Times, serif`,
	TokenFontMono:              `ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace`,
	TokenRadius:                "0.625rem",
	TokenShadow2XS:             shadowLight,
	TokenShadowXS:              shadowLight,
	TokenShadowSM:              shadowSmall,
	TokenShadow:                shadowSmall,
	TokenShadowMD:              "0 1px 3px 0px hsl(0 0% 0% / 0.10), 0 2px 4px -1px hsl(0 0% 0% / 0.10)",
	TokenShadowLG:              "0 1px 3px 0px hsl(0 0% 0% / 0.10), 0 4px 6px -1px hsl(0 0% 0% / 0.10)",
	TokenShadowXL:              "0 1px 3px 0px hsl(0 0% 0% / 0.10), 0 8px 10px -1px hsl(0 0% 0% / 0.10)",
	TokenShadow2XL:             "0 1px 3px 0px hsl(0 0% 0% / 0.25)",
	TokenTrackingNormal:        "0em",
	TokenSpacing:               "0.25rem",
}

func colorField(key TokenKey, label string) TokenField {
	return TokenField{Key: key, Label: label, Kind: TokenKindColor}
}

func textField(key TokenKey, label string) TokenField {
	return TokenField{Key: key, Label: label, Kind: TokenKindText}
}

var tokenGroups = []TokenGroupDefinition{
	{ID: GroupPrimary, Title: "Primary Colors", Fields: []TokenField{
		colorField(TokenPrimary, "Primary"),
		colorField(TokenPrimaryForeground, "Primary Foreground"),
		colorField(TokenRing, "Ring"),
	}},
	{ID: GroupSecondary, Title: "Secondary Colors", Fields: []TokenField{
		colorField(TokenSecondary, "Secondary"),
		colorField(TokenSecondaryForeground, "Secondary Foreground"),
	}},
	{ID: GroupBase, Title: "Base Colors", Fields: []TokenField{
		colorField(TokenBackground, "Background"),
		colorField(TokenForeground, "Foreground"),
		colorField(TokenBorder, "Border"),
		colorField(TokenInput, "Input"),
	}},
	{ID: GroupCard, Title: "Card", Fields: []TokenField{
		colorField(TokenCard, "Card Background"),
		colorField(TokenCardForeground, "Card Foreground"),
	}},
	{ID: GroupPopover, Title: "Popover", Fields: []TokenField{
		colorField(TokenPopover, "Popover Background"),
		colorField(TokenPopoverForeground, "Popover Foreground"),
	}},
	{ID: GroupMuted, Title: "Muted", Fields: []TokenField{
		colorField(TokenMuted, "Muted"),
		colorField(TokenMutedForeground, "Muted Foreground"),
	}},
	{ID: GroupAccent, Title: "Accent", Fields: []TokenField{
		colorField(TokenAccent, "Accent"),
		colorField(TokenAccentForeground, "Accent Foreground"),
	}},
	{ID: GroupDestructive, Title: "Destructive", Fields: []TokenField{
		colorField(TokenDestructive, "Destructive"),
		colorField(TokenDestructiveForeground, "Destructive Foreground"),
	}},
	{ID: GroupBorders, Title: "Border & Input Colors", Fields: []TokenField{
		colorField(TokenBorder, "Border"),
		colorField(TokenInput, "Input"),
		colorField(TokenRing, "Ring"),
	}},
	{ID: GroupTypography, Title: "Typography", Fields: []TokenField{
		textField(TokenFontSans, "Sans-Serif Font"),
		textField(TokenFontSerif, "Serif Font"),
		textField(TokenFontMono, "Monospace Font"),
		textField(TokenTrackingNormal, "Letter Spacing"),
		textField(TokenSpacing, "Spacing"),
	}},
	{ID: GroupRadius, Title: "Radius", Fields: []TokenField{
		textField(TokenRadius, "Radius"),
	}},
	{ID: GroupShadows, Title: "Shadows", Fields: []TokenField{
		textField(TokenShadow2XS, "Shadow 2XS"),
		textField(TokenShadowXS, "Shadow XS"),
		textField(TokenShadowSM, "Shadow SM"),
		textField(TokenShadow, "Shadow"),
		textField(TokenShadowMD, "Shadow MD"),
		textField(TokenShadowLG, "Shadow LG"),
		textField(TokenShadowXL, "Shadow XL"),
		textField(TokenShadow2XL, "Shadow 2XL"),
	}},
}

// tokenCatalog is tokenGroups flattened in first-appearance order.
var tokenCatalog = buildTokenCatalog()

var tokenIndex = func() map[TokenKey]int {
	index := make(map[TokenKey]int, len(tokenCatalog))
	for i, def := range tokenCatalog {
		index[def.Key] = i
	}
	return index
}()

func buildTokenCatalog() []TokenDefinition {
	seen := make(map[TokenKey]bool)
	catalog := make([]TokenDefinition, 0, len(tokenDefaults))
	for _, group := range tokenGroups {
		for _, field := range group.Fields {
			if seen[field.Key] {
				continue
			}
			seen[field.Key] = true
			catalog = append(catalog, TokenDefinition{
				Key:     field.Key,
				Group:   group.ID,
				Label:   field.Label,
				Kind:    field.Kind,
				Default: tokenDefaults[field.Key],
			})
		}
	}
	return catalog
}

// TokenGroups returns the editor sections in display order.
func TokenGroups() []TokenGroupDefinition {
	groups := make([]TokenGroupDefinition, len(tokenGroups))
	for i, group := range tokenGroups {
		groups[i] = group
		groups[i].Fields = append([]TokenField(nil), group.Fields...)
	}
	return groups
}

// TokenDefinitions returns every known token once, in editor order.
func TokenDefinitions() []TokenDefinition {
	return append([]TokenDefinition(nil), tokenCatalog...)
}

func LookupToken(key TokenKey) (TokenDefinition, bool) {
	i, ok := tokenIndex[key]
	if !ok {
		return TokenDefinition{}, false
	}
	return tokenCatalog[i], true
}

// DefaultsMap returns a fresh copy of the default value of every token.
func DefaultsMap() map[TokenKey]string {
	defaults := make(map[TokenKey]string, len(tokenDefaults))
	for key, value := range tokenDefaults {
		defaults[key] = value
	}
	return defaults
}

func AllKeys() []TokenKey {
	keys := make([]TokenKey, len(tokenCatalog))
	for i, def := range tokenCatalog {
		keys[i] = def.Key
	}
	return keys
}

func IsKnownToken(key string) bool {
	_, ok := tokenIndex[TokenKey(key)]
	return ok
}
