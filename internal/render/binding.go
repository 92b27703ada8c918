// Package render turns resolved theme tokens into the style variables a
// published page is rendered with.
package render

import (
	"regexp"
	"sort"
	"strings"

	"github.com/codr1/biolink/internal/models"
)

var customPropertyRegex = regexp.MustCompile(`^--[A-Za-z0-9_-]+$`)

// ToStyleVars maps resolved tokens to style variable names. Token keys are
// already custom property names, so the mapping is the identity.
func ToStyleVars(resolved map[models.TokenKey]string) map[string]string {
	vars := make(map[string]string, len(resolved))
	for key, value := range resolved {
		vars[string(key)] = value
	}
	return vars
}

// VarsFor resolves a theme straight to style variables.
func VarsFor(theme models.Theme) map[string]string {
	return ToStyleVars(models.Resolve(theme))
}

// SafeValue reports whether value can sit inside a declaration block without
// ending it or opening markup.
func SafeValue(value string) bool {
	return !strings.ContainsAny(value, "<>{};\n\r")
}

// StyleDeclarations renders vars as "--key:value;" pairs sorted by key.
// Invalid names are skipped. An unsafe value falls back to the token default,
// or is skipped when the key has none.
func StyleDeclarations(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		if customPropertyRegex.MatchString(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		value := strings.TrimSpace(vars[key])
		if !SafeValue(value) {
			def, ok := models.LookupToken(models.TokenKey(key))
			if !ok {
				continue
			}
			value = def.Default
		}
		if value == "" {
			continue
		}
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteByte(';')
	}
	return b.String()
}
