package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func strPtr(value string) *string {
	return &value
}

func TestResolveCompleteness(t *testing.T) {
	resolved := Resolve(DefaultTheme())
	for _, key := range AllKeys() {
		value, ok := resolved[key]
		if !ok || strings.TrimSpace(value) == "" {
			t.Fatalf("resolved theme missing %s", key)
		}
	}
	if len(resolved) != len(AllKeys()) {
		t.Fatalf("resolved has %d keys, want %d", len(resolved), len(AllKeys()))
	}
}

func TestResolveOverrides(t *testing.T) {
	theme := Theme{Tokens: ParseTokens(map[string]string{
		"--primary":    "#ff0000",
		"--background": "",
		"--foreground": "   ",
		"--radius":     " 1rem ",
		"--brand":      "#123456",
	})}

	resolved := Resolve(theme)
	tests := []struct {
		key  TokenKey
		want string
	}{
		{key: TokenPrimary, want: "#ff0000"},
		{key: TokenBackground, want: "oklch(1 0 0)"},
		{key: TokenForeground, want: "oklch(0.1450 0 0)"},
		{key: TokenRadius, want: " 1rem "},
		{key: TokenRing, want: "oklch(0.7080 0 0)"},
	}
	for _, test := range tests {
		if got := resolved[test.key]; got != test.want {
			t.Fatalf("resolved[%s] = %q, want %q", test.key, got, test.want)
		}
	}
	if _, ok := resolved["--brand"]; ok {
		t.Fatal("unknown keys must not be resolved")
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	tokens := ParseTokens(map[string]string{"--primary": ""})
	ResolveTokens(tokens)
	if value, ok := tokens.Known[TokenPrimary]; !ok || value != "" {
		t.Fatalf("input tokens modified: %+v", tokens.Known)
	}
}

func TestIsEditable(t *testing.T) {
	tests := []struct {
		name  string
		theme Theme
		user  string
		want  bool
	}{
		{name: "own_theme", theme: Theme{OwnerID: strPtr("u1")}, user: "u1", want: true},
		{name: "foreign_theme", theme: Theme{OwnerID: strPtr("u1")}, user: "u2", want: false},
		{name: "system_theme", theme: Theme{IsSystem: true}, user: "u1", want: false},
		{name: "system_with_owner", theme: Theme{IsSystem: true, OwnerID: strPtr("u1")}, user: "u1", want: false},
		{name: "anonymous", theme: Theme{OwnerID: strPtr("u1")}, user: "", want: false},
		{name: "unowned", theme: Theme{}, user: "u1", want: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsEditable(test.theme, test.user); got != test.want {
				t.Fatalf("IsEditable = %t, want %t", got, test.want)
			}
		})
	}
}

func TestThemeInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   ThemeInput
		wantErr bool
	}{
		{name: "valid", input: ThemeInput{Name: "Sunset"}},
		{name: "empty_name", input: ThemeInput{Name: ""}, wantErr: true},
		{name: "blank_name", input: ThemeInput{Name: "   "}, wantErr: true},
		{name: "name_at_limit", input: ThemeInput{Name: strings.Repeat("a", 100)}},
		{name: "name_too_long", input: ThemeInput{Name: strings.Repeat("a", 101)}, wantErr: true},
		{name: "description_too_long", input: ThemeInput{Name: "x", Description: strPtr(strings.Repeat("d", 501))}, wantErr: true},
		{name: "empty_token_key", input: ThemeInput{Name: "x", Tokens: ParseTokens(map[string]string{"": "red"})}, wantErr: true},
		{name: "token_value_too_long", input: ThemeInput{Name: "x", Tokens: ParseTokens(map[string]string{"--primary": strings.Repeat("a", 2049)})}, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.input.Validate()
			if test.wantErr {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected error to match ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestThemePatchValidate(t *testing.T) {
	if err := (ThemePatch{}).Validate(); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if !(ThemePatch{}).IsEmpty() {
		t.Fatal("expected empty patch")
	}
	if err := (ThemePatch{Name: strPtr(" ")}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestTokensJSONRoundTrip(t *testing.T) {
	raw := `{"--brand":"teal","--primary":"#ff0000"}`
	var tokens Tokens
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tokens.Known[TokenPrimary] != "#ff0000" {
		t.Fatalf("known tokens = %+v", tokens.Known)
	}
	if tokens.Unknown["--brand"] != "teal" {
		t.Fatalf("unknown tokens = %+v", tokens.Unknown)
	}

	encoded, err := json.Marshal(tokens)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != raw {
		t.Fatalf("round trip = %s, want %s", encoded, raw)
	}

	if err := json.Unmarshal([]byte(`{"--primary":1}`), &tokens); err == nil {
		t.Fatal("expected non-string token value to be rejected")
	}
}

func TestTokensCompact(t *testing.T) {
	tokens := ParseTokens(map[string]string{
		"--primary": "#000000",
		"--ring":    "",
		"--brand":   " ",
	}).Compact()
	if tokens.Len() != 1 {
		t.Fatalf("expected 1 token after compact, got %v", tokens.Map())
	}
	if got := tokens.Keys(); len(got) != 1 || got[0] != "--primary" {
		t.Fatalf("keys = %v", got)
	}
}

func TestContrastWarnings(t *testing.T) {
	if warnings := ContrastWarnings(DefaultsMap()); len(warnings) != 0 {
		t.Fatalf("default palette should be readable, got %v", warnings)
	}

	resolved := ResolveTokens(ParseTokens(map[string]string{
		"--foreground": "#fefefe",
		"--background": "#ffffff",
	}))
	warnings := ContrastWarnings(resolved)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if warnings[0].Foreground != TokenForeground || warnings[0].Background != TokenBackground {
		t.Fatalf("unexpected warning %+v", warnings[0])
	}
	if warnings[0].String() == "" {
		t.Fatal("expected warning message")
	}
}
