package models

import (
	"strings"
	"testing"
)

func TestTokenCatalog(t *testing.T) {
	defs := TokenDefinitions()
	if len(defs) != 33 {
		t.Fatalf("expected 33 distinct tokens, got %d", len(defs))
	}

	seen := make(map[TokenKey]bool)
	for _, def := range defs {
		if seen[def.Key] {
			t.Fatalf("duplicate token %s in catalog", def.Key)
		}
		seen[def.Key] = true
		if !strings.HasPrefix(string(def.Key), "--") {
			t.Fatalf("token %q is not a custom property", def.Key)
		}
		if strings.TrimSpace(def.Default) == "" {
			t.Fatalf("token %s has no default", def.Key)
		}
		if def.Label == "" {
			t.Fatalf("token %s has no label", def.Key)
		}
	}

	defaults := DefaultsMap()
	if len(defaults) != len(defs) {
		t.Fatalf("defaults cover %d keys, catalog has %d", len(defaults), len(defs))
	}
	for _, key := range AllKeys() {
		if _, ok := defaults[key]; !ok {
			t.Fatalf("missing default for %s", key)
		}
	}
}

func TestTokenGroups(t *testing.T) {
	groups := TokenGroups()
	if len(groups) != 12 {
		t.Fatalf("expected 12 groups, got %d", len(groups))
	}
	if groups[0].ID != GroupPrimary || groups[len(groups)-1].ID != GroupShadows {
		t.Fatalf("unexpected group order: first %s, last %s", groups[0].ID, groups[len(groups)-1].ID)
	}

	appearances := make(map[TokenKey]int)
	for _, group := range groups {
		if group.Title == "" || len(group.Fields) == 0 {
			t.Fatalf("group %s is incomplete", group.ID)
		}
		for _, field := range group.Fields {
			appearances[field.Key]++
		}
	}
	for _, key := range []TokenKey{TokenBorder, TokenInput, TokenRing} {
		if appearances[key] != 2 {
			t.Fatalf("expected %s in two groups, got %d", key, appearances[key])
		}
	}

	def, ok := LookupToken(TokenRing)
	if !ok {
		t.Fatal("expected --ring in catalog")
	}
	if def.Group != GroupPrimary {
		t.Fatalf("--ring group = %s, want first appearance %s", def.Group, GroupPrimary)
	}
}

func TestTokenAccessorsReturnCopies(t *testing.T) {
	defaults := DefaultsMap()
	defaults[TokenPrimary] = "red"
	if DefaultsMap()[TokenPrimary] == "red" {
		t.Fatal("DefaultsMap leaked the shared map")
	}

	groups := TokenGroups()
	groups[0].Fields[0].Label = "changed"
	if TokenGroups()[0].Fields[0].Label == "changed" {
		t.Fatal("TokenGroups leaked the shared fields")
	}

	defs := TokenDefinitions()
	defs[0].Default = "changed"
	if TokenDefinitions()[0].Default == "changed" {
		t.Fatal("TokenDefinitions leaked the shared catalog")
	}
}

func TestTokenDefaults(t *testing.T) {
	tests := []struct {
		key  TokenKey
		want string
	}{
		{key: TokenBackground, want: "oklch(1 0 0)"},
		{key: TokenForeground, want: "oklch(0.1450 0 0)"},
		{key: TokenDestructive, want: "oklch(0.5770 0.2450 27.3250)"},
		{key: TokenRing, want: "oklch(0.7080 0 0)"},
		{key: TokenRadius, want: "0.625rem"},
		{key: TokenTrackingNormal, want: "0em"},
		{key: TokenSpacing, want: "0.25rem"},
	}
	for _, test := range tests {
		t.Run(string(test.key), func(t *testing.T) {
			def, ok := LookupToken(test.key)
			if !ok {
				t.Fatalf("missing %s", test.key)
			}
			if def.Default != test.want {
				t.Fatalf("default %s = %q, want %q", test.key, def.Default, test.want)
			}
		})
	}
}

func TestIsKnownToken(t *testing.T) {
	if !IsKnownToken("--shadow-2xs") {
		t.Fatal("expected --shadow-2xs to be known")
	}
	for _, key := range []string{"", "primary", "--brand", "--PRIMARY"} {
		if IsKnownToken(key) {
			t.Fatalf("expected %q to be unknown", key)
		}
	}
	if _, ok := LookupToken("--brand"); ok {
		t.Fatal("expected lookup of unknown key to fail")
	}
}
