package authz

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRequireUserUnauthenticated(t *testing.T) {
	if _, err := RequireUser(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	ctx := ContextWithUser(context.Background(), &AuthUser{})
	if _, err := RequireUser(ctx); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty id, got %v", err)
	}
}

func TestRequireUserAllowed(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &AuthUser{ID: "alice"})

	user, err := RequireUser(ctx)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if user.ID != "alice" {
		t.Fatalf("user id = %q", user.ID)
	}
	if UserIDFromContext(ctx) != "alice" {
		t.Fatalf("UserIDFromContext = %q", UserIDFromContext(ctx))
	}
}

func TestUserFromContextNil(t *testing.T) {
	//lint:ignore SA1012 nil context is part of the contract
	if UserFromContext(nil) != nil {
		t.Fatal("expected nil user for nil context")
	}
	if UserIDFromContext(context.Background()) != "" {
		t.Fatal("expected empty id for anonymous context")
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "plain", raw: "user_123", want: "user_123", wantOK: true},
		{name: "trimmed", raw: "  user_123 ", want: "user_123", wantOK: true},
		{name: "empty", raw: "", wantOK: false},
		{name: "blank", raw: "   ", wantOK: false},
		{name: "control_char", raw: "user\x00", wantOK: false},
		{name: "too_long", raw: strings.Repeat("a", 129), wantOK: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := ParseUserID(test.raw)
			if ok != test.wantOK || got != test.want {
				t.Fatalf("ParseUserID(%q) = %q, %t; want %q, %t", test.raw, got, ok, test.want, test.wantOK)
			}
		})
	}
}
