package htmx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsRequest(req) {
		t.Fatal("plain request reported as htmx")
	}
	req.Header.Set("HX-Request", "TRUE")
	if !IsRequest(req) {
		t.Fatal("HX-Request header not detected")
	}
}

func TestResponseHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Trigger(rec, "refreshThemesList")
	PushURL(rec, "/themes?theme=abc")

	if got := rec.Header().Get("HX-Trigger"); got != "refreshThemesList" {
		t.Fatalf("HX-Trigger = %q", got)
	}
	if got := rec.Header().Get("HX-Push-Url"); got != "/themes?theme=abc" {
		t.Fatalf("HX-Push-Url = %q", got)
	}
}
