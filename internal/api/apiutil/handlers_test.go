package apiutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/themes"
)

func TestStatusForError(t *testing.T) {
	storage := &themes.StorageError{Op: "get", Err: errors.New("disk")}
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{name: "validation", err: &models.ValidationError{Field: "name", Message: "name is required"}, status: http.StatusBadRequest},
		{name: "wrapped_validation", err: fmt.Errorf("save: %w", &models.ValidationError{Field: "name"}), status: http.StatusBadRequest},
		{name: "not_found", err: themes.ErrNotFound, status: http.StatusNotFound},
		{name: "not_found_or_forbidden", err: themes.ErrNotFoundOrForbidden, status: http.StatusNotFound},
		{name: "no_user", err: themes.ErrNoActingUser, status: http.StatusUnauthorized},
		{name: "storage", err: storage, status: http.StatusInternalServerError, retryable: true},
		{name: "timeout", err: &themes.StorageError{Op: "get", Err: context.DeadlineExceeded}, status: http.StatusServiceUnavailable, retryable: true},
		{name: "handler", err: HandlerError{Status: http.StatusConflict, Message: "nope"}, status: http.StatusConflict},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, body := StatusForError(test.err)
			if status != test.status {
				t.Fatalf("status = %d, want %d", status, test.status)
			}
			if body.Retryable != test.retryable {
				t.Fatalf("retryable = %t, want %t", body.Retryable, test.retryable)
			}
			if body.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestStatusForErrorValidationWithoutMessage(t *testing.T) {
	status, body := StatusForError(fmt.Errorf("save: %w", &models.ValidationError{Field: "tokens"}))
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if body.Error != "Invalid theme" || body.Field != "tokens" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestStatusForErrorHidesStorageDetails(t *testing.T) {
	_, body := StatusForError(&themes.StorageError{Op: "get", Err: errors.New("/var/db/secret.db locked")})
	if strings.Contains(body.Error, "secret") {
		t.Fatalf("storage details leaked: %q", body.Error)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"x"}`},
		{name: "unknown_field", body: `{"name":"x","extra":1}`, wantErr: true},
		{name: "trailing_data", body: `{"name":"x"}{"name":"y"}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(test.body))
			var dst payload
			err := DecodeJSON(req, &dst)
			if (err != nil) != test.wantErr {
				t.Fatalf("DecodeJSON error = %v, wantErr %t", err, test.wantErr)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	WriteError(rec, req, &models.ValidationError{Field: "name", Message: "name is required"}, "ignored")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"field":"name"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestIsJSONRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if !IsJSONRequest(req) {
		t.Fatal("expected JSON request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if IsJSONRequest(req) {
		t.Fatal("form request detected as JSON")
	}
}

func TestWriteHTMLFeedback(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTMLFeedback(rec, http.StatusCreated, "Saved <ok>")
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "Saved &lt;ok&gt;") {
		t.Fatalf("unexpected feedback %d %q", rec.Code, rec.Body.String())
	}
}
