package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/biolink/internal/api/authz"
	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/themes"
)

const maxJSONBodyBytes = 1 << 20

type HandlerError struct {
	Status    int
	Message   string
	Err       error
	Retryable bool
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	// Retryable is set for storage failures and throttled writes.
	Retryable bool `json:"retryable,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("missing request body")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func IsJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// RenderHTMLComponent renders component into a buffer before writing, so a
// render failure still produces a clean 500. It reports whether the response
// was written successfully.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, headers map[string]string, logMsg, errMsg string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		http.Error(w, errMsg, http.StatusInternalServerError)
		return false
	}
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to write HTML response")
		return false
	}
	return true
}

// WriteHTMLFeedback writes a short status message for htmx swaps.
func WriteHTMLFeedback(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<div class="feedback" role="status">%s</div>`, html.EscapeString(message))
}

// StatusForError maps handler, auth and theme store errors to an HTTP status
// and a client-safe body.
func StatusForError(err error) (int, ErrorResponse) {
	var handlerErr HandlerError
	var validationErr *models.ValidationError
	var storageErr *themes.StorageError

	switch {
	case errors.As(err, &handlerErr):
		return handlerErr.Status, ErrorResponse{Error: handlerErr.Message, Retryable: handlerErr.Retryable}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{Error: FirstNonEmpty(validationErr.Message, "Invalid theme"), Field: validationErr.Field}
	case errors.Is(err, authz.ErrUnauthenticated), errors.Is(err, themes.ErrNoActingUser):
		return http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"}
	case errors.Is(err, themes.ErrNotFoundOrForbidden), errors.Is(err, themes.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Theme not found"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Theme storage timed out, please retry", Retryable: true}
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, ErrorResponse{Error: "Theme storage is unavailable, please retry", Retryable: true}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"}
	}
}

// WriteError replies with the mapped status. Only server-side failures are
// logged at error level.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	status, body := StatusForError(err)
	if status >= http.StatusInternalServerError {
		logEvent := log.Ctx(r.Context()).Error().Err(err)
		if userID := authz.UserIDFromContext(r.Context()); userID != "" {
			logEvent = logEvent.Str("user_id", userID)
		}
		logEvent.Msg(logMsg)
	}
	if writeErr := WriteJSON(w, status, body); writeErr != nil {
		log.Ctx(r.Context()).Error().Err(writeErr).Msg("Failed to write error response")
	}
}
