// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler sends JSON back to the client. Error responses always
// carry a human-readable message; success envelopes add the record under
// data.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope for messages.
//
//	{ "status": "error", "message": "Homeowner not found." }
//	{ "status": "ok", "message": "Homeowner created successfully.", "data": {...} }
//
// Details lists individual field problems for validation failures.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Status string constants.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// MsgInternal is the only message a client sees for an unexpected failure.
const MsgInternal = "Internal Server Error"

// WriteJSON writes data JSON-encoded with the given HTTP status code.
// Header() → WriteHeader() → body, in that order.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Message is a success envelope without data.
func Message(msg string) Response {
	return Response{Status: StatusOK, Message: msg}
}

// WithData is a success envelope carrying data.
func WithData(msg string, data any) Response {
	return Response{Status: StatusOK, Message: msg, Data: data}
}

// GeneralError is an error envelope with a fixed message. Internal error
// details must never be passed here; log them instead.
func GeneralError(msg string) Response {
	return Response{Status: StatusError, Message: msg}
}

// Conflict is an error envelope carrying the record the request collided with.
func Conflict(msg string, existing any) Response {
	return Response{Status: StatusError, Message: msg, Data: existing}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator.FieldError values into an error
// envelope, one plain sentence per failing field.
//
//	{ "status": "error", "message": "Invalid homeowner fields.",
//	  "details": ["field address is required"] }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(msg string, errs validator.ValidationErrors) Response {
	details := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			details = append(details, fmt.Sprintf("field %s is required", e.Field()))
		case "datetime":
			details = append(details,
				fmt.Sprintf("field %s must be a date formatted as YYYY-MM-DD", e.Field()))
		default:
			details = append(details, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status:  StatusError,
		Message: msg,
		Details: details,
	}
}
