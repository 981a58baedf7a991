package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aanand-mishra/homeowners-api/internal/storage"
	"github.com/aanand-mishra/homeowners-api/internal/utils/response"
	"github.com/aanand-mishra/homeowners-api/internal/xmlschema"
)

// Client-facing messages of the input checks.
const (
	MsgInvalidID          = "Invalid ID format."
	MsgSearchParams       = "At least one search parameter is required (name or address)."
	MsgInvalidContentType = "Invalid content type. Expected XML."
	MsgInvalidXML         = "Invalid XML format."
	MsgBodyTooLarge       = "Request body too large."
)

// MaxBodyBytes bounds XML write bodies.
const MaxBodyBytes = 1 << 20

// ValidateID rejects requests whose {id} path variable is not a
// well-formed identifier.
func ValidateID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !storage.ValidID(mux.Vars(r)["id"]) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgInvalidID))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateSearch requires at least one of the name and address query
// parameters.
func ValidateSearch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("name") == "" && q.Get("address") == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgSearchParams))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateXML checks the content type, reads the body and validates it
// against the schema for kind. The accepted body is handed to next
// through the request context; see XMLBody.
func ValidateXML(v *xmlschema.Validator, kind xmlschema.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := xmlschema.CheckContentType(r.Header.Get("Content-Type")); err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgInvalidContentType))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.GeneralError(MsgBodyTooLarge))
					return
				}
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgInvalidXML))
				return
			}

			if err := v.Validate(kind, body); err != nil {
				slog.Debug("rejected xml payload",
					slog.String("schema", kind.String()),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())))
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgInvalidXML))
				return
			}

			ctx := context.WithValue(r.Context(), xmlBodyKey, body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// XMLBody returns the body accepted by ValidateXML, or nil.
func XMLBody(ctx context.Context) []byte {
	body, _ := ctx.Value(xmlBodyKey).([]byte)
	return body
}
