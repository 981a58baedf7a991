// Package homeowner contains the HTTP handlers of the homeowner resource.
//
// Each handler is built by a factory that receives its dependencies once
// at startup and returns the http.HandlerFunc called on every request:
//
//	router.Handle("/homeowners/{id}", homeowner.GetByID(storage))
//
// Input checks that do not need the store (id format, search parameters,
// content type and XML schema) run first, in the middleware wired by
// Register. Handlers map the remaining failures onto status codes:
// 400 invalid input, 404 unknown record, 409 duplicate name,
// 422 geocoding failure, 500 anything else.
package homeowner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aanand-mishra/homeowners-api/internal/http/middleware"
	"github.com/aanand-mishra/homeowners-api/internal/storage"
	"github.com/aanand-mishra/homeowners-api/internal/types"
	"github.com/aanand-mishra/homeowners-api/internal/utils/response"
	"github.com/aanand-mishra/homeowners-api/internal/xmlschema"
)

// Client-facing messages.
const (
	MsgCreated        = "Homeowner created successfully."
	MsgUpdated        = "Homeowner updated successfully."
	MsgDeleted        = "Homeowner deleted successfully."
	MsgDeletedMany    = "Homeowners deleted successfully."
	MsgDeletedPartial = "Homeowners deleted successfully. But some provided IDs for homeowners not found"
	MsgNotFound       = "Homeowner not found."
	MsgNoneFound      = "No homeowners found for the provided IDs."
	MsgAlreadyExists  = "Homeowner already exists."
	MsgNoCoordinates  = "Unable to get geocoordinates."
	MsgInvalidFields  = "name, dateOfBirth and address parameter is required."
	MsgUpdateFields   = "name or dateOfBirth or address parameter is required."
	MsgInvalidIDs     = "Invalid IDs format."
)

// Enricher computes the derived homeowner fields.
type Enricher interface {
	Age(dob time.Time) int
	Coordinates(ctx context.Context, address string) (types.Coordinates, error)
}

// Register wires every homeowner route, with its input checks, onto r.
// /homeowners/search is registered before /homeowners/{id} so it is not
// captured as an id.
func Register(r *mux.Router, store storage.Storage, schemas *xmlschema.Validator, enricher Enricher) {
	r.Handle("/homeowners",
		middleware.ValidateXML(schemas, xmlschema.KindCreate)(New(store, enricher)),
	).Methods(http.MethodPost)

	r.Handle("/homeowners/search",
		middleware.ValidateSearch(Search(store)),
	).Methods(http.MethodGet)

	r.Handle("/homeowners/{id}",
		middleware.ValidateID(GetByID(store)),
	).Methods(http.MethodGet)

	r.Handle("/homeowners", GetList(store)).Methods(http.MethodGet)

	r.Handle("/homeowners/{id}",
		middleware.ValidateID(middleware.ValidateXML(schemas, xmlschema.KindUpdate)(Update(store, enricher))),
	).Methods(http.MethodPut)

	r.Handle("/homeowners/{id}",
		middleware.ValidateID(Delete(store)),
	).Methods(http.MethodDelete)

	r.Handle("/homeowners",
		middleware.ValidateXML(schemas, xmlschema.KindIDs)(DeleteMany(store)),
	).Methods(http.MethodDelete)
}

// writeInternal logs err and answers 500 with a fixed message.
func writeInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(response.MsgInternal))
}

// writeFieldsError answers 400 for a payload rejected by the mapper.
func writeFieldsError(w http.ResponseWriter, msg string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(msg, verrs))
		return
	}
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(msg))
}

// writeConflict answers 409 with the record currently holding name.
func writeConflict(w http.ResponseWriter, r *http.Request, store storage.Storage, name string) {
	existing, err := store.GetHomeownerByName(r.Context(), name)
	if err != nil {
		// the holder vanished between the write and this lookup
		response.WriteJSON(w, http.StatusConflict, response.GeneralError(MsgAlreadyExists))
		return
	}
	response.WriteJSON(w, http.StatusConflict, response.Conflict(MsgAlreadyExists, existing))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /homeowners
//
// Request body (XML, validated against the create schema):
//
//	<homeowner>
//	  <name>John Doe</name>
//	  <dateofbirth>1990-01-01</dateofbirth>
//	  <address>11 Rue Grenette, Lyon</address>
//	</homeowner>
//
// Success response (201 Created):
//
//	{ "status": "ok", "message": "Homeowner created successfully.", "data": {...} }
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage, enricher Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		slog.Info("creating a homeowner")

		fields, err := xmlschema.ParseHomeowner(middleware.XMLBody(ctx))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(middleware.MsgInvalidXML))
			return
		}

		homeowner, err := fields.ForCreate()
		if err != nil {
			writeFieldsError(w, MsgInvalidFields, err)
			return
		}

		homeowner.Age = enricher.Age(homeowner.DateOfBirth)

		coords, err := enricher.Coordinates(ctx, homeowner.Address)
		if err != nil {
			slog.Warn("geocoding failed",
				slog.String("address", homeowner.Address),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(MsgNoCoordinates))
			return
		}
		homeowner.Geocoordinates = coords

		existing, err := store.GetHomeownerByName(ctx, homeowner.Name)
		switch {
		case err == nil:
			response.WriteJSON(w, http.StatusConflict, response.Conflict(MsgAlreadyExists, existing))
			return
		case !errors.Is(err, storage.ErrNotFound):
			writeInternal(w, r, "error checking for duplicate homeowner", err)
			return
		}

		created, err := store.CreateHomeowner(ctx, homeowner)
		if errors.Is(err, storage.ErrDuplicateName) {
			// lost a race with a concurrent create of the same name
			writeConflict(w, r, store, homeowner.Name)
			return
		}
		if err != nil {
			writeInternal(w, r, "error creating homeowner", err)
			return
		}

		slog.Info("homeowner created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, response.WithData(MsgCreated, created))
	}
}

// GetByID handles GET /homeowners/{id} and answers the bare record.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		slog.Info("getting a homeowner", slog.String("id", id))

		homeowner, err := store.GetHomeownerByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(MsgNotFound))
			return
		}
		if err != nil {
			writeInternal(w, r, "error getting homeowner", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, homeowner)
	}
}

// Search handles GET /homeowners/search?name=&address=
// Both parameters are case-insensitive substrings; at least one is
// required (checked by middleware.ValidateSearch).
func Search(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := types.Filter{Name: q.Get("name"), Address: q.Get("address")}
		slog.Info("searching homeowners",
			slog.String("name", filter.Name),
			slog.String("address", filter.Address))

		homeowners, err := store.GetHomeowners(r.Context(), filter)
		if err != nil {
			writeInternal(w, r, "error searching homeowners", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, homeowners)
	}
}

// GetList handles GET /homeowners
// Returns an empty array [] (not null) when there are no homeowners.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all homeowners")

		homeowners, err := store.GetHomeowners(r.Context(), types.Filter{})
		if err != nil {
			writeInternal(w, r, "error getting homeowners", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, homeowners)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /homeowners/{id}
//
// Any subset of name, dateofbirth and address may be sent. The age is
// recomputed when dateofbirth is sent, the geocoordinates when address is.
//
// Success response (200 OK):
//
//	{ "status": "ok", "message": "Homeowner updated successfully.", "data": {...} }
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage, enricher Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]
		slog.Info("updating a homeowner", slog.String("id", id))

		fields, err := xmlschema.ParseHomeowner(middleware.XMLBody(ctx))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(middleware.MsgInvalidXML))
			return
		}

		upd, err := fields.ForUpdate()
		if errors.Is(err, xmlschema.ErrNoFields) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgUpdateFields))
			return
		}
		if err != nil {
			writeFieldsError(w, MsgUpdateFields, err)
			return
		}

		if upd.DateOfBirth != nil {
			age := enricher.Age(*upd.DateOfBirth)
			upd.Age = &age
		}

		if upd.Address != nil {
			coords, err := enricher.Coordinates(ctx, *upd.Address)
			if err != nil {
				slog.Warn("geocoding failed",
					slog.String("id", id),
					slog.String("address", *upd.Address),
					slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(MsgNoCoordinates))
				return
			}
			upd.Geocoordinates = &coords
		}

		updated, err := store.UpdateHomeownerByID(ctx, id, upd)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(MsgNotFound))
			return
		case errors.Is(err, storage.ErrDuplicateName) && upd.Name != nil:
			writeConflict(w, r, store, *upd.Name)
			return
		case err != nil:
			writeInternal(w, r, "error updating homeowner", err)
			return
		}

		slog.Info("homeowner updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.WithData(MsgUpdated, updated))
	}
}

// Delete handles DELETE /homeowners/{id}
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		slog.Info("deleting a homeowner", slog.String("id", id))

		removed, err := store.DeleteHomeownerByID(r.Context(), id)
		if err != nil {
			writeInternal(w, r, "error deleting homeowner", err)
			return
		}
		if !removed {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(MsgNotFound))
			return
		}

		slog.Info("homeowner deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message(MsgDeleted))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteMany handles DELETE /homeowners
//
// Request body (XML):
//
//	<homeowner><ids>65a1...</ids><ids>65a2...</ids></homeowner>
//
// Repeated ids count once. Answers 404 when nothing was removed and a
// partial-success message when only some ids matched.
// ─────────────────────────────────────────────────────────────────────────────
func DeleteMany(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := xmlschema.ParseIDs(middleware.XMLBody(r.Context()))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(middleware.MsgInvalidXML))
			return
		}
		if len(ids) == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(MsgInvalidIDs))
			return
		}
		for _, id := range ids {
			if !storage.ValidID(id) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(middleware.MsgInvalidID))
				return
			}
		}

		ids = dedupe(ids)
		slog.Info("deleting homeowners", slog.Int("count", len(ids)))

		removed, err := store.DeleteHomeownersByIDs(r.Context(), ids)
		if err != nil {
			writeInternal(w, r, "error deleting homeowners", err)
			return
		}

		slog.Info("homeowners deleted",
			slog.Int("requested", len(ids)),
			slog.Int64("removed", removed))

		switch {
		case removed == 0:
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(MsgNoneFound))
		case removed < int64(len(ids)):
			response.WriteJSON(w, http.StatusOK, response.Message(MsgDeletedPartial))
		default:
			response.WriteJSON(w, http.StatusOK, response.Message(MsgDeletedMany))
		}
	}
}

// dedupe drops repeated ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
