// Package storage defines the Storage interface, the contract every
// persistence backend must satisfy to serve the homeowner handlers.
//
// Handlers depend only on this interface. Switching between the MongoDB
// and SQLite backends is a configuration change; tests can use either.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/homeowners-api/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound reports that no homeowner matches the given id or name.
	ErrNotFound = errors.New("homeowner not found")

	// ErrDuplicateName reports a write rejected by the unique name index.
	ErrDuplicateName = errors.New("homeowner name already exists")
)

// Storage is the persistence contract for homeowner records.
//
// Every method other than Close returns ErrNotFound or ErrDuplicateName
// where documented; any other error is an I/O or connectivity failure,
// wrapped with the name of the operation.
type Storage interface {
	// GetHomeownerByID fetches a single record. ErrNotFound if absent.
	GetHomeownerByID(ctx context.Context, id string) (types.Homeowner, error)

	// GetHomeowners returns the records matching filter. The result is
	// never nil, so it always encodes as a JSON array.
	GetHomeowners(ctx context.Context, filter types.Filter) ([]types.Homeowner, error)

	// GetHomeownerByName looks a record up by exact name. ErrNotFound if absent.
	GetHomeownerByName(ctx context.Context, name string) (types.Homeowner, error)

	// CreateHomeowner assigns a new id and persists h.
	CreateHomeowner(ctx context.Context, h types.Homeowner) (types.Homeowner, error)

	// UpdateHomeownerByID merges the staged fields and returns the record
	// as stored after the update.
	UpdateHomeownerByID(ctx context.Context, id string, upd types.HomeownerUpdate) (types.Homeowner, error)

	// DeleteHomeownerByID reports whether a record was removed.
	DeleteHomeownerByID(ctx context.Context, id string) (bool, error)

	// DeleteHomeownersByIDs removes every matching record and returns how
	// many were removed.
	DeleteHomeownersByIDs(ctx context.Context, ids []string) (int64, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// NewID returns a fresh identifier. Both backends use MongoDB ObjectID
// hex strings so ids look the same regardless of the configured driver.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
