// Package types holds the shared data structures used across the
// application. Handlers, storage backends and the enrichment layer all
// import types without depending on each other.
package types

import "time"

// DateLayout is the only accepted wire format for a date of birth.
const DateLayout = "2006-01-02"

// Coordinates is a [longitude, latitude] pair. It encodes to a two-element
// JSON array, the shape returned by the geocoding provider.
type Coordinates [2]float64

// NewCoordinates builds a pair in provider order.
func NewCoordinates(lon, lat float64) Coordinates { return Coordinates{lon, lat} }

// Lon returns the longitude.
func (c Coordinates) Lon() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinates) Lat() float64 { return c[1] }

// Homeowner is the sole persisted entity.
//
// Age and Geocoordinates are derived: Age from DateOfBirth, Geocoordinates
// from Address. Both are recomputed whenever their source field is written.
type Homeowner struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	DateOfBirth    time.Time   `json:"dateOfBirth"`
	Age            int         `json:"age"`
	Address        string      `json:"address"`
	Geocoordinates Coordinates `json:"geocoordinates"`
}

// HomeownerUpdate carries the fields staged by an update. Nil fields are
// left untouched by the storage layer.
type HomeownerUpdate struct {
	Name           *string
	DateOfBirth    *time.Time
	Age            *int
	Address        *string
	Geocoordinates *Coordinates
}

// IsEmpty reports whether no field is staged.
func (u HomeownerUpdate) IsEmpty() bool {
	return u.Name == nil && u.DateOfBirth == nil && u.Age == nil &&
		u.Address == nil && u.Geocoordinates == nil
}

// Filter narrows a homeowner search. Each non-empty field is a
// case-insensitive substring match; an empty Filter matches every record.
type Filter struct {
	Name    string
	Address string
}
