// Package enrichment derives the computed homeowner fields: the age from
// the date of birth, and the geocoordinates from the address through an
// external geocoding provider.
package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/aanand-mishra/homeowners-api/internal/metrics"
	"github.com/aanand-mishra/homeowners-api/internal/types"
)

var (
	// ErrNoCoordinates reports that the provider answered without a result.
	ErrNoCoordinates = errors.New("no coordinates found for address")

	// ErrGeocodeUnavailable reports a transport failure, a timeout or an
	// unusable answer from the provider.
	ErrGeocodeUnavailable = errors.New("geocoding provider unavailable")
)

// Geocoder resolves an address to a [lon, lat] pair.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Coordinates, error)
}

// Service computes the derived fields of a homeowner.
type Service struct {
	geocoder Geocoder
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now as the reference for age computation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records every lookup in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New returns a Service resolving addresses with geocoder.
func New(geocoder Geocoder, opts ...Option) *Service {
	s := &Service{geocoder: geocoder, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Age returns the age of someone born on dob, as of now.
func (s *Service) Age(dob time.Time) int {
	return Age(dob, s.now())
}

// Coordinates resolves address. Failures wrap ErrNoCoordinates or
// ErrGeocodeUnavailable.
func (s *Service) Coordinates(ctx context.Context, address string) (types.Coordinates, error) {
	start := time.Now()
	c, err := s.geocoder.Geocode(ctx, address)

	if s.metrics != nil {
		outcome := metrics.GeocodeOK
		switch {
		case errors.Is(err, ErrNoCoordinates):
			outcome = metrics.GeocodeNoResult
		case err != nil:
			outcome = metrics.GeocodeError
		}
		s.metrics.ObserveGeocode(outcome, time.Since(start))
	}

	if err != nil {
		if !errors.Is(err, ErrNoCoordinates) && !errors.Is(err, ErrGeocodeUnavailable) {
			return types.Coordinates{}, errors.Join(ErrGeocodeUnavailable, err)
		}
		return types.Coordinates{}, err
	}
	return c, nil
}

// Age returns the number of whole years between dob and asOf. The
// current year only counts once its birthday has been reached.
func Age(dob, asOf time.Time) int {
	asOf = asOf.In(dob.Location())

	years := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() ||
		(asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		years--
	}
	return years
}
