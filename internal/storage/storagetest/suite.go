// Package storagetest holds the behaviour every storage.Storage backend
// must show. Backend packages run Suite from their own tests.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/homeowners-api/internal/storage"
	"github.com/aanand-mishra/homeowners-api/internal/types"
)

// Suite exercises a storage.Storage. Open must return an empty store.
type Suite struct {
	suite.Suite
	Open func() storage.Storage

	store storage.Storage
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.store = s.Open()
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	s.NoError(s.store.Close(s.ctx))
}

func (s *Suite) homeowner(name, address string) types.Homeowner {
	return types.Homeowner{
		Name:           name,
		DateOfBirth:    time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		Age:            34,
		Address:        address,
		Geocoordinates: types.NewCoordinates(4.8338857, 45.7634024),
	}
}

func (s *Suite) create(name, address string) types.Homeowner {
	h, err := s.store.CreateHomeowner(s.ctx, s.homeowner(name, address))
	s.Require().NoError(err)
	return h
}

// TestCreateAndLookups verifies ids are assigned and records read back intact.
func (s *Suite) TestCreateAndLookups() {
	created := s.create("John Doe", "11 Rue Grenette, Lyon")
	s.True(storage.ValidID(created.ID))

	s.Run("by id", func() {
		found, err := s.store.GetHomeownerByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
		s.Equal("John Doe", found.Name)
		s.Equal(34, found.Age)
		s.Equal("11 Rue Grenette, Lyon", found.Address)
		s.True(found.DateOfBirth.Equal(created.DateOfBirth))
		s.Equal(types.NewCoordinates(4.8338857, 45.7634024), found.Geocoordinates)
	})

	s.Run("by name", func() {
		found, err := s.store.GetHomeownerByName(s.ctx, "John Doe")
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("unknown id", func() {
		_, err := s.store.GetHomeownerByID(s.ctx, storage.NewID())
		s.ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("malformed id", func() {
		_, err := s.store.GetHomeownerByID(s.ctx, "not-an-id")
		s.ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("unknown name", func() {
		_, err := s.store.GetHomeownerByName(s.ctx, "john doe")
		s.ErrorIs(err, storage.ErrNotFound)
	})
}

// TestNameUniqueness verifies the store itself rejects duplicate names.
func (s *Suite) TestNameUniqueness() {
	s.create("John Doe", "Main St")

	_, err := s.store.CreateHomeowner(s.ctx, s.homeowner("John Doe", "Other St"))
	s.ErrorIs(err, storage.ErrDuplicateName)

	other := s.create("Jane Doe", "Other St")
	name := "John Doe"
	_, err = s.store.UpdateHomeownerByID(s.ctx, other.ID, types.HomeownerUpdate{Name: &name})
	s.ErrorIs(err, storage.ErrDuplicateName)
}

// TestSearch verifies case-insensitive substring matching on name and address.
func (s *Suite) TestSearch() {
	s.create("John Doe 1", "123 11 Rue Grenette, 69002 Lyon, France")
	s.create("John Doe 2", "456 Main St")
	s.create("Alice (Smith)", "789 main street")

	names := func(hs []types.Homeowner) []string {
		out := make([]string, 0, len(hs))
		for _, h := range hs {
			out = append(out, h.Name)
		}
		return out
	}

	s.Run("empty filter lists everything", func() {
		all, err := s.store.GetHomeowners(s.ctx, types.Filter{})
		s.Require().NoError(err)
		s.Len(all, 3)
	})

	s.Run("name only", func() {
		found, err := s.store.GetHomeowners(s.ctx, types.Filter{Name: "john"})
		s.Require().NoError(err)
		s.ElementsMatch([]string{"John Doe 1", "John Doe 2"}, names(found))
	})

	s.Run("address only", func() {
		found, err := s.store.GetHomeowners(s.ctx, types.Filter{Address: "MAIN"})
		s.Require().NoError(err)
		s.ElementsMatch([]string{"John Doe 2", "Alice (Smith)"}, names(found))
	})

	s.Run("name and address", func() {
		found, err := s.store.GetHomeowners(s.ctx, types.Filter{Name: "John", Address: "Main"})
		s.Require().NoError(err)
		s.Equal([]string{"John Doe 2"}, names(found))
	})

	s.Run("accented letters fold", func() {
		s.create("Élodie Müller", "2 Place Bellecour, Lyon")

		for _, q := range []string{"élodie", "ÉLODIE", "MÜLLER", "Élodie"} {
			found, err := s.store.GetHomeowners(s.ctx, types.Filter{Name: q})
			s.Require().NoError(err)
			s.Equal([]string{"Élodie Müller"}, names(found), q)
		}

		found, err := s.store.GetHomeowners(s.ctx, types.Filter{Address: "PLACE BELLECOUR"})
		s.Require().NoError(err)
		s.Equal([]string{"Élodie Müller"}, names(found))
	})

	s.Run("special characters are literal", func() {
		found, err := s.store.GetHomeowners(s.ctx, types.Filter{Name: "(smith)"})
		s.Require().NoError(err)
		s.Equal([]string{"Alice (Smith)"}, names(found))

		found, err = s.store.GetHomeowners(s.ctx, types.Filter{Name: ".*"})
		s.Require().NoError(err)
		s.Empty(found)
	})

	s.Run("no match is an empty, non-nil slice", func() {
		found, err := s.store.GetHomeowners(s.ctx, types.Filter{Name: "nobody"})
		s.Require().NoError(err)
		s.NotNil(found)
		s.Empty(found)
	})
}

// TestUpdate verifies only staged fields change.
func (s *Suite) TestUpdate() {
	created := s.create("John Doe", "Main St")

	s.Run("partial update", func() {
		address := "456 Updated St"
		coords := types.NewCoordinates(1.5, 2.5)
		updated, err := s.store.UpdateHomeownerByID(s.ctx, created.ID, types.HomeownerUpdate{
			Address:        &address,
			Geocoordinates: &coords,
		})
		s.Require().NoError(err)
		s.Equal(created.ID, updated.ID)
		s.Equal("John Doe", updated.Name)
		s.Equal(created.Age, updated.Age)
		s.True(updated.DateOfBirth.Equal(created.DateOfBirth))
		s.Equal(address, updated.Address)
		s.Equal(coords, updated.Geocoordinates)
	})

	s.Run("date of birth and age", func() {
		dob := time.Date(1991, time.February, 2, 0, 0, 0, 0, time.UTC)
		age := 33
		updated, err := s.store.UpdateHomeownerByID(s.ctx, created.ID, types.HomeownerUpdate{
			DateOfBirth: &dob,
			Age:         &age,
		})
		s.Require().NoError(err)
		s.True(updated.DateOfBirth.Equal(dob))
		s.Equal(33, updated.Age)
		s.Equal("456 Updated St", updated.Address)
	})

	s.Run("unknown id", func() {
		name := "Nobody"
		_, err := s.store.UpdateHomeownerByID(s.ctx, storage.NewID(), types.HomeownerUpdate{Name: &name})
		s.ErrorIs(err, storage.ErrNotFound)
	})
}

// TestDelete verifies single and bulk deletion counts.
func (s *Suite) TestDelete() {
	a := s.create("A", "Main St")
	b := s.create("B", "Main St")
	c := s.create("C", "Main St")

	removed, err := s.store.DeleteHomeownerByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.store.DeleteHomeownerByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.False(removed)

	count, err := s.store.DeleteHomeownersByIDs(s.ctx, []string{b.ID, storage.NewID(), c.ID})
	s.Require().NoError(err)
	s.EqualValues(2, count)

	count, err = s.store.DeleteHomeownersByIDs(s.ctx, []string{b.ID, c.ID})
	s.Require().NoError(err)
	s.EqualValues(0, count)

	all, err := s.store.GetHomeowners(s.ctx, types.Filter{})
	s.Require().NoError(err)
	s.Empty(all)
}
