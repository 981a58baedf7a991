package mongo

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aanand-mishra/homeowners-api/internal/types"
)

func TestDocumentRoundTrip(t *testing.T) {
	h := types.Homeowner{
		Name:           "John Doe",
		DateOfBirth:    time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		Age:            36,
		Address:        "11 Rue Grenette, Lyon",
		Geocoordinates: types.NewCoordinates(4.8338857, 45.7634024),
	}

	doc := toDocument(h)
	assert.Equal(t, []float64{4.8338857, 45.7634024}, doc.Geocoordinates)
	assert.True(t, doc.ID.IsZero())

	back := doc.homeowner()
	h.ID = doc.ID.Hex()
	assert.Equal(t, h, back)
}

func TestSubstringIsLiteralAndCaseInsensitive(t *testing.T) {
	r := substring("a.b (c)")
	assert.Equal(t, "i", r.Options)

	re := regexp.MustCompile("(?i)" + r.Pattern)
	assert.True(t, re.MatchString("xx A.B (C) yy"))
	assert.False(t, re.MatchString("aXb (c)"))
}
