package xmlschema

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHomeownerTakesFirstOccurrence(t *testing.T) {
	body := `
		<homeowner>
			<name> John Doe </name>
			<name>Ignored</name>
			<dateofbirth>1990-01-01</dateofbirth>
			<address>11 Rue Grenette, Lyon</address>
		</homeowner>`

	f, err := ParseHomeowner([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, Fields{Name: "John Doe", DateOfBirth: "1990-01-01", Address: "11 Rue Grenette, Lyon"}, f)
}

func TestParseHomeownerDeclaredEncoding(t *testing.T) {
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<homeowner><name>\xc9lodie M\xfcller</name><dateofbirth>1990-01-01</dateofbirth>" +
		"<address>2 Place Bellecour, Lyon</address></homeowner>"

	v, err := New()
	require.NoError(t, err)
	t.Cleanup(v.Close)
	require.NoError(t, v.Validate(KindCreate, []byte(body)))

	f, err := ParseHomeowner([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Élodie Müller", f.Name)
}

func TestParseHomeownerRejectsOtherRoot(t *testing.T) {
	_, err := ParseHomeowner([]byte(`<person><name>x</name></person>`))
	require.ErrorIs(t, err, ErrInvalidXML)
}

func TestForCreate(t *testing.T) {
	t.Run("complete payload", func(t *testing.T) {
		h, err := Fields{Name: "John Doe", DateOfBirth: "1990-01-01", Address: "Main St"}.ForCreate()
		require.NoError(t, err)
		assert.Equal(t, "John Doe", h.Name)
		assert.Equal(t, "Main St", h.Address)
		assert.True(t, h.DateOfBirth.Equal(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.Empty(t, h.ID)
	})

	t.Run("missing fields are all reported", func(t *testing.T) {
		_, err := Fields{Name: "John Doe"}.ForCreate()
		require.ErrorIs(t, err, ErrInvalidFields)

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		assert.ElementsMatch(t, []string{"dateofbirth", "address"}, fields)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := Fields{Name: "John", DateOfBirth: "01/01/1990", Address: "Main St"}.ForCreate()
		require.ErrorIs(t, err, ErrInvalidFields)
	})
}

func TestForUpdate(t *testing.T) {
	t.Run("nothing supplied", func(t *testing.T) {
		_, err := Fields{}.ForUpdate()
		require.ErrorIs(t, err, ErrNoFields)
	})

	t.Run("address only", func(t *testing.T) {
		upd, err := Fields{Address: "456 Updated St"}.ForUpdate()
		require.NoError(t, err)
		require.NotNil(t, upd.Address)
		assert.Equal(t, "456 Updated St", *upd.Address)
		assert.Nil(t, upd.Name)
		assert.Nil(t, upd.DateOfBirth)
		assert.Nil(t, upd.Age)
		assert.Nil(t, upd.Geocoordinates)
	})

	t.Run("date of birth", func(t *testing.T) {
		upd, err := Fields{DateOfBirth: "1991-02-02"}.ForUpdate()
		require.NoError(t, err)
		require.NotNil(t, upd.DateOfBirth)
		assert.Equal(t, "1991-02-02", upd.DateOfBirth.Format("2006-01-02"))
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := Fields{Name: "x", DateOfBirth: "not-a-date"}.ForUpdate()
		require.ErrorIs(t, err, ErrInvalidFields)
	})
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]byte(`<homeowner><ids> a </ids><ids>b</ids></homeowner>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = ParseIDs([]byte(`<homeowner/>`))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
