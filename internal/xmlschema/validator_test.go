package xmlschema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ValidatorSuite struct {
	suite.Suite
	v *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupSuite() {
	v, err := New()
	s.Require().NoError(err)
	s.v = v
}

func (s *ValidatorSuite) TearDownSuite() {
	s.v.Close()
}

func (s *ValidatorSuite) TestCreateSchema() {
	s.Run("accepts a complete homeowner", func() {
		body := `
			<homeowner>
				<name>John Doe</name>
				<dateofbirth>1990-01-01</dateofbirth>
				<address>11 Rue Grenette, Lyon</address>
			</homeowner>`
		s.NoError(s.v.Validate(KindCreate, []byte(body)))
	})

	s.Run("accepts elements in any order", func() {
		body := `<homeowner><address>Main St</address><name>Jane</name><dateofbirth>1985-06-30</dateofbirth></homeowner>`
		s.NoError(s.v.Validate(KindCreate, []byte(body)))
	})

	s.Run("rejects a missing address", func() {
		body := `<homeowner><name>John Doe</name><dateofbirth>1990-01-01</dateofbirth></homeowner>`
		s.ErrorIs(s.v.Validate(KindCreate, []byte(body)), ErrInvalidXML)
	})

	s.Run("rejects a blank name", func() {
		body := `<homeowner><name>   </name><dateofbirth>1990-01-01</dateofbirth><address>Main St</address></homeowner>`
		s.ErrorIs(s.v.Validate(KindCreate, []byte(body)), ErrInvalidXML)
	})

	s.Run("rejects a malformed date", func() {
		body := `<homeowner><name>John</name><dateofbirth>yesterday</dateofbirth><address>Main St</address></homeowner>`
		s.ErrorIs(s.v.Validate(KindCreate, []byte(body)), ErrInvalidXML)
	})

	s.Run("rejects an unknown root", func() {
		body := `<owner><name>John</name><dateofbirth>1990-01-01</dateofbirth><address>Main St</address></owner>`
		s.ErrorIs(s.v.Validate(KindCreate, []byte(body)), ErrInvalidXML)
	})

	s.Run("rejects unparsable XML", func() {
		s.ErrorIs(s.v.Validate(KindCreate, []byte(`<homeowner><name>John`)), ErrInvalidXML)
	})

	s.Run("rejects an empty body", func() {
		s.ErrorIs(s.v.Validate(KindCreate, nil), ErrInvalidXML)
	})
}

func (s *ValidatorSuite) TestUpdateSchema() {
	s.NoError(s.v.Validate(KindUpdate, []byte(`<homeowner><address>456 Updated St</address></homeowner>`)))
	s.NoError(s.v.Validate(KindUpdate, []byte(`<homeowner/>`)))
	s.ErrorIs(s.v.Validate(KindUpdate, []byte(`<homeowner><age>3</age></homeowner>`)), ErrInvalidXML)
}

func (s *ValidatorSuite) TestIDsSchema() {
	body := `<homeowner><ids>65a1f0c2e4b0a1b2c3d4e5f6</ids><ids>65a1f0c2e4b0a1b2c3d4e5f7</ids></homeowner>`
	s.NoError(s.v.Validate(KindIDs, []byte(body)))
	s.ErrorIs(s.v.Validate(KindIDs, []byte(`<homeowner><name>x</name></homeowner>`)), ErrInvalidXML)
}

func TestCheckContentType(t *testing.T) {
	for _, header := range []string{"application/xml", "text/xml", "application/xml; charset=utf-8", "Text/XML"} {
		require.NoError(t, CheckContentType(header), header)
	}
	for _, header := range []string{"", "application/json", "text/plain", "application/xhtml+xml", ";;"} {
		require.ErrorIs(t, CheckContentType(header), ErrInvalidContentType, header)
	}
}
