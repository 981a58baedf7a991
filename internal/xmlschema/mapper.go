package xmlschema

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aanand-mishra/homeowners-api/internal/types"
	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html/charset"
)

var (
	// ErrInvalidFields wraps validator.ValidationErrors for payload fields
	// that are missing or malformed.
	ErrInvalidFields = errors.New("invalid homeowner fields")

	// ErrNoFields reports an update payload that supplies nothing.
	ErrNoFields = errors.New("name or dateofbirth or address is required")
)

// payload is the XML shape shared by every write. Repeated elements are
// collected so extraction can take the first one explicitly.
type payload struct {
	XMLName     xml.Name `xml:"homeowner"`
	Name        []string `xml:"name"`
	DateOfBirth []string `xml:"dateofbirth"`
	Address     []string `xml:"address"`
	IDs         []string `xml:"ids"`
}

// Fields are the raw values of a homeowner write, trimmed. An empty
// string means the element was absent or blank.
type Fields struct {
	Name        string `xml:"name"        validate:"required"`
	DateOfBirth string `xml:"dateofbirth" validate:"required,datetime=2006-01-02"`
	Address     string `xml:"address"     validate:"required"`
}

// updateFields relaxes Fields: every element is optional.
type updateFields struct {
	Name        string `xml:"name"`
	DateOfBirth string `xml:"dateofbirth" validate:"omitempty,datetime=2006-01-02"`
	Address     string `xml:"address"`
}

var validate = newFieldValidator()

// newFieldValidator reports fields by their XML element names.
func newFieldValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("xml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// decode reads a document already accepted by the schema. Declared
// encodings other than UTF-8 are transcoded, as libxml2 does.
func decode(body []byte) (payload, error) {
	var p payload
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&p); err != nil {
		return payload{}, fmt.Errorf("%w: %s", ErrInvalidXML, err.Error())
	}
	return p, nil
}

// first returns the first occurrence of an element, or "" when absent.
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// ParseHomeowner extracts name, dateofbirth and address from body.
func ParseHomeowner(body []byte) (Fields, error) {
	p, err := decode(body)
	if err != nil {
		return Fields{}, err
	}

	return Fields{
		Name:        first(p.Name),
		DateOfBirth: first(p.DateOfBirth),
		Address:     first(p.Address),
	}, nil
}

// ParseIDs extracts every ids element in document order.
func ParseIDs(body []byte) ([]string, error) {
	p, err := decode(body)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(p.IDs))
	for _, id := range p.IDs {
		ids = append(ids, strings.TrimSpace(id))
	}
	return ids, nil
}

// ForCreate requires all three fields and returns a homeowner with the
// supplied values. Derived fields are left zero.
func (f Fields) ForCreate() (types.Homeowner, error) {
	if err := validate.Struct(f); err != nil {
		return types.Homeowner{}, fieldsError(err)
	}

	dob, err := time.Parse(types.DateLayout, f.DateOfBirth)
	if err != nil {
		return types.Homeowner{}, fmt.Errorf("%w: %s", ErrInvalidFields, err.Error())
	}

	return types.Homeowner{
		Name:        f.Name,
		DateOfBirth: dob,
		Address:     f.Address,
	}, nil
}

// ForUpdate stages every supplied field. It fails with ErrNoFields only
// when all three are absent.
func (f Fields) ForUpdate() (types.HomeownerUpdate, error) {
	if f.Name == "" && f.DateOfBirth == "" && f.Address == "" {
		return types.HomeownerUpdate{}, ErrNoFields
	}

	if err := validate.Struct(updateFields(f)); err != nil {
		return types.HomeownerUpdate{}, fieldsError(err)
	}

	var upd types.HomeownerUpdate
	if f.Name != "" {
		name := f.Name
		upd.Name = &name
	}
	if f.DateOfBirth != "" {
		dob, err := time.Parse(types.DateLayout, f.DateOfBirth)
		if err != nil {
			return types.HomeownerUpdate{}, fmt.Errorf("%w: %s", ErrInvalidFields, err.Error())
		}
		upd.DateOfBirth = &dob
	}
	if f.Address != "" {
		address := f.Address
		upd.Address = &address
	}

	return upd, nil
}

func fieldsError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidFields, verrs)
	}
	return fmt.Errorf("%w: %s", ErrInvalidFields, err.Error())
}
