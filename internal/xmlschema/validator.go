// Package xmlschema validates inbound XML write payloads and maps them
// onto homeowner fields.
//
// The XSD files under schemas/ are embedded into the binary and compiled
// once by New; a Validator is immutable afterwards and safe to share
// between requests.
package xmlschema

import (
	"embed"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
)

//go:embed schemas/*.xsd
var schemaFS embed.FS

// Kind selects which schema a payload must satisfy.
type Kind int

const (
	// KindCreate requires name, dateofbirth and address.
	KindCreate Kind = iota
	// KindUpdate accepts any subset of name, dateofbirth and address.
	KindUpdate
	// KindIDs is a list of ids elements, used by bulk deletion.
	KindIDs
)

var schemaFiles = map[Kind]string{
	KindCreate: "schemas/create.xsd",
	KindUpdate: "schemas/update.xsd",
	KindIDs:    "schemas/ids.xsd",
}

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindIDs:
		return "ids"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrInvalidContentType reports a write request whose body is not XML.
	ErrInvalidContentType = errors.New("invalid content type, expected XML")

	// ErrInvalidXML reports a body that does not parse or violates the schema.
	ErrInvalidXML = errors.New("invalid XML format")
)

// accepted media types for write bodies
var xmlMediaTypes = map[string]bool{
	"application/xml": true,
	"text/xml":        true,
}

// CheckContentType fails with ErrInvalidContentType unless header names
// one of the XML media types. Parameters such as charset are ignored.
func CheckContentType(header string) error {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || !xmlMediaTypes[strings.ToLower(mediaType)] {
		return fmt.Errorf("%w: %q", ErrInvalidContentType, header)
	}
	return nil
}

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[Kind]*xsd.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[Kind]*xsd.Schema, len(schemaFiles))}

	for kind, file := range schemaFiles {
		buf, err := schemaFS.ReadFile(file)
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("xmlschema.New: read %s: %w", file, err)
		}

		schema, err := xsd.Parse(buf)
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("xmlschema.New: compile %s: %w", file, err)
		}
		v.schemas[kind] = schema
	}

	return v, nil
}

// Validate parses body and checks it against the schema for kind.
// Every failure wraps ErrInvalidXML; the wrapped message lists the
// individual schema violations.
func (v *Validator) Validate(kind Kind, body []byte) error {
	schema, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("xmlschema: no schema for %s", kind)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidXML)
	}

	doc, err := libxml2.Parse(body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidXML, err.Error())
	}
	defer doc.Free()

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidXML, violations(err))
	}

	return nil
}

// Close frees the compiled schemas.
func (v *Validator) Close() {
	for kind, schema := range v.schemas {
		schema.Free()
		delete(v.schemas, kind)
	}
}

func violations(err error) string {
	var sve xsd.SchemaValidationError
	if !errors.As(err, &sve) {
		return err.Error()
	}

	msgs := make([]string, 0, len(sve.Errors()))
	for _, e := range sve.Errors() {
		msgs = append(msgs, strings.TrimSpace(e.Error()))
	}
	return strings.Join(msgs, "; ")
}
