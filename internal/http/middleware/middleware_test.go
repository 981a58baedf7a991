package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/homeowners-api/internal/metrics"
	"github.com/aanand-mishra/homeowners-api/internal/xmlschema"
)

// echo answers 204 and records what reached it.
type echo struct {
	called bool
	body   []byte
	reqID  string
}

func (e *echo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.called = true
	e.body = XMLBody(r.Context())
	e.reqID = GetRequestID(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func TestRequestID(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		next := &echo{}
		rec := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.True(t, next.called)
		assert.NotEmpty(t, next.reqID)
		assert.Equal(t, next.reqID, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		next := &echo{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", next.reqID)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestValidateID(t *testing.T) {
	next := &echo{}
	r := mux.NewRouter()
	r.Handle("/homeowners/{id}", ValidateID(next))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/homeowners/zzz", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Invalid ID format."}`, rec.Body.String())
	assert.False(t, next.called)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/homeowners/65a1b2c3d4e5f60718293a4b", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, next.called)
}

func TestValidateSearch(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", http.StatusBadRequest},
		{"?name=&address=", http.StatusBadRequest},
		{"?name=doe", http.StatusNoContent},
		{"?address=lyon", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ValidateSearch(&echo{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/homeowners/search"+tc.query, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestValidateXML(t *testing.T) {
	v, err := xmlschema.New()
	require.NoError(t, err)
	t.Cleanup(v.Close)

	valid := "<homeowner><ids>65a1b2c3d4e5f60718293a4b</ids></homeowner>"

	serve := func(contentType, body string) (*httptest.ResponseRecorder, *echo) {
		next := &echo{}
		req := httptest.NewRequest(http.MethodDelete, "/homeowners", strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		ValidateXML(v, xmlschema.KindIDs)(next).ServeHTTP(rec, req)
		return rec, next
	}

	t.Run("accepted body reaches the handler", func(t *testing.T) {
		rec, next := serve("application/xml", valid)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, valid, string(next.body))
	})

	t.Run("content type", func(t *testing.T) {
		rec, next := serve("application/json", valid)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), MsgInvalidContentType)
		assert.False(t, next.called)
	})

	t.Run("schema violation", func(t *testing.T) {
		rec, next := serve("text/xml", "<homeowner><name>x</name></homeowner>")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), MsgInvalidXML)
		assert.False(t, next.called)
	})

	t.Run("oversized body", func(t *testing.T) {
		huge := "<homeowner>" + strings.Repeat("<ids>x</ids>", MaxBodyBytes/10) + "</homeowner>"
		rec, next := serve("application/xml", huge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.False(t, next.called)
	})
}

func TestXMLBodyAbsent(t *testing.T) {
	assert.Nil(t, XMLBody(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestLoggingRecordsRouteTemplate(t *testing.T) {
	m := metrics.New(nil)

	r := mux.NewRouter()
	r.Use(Logging(m))
	r.Handle("/homeowners/{id}", &echo{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/homeowners/65a1b2c3d4e5f60718293a4b", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequests.WithLabelValues("/homeowners/{id}", http.MethodGet, "204")))
}
