package httpd

import "github.com/corvane-labs/httpd/jsonvalue"

// Request represents a parsed HTTP/1.1 request. It is immutable after
// parsing except for Body (populated by a body-parsing middleware such as
// JSONBodyParser) and whatever attributes a middleware chooses to stash by
// mutating its exported fields directly.
type Request struct {
	Method   string
	URL      string // raw request target as received, including any query string
	Path     string // URL with the query string stripped
	Protocol string

	// Payload is the raw body as received on the wire.
	Payload string

	QueryParameters map[string]string
	PathParameters  map[string]string

	// Headers is case-sensitive, as received; values are trimmed of
	// surrounding whitespace. Duplicate header lines: last one wins.
	Headers map[string]string

	// Body holds the structured request body once a body-parsing
	// middleware (JSONBodyParser, URLEncodedBodyParser) has run. It
	// defaults to jsonvalue.Null().
	Body jsonvalue.Value

	// RequestID correlates this request's log lines; it never appears on
	// the wire and has no effect on routing, CORS, or serialization.
	RequestID string
}

// Header returns the value stored for key, or "" if absent. It is a
// case-sensitive lookup, matching how Headers is populated.
func (r *Request) Header(key string) string {
	return r.Headers[key]
}

func newRequest() *Request {
	return &Request{
		Protocol:        "HTTP/1.1",
		QueryParameters: make(map[string]string),
		PathParameters:  make(map[string]string),
		Headers:         make(map[string]string),
		Body:            jsonvalue.Null(),
	}
}
