package httpd

import (
	"path/filepath"
	"strings"

	"github.com/corvane-labs/httpd/jsonvalue"
)

// Response is mutable and built up by middleware and the handler. Exactly
// one of an inline Payload or a FilePath is emitted; Content-Length is
// always computed by the serialiser at send time, never trusted from the
// caller.
type Response struct {
	StatusCode int
	Protocol   string
	Payload    []byte
	Headers    map[string]string

	IsFileResponse bool
	FilePath       string
}

// NewResponse returns a Response with the documented defaults: status 200,
// HTTP/1.1, and no headers set (the serialiser fills in Content-Type and
// Connection if the caller never set them).
func NewResponse() *Response {
	return &Response{
		StatusCode: 200,
		Protocol:   "HTTP/1.1",
		Headers:    make(map[string]string),
	}
}

// Status sets the status code and returns the Response for chaining.
func (r *Response) Status(code int) *Response {
	r.StatusCode = code
	return r
}

// SetProtocol overrides the response's protocol line token.
func (r *Response) SetProtocol(protocol string) *Response {
	r.Protocol = protocol
	return r
}

// SetHeader sets a response header and returns the Response for chaining.
func (r *Response) SetHeader(key, value string) *Response {
	r.Headers[key] = value
	return r
}

// Send sets the response payload to the given plain-text data.
func (r *Response) Send(data string) *Response {
	r.Payload = []byte(data)
	r.IsFileResponse = false
	return r
}

// SendBytes sets the response payload to raw bytes.
func (r *Response) SendBytes(data []byte) *Response {
	r.Payload = data
	r.IsFileResponse = false
	return r
}

// JSON serialises v and sets it as the payload, with Content-Type
// application/json.
func (r *Response) JSON(v jsonvalue.Value) *Response {
	r.Payload = []byte(v.Stringify())
	r.Headers["Content-Type"] = "application/json"
	r.IsFileResponse = false
	return r
}

// mimeTypes is the built-in extension table; anything else defaults to
// application/octet-stream.
var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".mp4":  "video/mp4",
}

func mimeTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// SendFile marks the response as a streamed file response, to be opened
// only at send time. Sets Content-Type from the built-in MIME table and a
// Content-Disposition: inline header.
func (r *Response) SendFile(path string) *Response {
	r.FilePath = path
	r.IsFileResponse = true
	r.Headers["Content-Type"] = mimeTypeFor(path)
	r.Headers["Content-Disposition"] = `inline; filename="` + filepath.Base(path) + `"`
	return r
}

// Download is SendFile but with Content-Disposition: attachment, prompting
// a browser to save rather than render the file.
func (r *Response) Download(path string) *Response {
	r.FilePath = path
	r.IsFileResponse = true
	r.Headers["Content-Type"] = mimeTypeFor(path)
	r.Headers["Content-Disposition"] = `attachment; filename="` + filepath.Base(path) + `"`
	return r
}

// sendErrorResponse wraps a JSON object {"message": "<reason phrase>"}
// around res's current status code, as the original sendErrorResponse did.
func sendErrorResponse(res *Response) {
	msg := jsonvalue.Object().Set("message", jsonvalue.String(statusCodeWord(res.StatusCode)))
	res.JSON(msg)
}
