package httpd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CRLF is the line terminator mandated by RFC 7230; a bare "\n" is also
// accepted when splitting header lines, the same leniency the original
// parser had.
const crlf = "\r\n"

// parseError distinguishes a malformed request (which is answered with a
// response carrying status/body, after which the connection is closed)
// from a transport-level error (EOF, reset, timeout), which closes the
// connection without a response.
type parseError struct {
	status int
	body   string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("malformed request: %d", e.status)
}

// readRequest reads exactly one HTTP/1.1 request off reader. maxHeaderSize
// bounds the total bytes consumed by the request line and headers, per
// SetMaxHeaderSize; a request exceeding it fails with 400 "Header size
// exceeded", matching the original parser's
// res.status(400)->send("Header size exceeded").
func readRequest(reader *bufio.Reader, maxHeaderSize int) (*Request, error) {
	headerBytes := 0

	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	headerBytes += len(line)
	if maxHeaderSize > 0 && headerBytes > maxHeaderSize {
		return nil, &parseError{status: 400, body: "Header size exceeded"}
	}

	parts := strings.Fields(line)
	if len(parts) != 3 {
		return nil, &parseError{status: 400, body: "Bad Request"}
	}

	req := newRequest()
	req.Method = parts[0]
	req.URL = parts[1]
	req.Protocol = parts[2]
	req.Path, req.QueryParameters = parseQuery(req.URL)
	req.RequestID = uuid.New().String()

	for {
		line, err = reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		headerBytes += len(line)
		if maxHeaderSize > 0 && headerBytes > maxHeaderSize {
			return nil, &parseError{status: 400, body: "Header size exceeded"}
		}
		trimmed := strings.Trim(line, crlf)
		if trimmed == "" {
			break
		}
		kv := strings.SplitN(trimmed, ":", 2)
		if len(kv) != 2 {
			return nil, &parseError{status: 400, body: "Bad Request"}
		}
		req.Headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}

	if te := req.Headers["Transfer-Encoding"]; strings.Contains(strings.ToLower(te), "chunked") {
		return nil, &parseError{status: 501, body: "Not Implemented"}
	}

	if clStr, ok := req.Headers["Content-Length"]; ok {
		length, err := strconv.Atoi(clStr)
		if err != nil || length < 0 {
			return nil, &parseError{status: 400, body: "Bad Request"}
		}
		if length > 0 {
			bodyBytes := make([]byte, length)
			if _, err := io.ReadFull(reader, bodyBytes); err != nil {
				return nil, err
			}
			req.Payload = string(bodyBytes)
		}
	}

	return req, nil
}
