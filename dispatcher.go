package httpd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const fileChunkSize = 8 * 1024

// runDispatcher is the single dispatcher goroutine. It is the only writer
// for every connection in the server and the only place that decides
// close-vs-resume, and it makes that decision strictly after the write
// completes — by construction this rules out the keep-alive race named in
// spec.md §9 open question 4.
func (s *Server) runDispatcher(egress <-chan egressItem) {
	for item := range egress {
		s.dispatch(item)
	}
}

func (s *Server) dispatch(item egressItem) {
	conn := item.conn
	res := item.res

	if item.resume == nil {
		return
	}

	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}

	forceClose := item.forceClose
	if item.req != nil && connectionWantsClose(item.req) {
		forceClose = true
	}

	connectionHeader := "keep-alive"
	if forceClose {
		connectionHeader = "close"
	}
	if _, set := res.Headers["Connection"]; !set {
		res.Headers["Connection"] = connectionHeader
	} else {
		forceClose = forceClose || res.Headers["Connection"] == "close"
	}

	err := s.writeResponse(conn, res)
	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Time{})
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("write response failed")
		forceClose = true
	}

	if forceClose {
		conn.Close()
	}
	close(item.resume)
}

func (s *Server) writeResponse(w io.Writer, res *Response) error {
	if res.IsFileResponse {
		return s.writeFileResponse(w, res)
	}

	headers := cloneHeaders(res.Headers)
	headers["Content-Length"] = strconv.Itoa(len(res.Payload))
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
	}

	if err := writeStatusLineAndHeaders(w, res, headers); err != nil {
		return err
	}
	_, err := w.Write(res.Payload)
	return err
}

func (s *Server) writeFileResponse(w io.Writer, res *Response) error {
	f, err := os.Open(res.FilePath)
	if err != nil {
		notFound := NewResponse().Status(404).Send("File Not Found")
		notFound.Protocol = res.Protocol
		return s.writeResponse(w, notFound)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	headers := cloneHeaders(res.Headers)
	headers["Content-Length"] = strconv.FormatInt(info.Size(), 10)
	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = "application/octet-stream"
	}

	if err := writeStatusLineAndHeaders(w, res, headers); err != nil {
		return err
	}

	// The wrappers hide ReadFrom/WriteTo so the copy really goes through buf,
	// fileChunkSize bytes at a time.
	buf := make([]byte, fileChunkSize)
	_, err = io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{f}, buf)
	return err
}

func writeStatusLineAndHeaders(w io.Writer, res *Response, headers map[string]string) error {
	statusLine := fmt.Sprintf("%s %d %s\r\n", res.Protocol, res.StatusCode, statusCodeWord(res.StatusCode))
	if _, err := io.WriteString(w, statusLine); err != nil {
		return err
	}
	for k, v := range headers {
		if _, err := io.WriteString(w, k+": "+v+"\r\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

func cloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h)+2)
	for k, v := range h {
		out[k] = v
	}
	return out
}
