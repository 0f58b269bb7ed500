package httpd

import (
	"bufio"
	"errors"
	"net"
	"strings"
)

// ingressItem is handed from a connection's receiver goroutine to the
// worker pool. errCode, when non-zero, means the worker should skip
// routing entirely and answer with the carried status code and body.
type ingressItem struct {
	req     *Request
	conn    net.Conn
	resume  chan struct{}
	errCode int
	errBody string
}

// acceptLoop is the sole acceptor goroutine: it owns the listener and
// spawns one receiver goroutine per accepted connection, matching spec.md
// §5's "one acceptor... one receiver per connection."
func (s *Server) acceptLoop(ln net.Listener, ingress chan<- ingressItem) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			continue
		}
		go s.receive(conn, ingress)
	}
}

// receive owns conn and its socketBuffer (the bufio.Reader) exclusively
// for its whole lifetime: no other goroutine ever touches this
// connection's read side. After handing off a parsed request it parks on
// resume until the dispatcher signals it, re-arming the read exactly once
// the previous response has gone out — this is the Go realization of
// spec.md §9's "Receiver exclusively owns SocketBuffers" re-architecture
// note, one goroutine standing in for one scoped-acquisition guard.
func (s *Server) receive(conn net.Conn, ingress chan<- ingressItem) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for {
		req, err := readRequest(reader, s.maxHeaderSize)
		resume := make(chan struct{})

		if err != nil {
			var pe *parseError
			if errors.As(err, &pe) {
				ingress <- ingressItem{conn: conn, resume: resume, errCode: pe.status, errBody: pe.body}
				<-resume
				return
			}
			return
		}

		ingress <- ingressItem{req: req, conn: conn, resume: resume}
		<-resume
	}
}

// connectionWantsClose reports whether req's Connection header (or its
// protocol version defaulting HTTP/1.0 to close) requests the connection
// be closed after this response.
func connectionWantsClose(req *Request) bool {
	conn := strings.ToLower(req.Header("Connection"))
	if conn == "close" {
		return true
	}
	if conn == "keep-alive" {
		return false
	}
	return req.Protocol != "HTTP/1.1"
}
