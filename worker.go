package httpd

import "net"

// egressItem carries a fully-built Response back to the single dispatcher
// goroutine, which owns the write side of the connection.
type egressItem struct {
	req        *Request
	res        *Response
	conn       net.Conn
	resume     chan struct{}
	forceClose bool
}

// runWorker pulls ingressItems and produces egressItems. A panic in a
// route's middleware or handler is recovered by the route pipeline, and any
// other panic during handling is recovered (and logged) in handle, so one
// bad request can never take the worker goroutine down; the pool size is
// fixed at InitServer time via SetThreads.
func (s *Server) runWorker(ingress <-chan ingressItem, egress chan<- egressItem) {
	for item := range ingress {
		if item.errCode != 0 {
			res := NewResponse().Status(item.errCode).Send(item.errBody)
			egress <- egressItem{req: nil, res: res, conn: item.conn, resume: item.resume, forceClose: true}
			continue
		}
		res := s.handle(item.req)
		egress <- egressItem{req: item.req, res: res, conn: item.conn, resume: item.resume}
	}
}

func (s *Server) handle(req *Request) *Response {
	res := NewResponse()

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Str("request_id", req.RequestID).
				Interface("panic", rec).
				Msg("handler panicked")
			res.Status(500).Send("Internal Server Error")
		}
	}()

	if s.cors != nil {
		closed := false
		corsMiddleware(s.cors)(req, res, func() { closed = true })
		if !closed {
			return res
		}
	}

	p, ok := s.resolve(req)
	if !ok {
		res.Status(404).Send("Not found")
		return res
	}

	p.run(req, res)
	return res
}
