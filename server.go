package httpd

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvane-labs/httpd/router"
)

// Server is an embeddable HTTP/1.1 application server. The zero value is
// not usable; construct one with NewServer.
type Server struct {
	mu     sync.Mutex
	tries  map[string]*router.Trie
	routes map[string]*pipeline

	globalMW []Middleware
	cors     *CorsConfig

	threads       int
	maxHeaderSize int
	writeTimeout  time.Duration

	logger   zerolog.Logger
	listener net.Listener
}

// NewServer returns a Server ready for route registration. Threads
// defaults to 1, matching spec.md's documented default worker count.
func NewServer() *Server {
	return &Server{
		tries:        make(map[string]*router.Trie),
		routes:       make(map[string]*pipeline),
		threads:      1,
		writeTimeout: 30 * time.Second,
		logger:       zerolog.Nop(),
	}
}

// SetLogger installs the logger the server and its stages write
// diagnostics through, overriding the no-op default.
func (s *Server) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Use registers mw as a global middleware, run ahead of a route's own
// middleware, in registration order. Each route takes its global
// middleware list when it is registered, so mw runs only for routes
// registered after this call.
func (s *Server) Use(mw Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalMW = append(s.globalMW, mw)
}

// SetThreads sets the worker pool size. Must be called before InitServer.
func (s *Server) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	s.threads = n
}

// SetMaxHeaderSize bounds the combined bytes of the request line and
// headers accepted per request; zero (the default) means unbounded.
func (s *Server) SetMaxHeaderSize(n int) {
	s.maxHeaderSize = n
}

// SetWriteTimeout bounds how long the dispatcher will block writing a
// single response (including each file-streaming chunk) before giving up
// and closing the connection, mitigating a slow reader pinning the
// dispatcher indefinitely.
func (s *Server) SetWriteTimeout(d time.Duration) {
	s.writeTimeout = d
}

// CreateCorsConfig runs configure against a fresh CorsConfig, validates it,
// and installs it as the server's CORS policy. It returns an error rather
// than panicking because a bad CORS configuration is a startup-time
// failure the embedder should be able to handle gracefully.
func (s *Server) CreateCorsConfig(configure func(*CorsConfig)) error {
	cfg := CreateCorsConfig()
	configure(cfg)
	if cfg.allowAllOrigins && cfg.withCredentials {
		return fmt.Errorf("httpd: CORS config allows origin \"*\" together with credentials, which is never valid")
	}
	s.mu.Lock()
	s.cors = cfg
	s.mu.Unlock()
	return nil
}

func (s *Server) register(method, pattern string, handler Handler, opts ...RouteOption) {
	r := &route{}
	for _, opt := range opts {
		opt(r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tries[method] == nil {
		s.tries[method] = router.New()
	}
	s.tries[method].Add(pattern)
	stages := make([]Middleware, 0, len(s.globalMW)+len(r.middlewares))
	stages = append(stages, s.globalMW...)
	stages = append(stages, r.middlewares...)
	s.routes[method+"::"+pattern] = &pipeline{stages: stages, handler: handler}
}

func (s *Server) GET(pattern string, handler Handler, opts ...RouteOption) {
	s.register("GET", pattern, handler, opts...)
}

func (s *Server) POST(pattern string, handler Handler, opts ...RouteOption) {
	s.register("POST", pattern, handler, opts...)
}

func (s *Server) PUT(pattern string, handler Handler, opts ...RouteOption) {
	s.register("PUT", pattern, handler, opts...)
}

func (s *Server) PATCH(pattern string, handler Handler, opts ...RouteOption) {
	s.register("PATCH", pattern, handler, opts...)
}

func (s *Server) DELETE(pattern string, handler Handler, opts ...RouteOption) {
	s.register("DELETE", pattern, handler, opts...)
}

// resolve matches method+path against the registered routes for method,
// populating PathParameters on req when a route matches.
func (s *Server) resolve(req *Request) (*pipeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trie := s.tries[req.Method]
	if trie == nil {
		return nil, false
	}
	params, normalised, ok := trie.Match(req.Path)
	if !ok {
		return nil, false
	}
	req.PathParameters = params
	p, ok := s.routes[req.Method+"::"+normalised]
	return p, ok
}

// ServerOption configures a Server at InitServer time.
type ServerOption func(*serverConfig)

type serverConfig struct {
	address  string
	listener net.Listener
}

// WithAddress overrides the default bind address ("0.0.0.0").
func WithAddress(host string) ServerOption {
	return func(c *serverConfig) { c.address = host }
}

// WithListener supplies a pre-built net.Listener for InitServer to serve on
// instead of binding one itself, letting an embedder control the socket's
// address family, type, or any other net.Listen option Go's net package
// doesn't expose as a bare host/port pair (e.g. a unix socket, or a listener
// obtained from systemd socket activation). When set, port and WithAddress
// are ignored.
func WithListener(ln net.Listener) ServerOption {
	return func(c *serverConfig) { c.listener = ln }
}

// InitServer binds to port, spawns the worker pool, the dispatcher, and
// the accept loop, invokes onListen once the listener is live, and then
// blocks serving connections until the listener is closed.
func (s *Server) InitServer(port int, onListen func(), opts ...ServerOption) error {
	cfg := &serverConfig{address: "0.0.0.0"}
	for _, opt := range opts {
		opt(cfg)
	}

	ln := cfg.listener
	if ln == nil {
		addr := net.JoinHostPort(cfg.address, strconv.Itoa(port))
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("httpd: listen %s: %w", addr, err)
		}
	}
	s.listener = ln

	ingress := make(chan ingressItem, s.threads*4)
	egress := make(chan egressItem, s.threads*4)

	for i := 0; i < s.threads; i++ {
		go s.runWorker(ingress, egress)
	}
	go s.runDispatcher(egress)

	if onListen != nil {
		onListen()
	}

	return s.acceptLoop(ln, ingress)
}

// Close stops the accept loop by closing the underlying listener;
// connections that were already accepted are not closed and keep being
// served.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
