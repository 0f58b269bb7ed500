package httpd

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

func startTestServer(t *testing.T, configure func(*Server)) string {
	t.Helper()
	s := NewServer()
	configure(s)

	ready := make(chan string, 1)
	go func() {
		err := s.InitServer(0, func() {
			ready <- s.listener.Addr().String()
		})
		if err != nil {
			t.Logf("server stopped: %v", err)
		}
	}()
	t.Cleanup(func() { s.Close() })

	select {
	case addr := <-ready:
		return addr
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
		return ""
	}
}

func rawRequest(t *testing.T, addr, req string) (status string, headers map[string]string, body string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write: %v", err)
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	status = strings.TrimSpace(statusLine)

	headers = make(map[string]string)
	contentLength := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		trimmed := strings.Trim(line, "\r\n")
		if trimmed == "" {
			break
		}
		kv := strings.SplitN(trimmed, ":", 2)
		if len(kv) == 2 {
			headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	if cl, ok := headers["Content-Length"]; ok {
		fmt.Sscanf(cl, "%d", &contentLength)
	}
	buf := make([]byte, contentLength)
	if contentLength > 0 {
		if _, err := reader.Read(buf); err != nil {
			t.Fatalf("read body: %v", err)
		}
	}
	return status, headers, string(buf)
}

func TestServerRoutesWithPathParameters(t *testing.T) {
	addr := startTestServer(t, func(s *Server) {
		s.GET("/users/:id", func(req *Request, res *Response) {
			res.Send("user:" + req.PathParameters["id"])
		})
	})

	status, _, body := rawRequest(t, addr, "GET /users/42 HTTP/1.1\r\nConnection: close\r\n\r\n")
	if status != "HTTP/1.1 200 OK" {
		t.Errorf("status = %q", status)
	}
	if body != "user:42" {
		t.Errorf("body = %q", body)
	}
}

func TestServerReturns404ForUnknownRoute(t *testing.T) {
	addr := startTestServer(t, func(s *Server) {
		s.GET("/known", func(req *Request, res *Response) {})
	})

	status, _, body := rawRequest(t, addr, "GET /unknown HTTP/1.1\r\nConnection: close\r\n\r\n")
	if status != "HTTP/1.1 404 Not Found" {
		t.Errorf("status = %q", status)
	}
	if body != "Not found" {
		t.Errorf("body = %q, want %q", body, "Not found")
	}
}

func TestServerGlobalMiddlewareRunsBeforeHandler(t *testing.T) {
	var order []string
	addr := startTestServer(t, func(s *Server) {
		s.Use(func(req *Request, res *Response, next func()) {
			order = append(order, "mw")
			next()
		})
		s.GET("/", func(req *Request, res *Response) {
			order = append(order, "handler")
		})
	})

	rawRequest(t, addr, "GET / HTTP/1.1\r\nConnection: close\r\n\r\n")
	if len(order) != 2 || order[0] != "mw" || order[1] != "handler" {
		t.Errorf("order = %v", order)
	}
}

func TestServerReturns501ForChunkedTransferEncoding(t *testing.T) {
	addr := startTestServer(t, func(s *Server) {
		s.POST("/upload", func(req *Request, res *Response) {})
	})

	status, _, _ := rawRequest(t, addr, "POST /upload HTTP/1.1\r\nTransfer-Encoding: chunked\r\nConnection: close\r\n\r\n")
	if status != "HTTP/1.1 501 Not Implemented" {
		t.Errorf("status = %q", status)
	}
}

func TestServerPanicRecoversTo500(t *testing.T) {
	addr := startTestServer(t, func(s *Server) {
		s.GET("/boom", func(req *Request, res *Response) { panic("nope") })
	})

	status, _, _ := rawRequest(t, addr, "GET /boom HTTP/1.1\r\nConnection: close\r\n\r\n")
	if status != "HTTP/1.1 500 Internal Server Error" {
		t.Errorf("status = %q", status)
	}
}

func TestServerKeepAliveServesMultipleRequestsOnOneConnection(t *testing.T) {
	addr := startTestServer(t, func(s *Server) {
		s.GET("/ping", func(req *Request, res *Response) { res.Send("pong") })
	})

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for i := 0; i < 2; i++ {
		if _, err := conn.Write([]byte("GET /ping HTTP/1.1\r\n\r\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		statusLine, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read status line %d: %v", i, err)
		}
		if strings.TrimSpace(statusLine) != "HTTP/1.1 200 OK" {
			t.Fatalf("status line %d = %q", i, statusLine)
		}
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read headers %d: %v", i, err)
			}
			if strings.Trim(line, "\r\n") == "" {
				break
			}
		}
		body := make([]byte, len("pong"))
		if _, err := reader.Read(body); err != nil {
			t.Fatalf("read body %d: %v", i, err)
		}
		if string(body) != "pong" {
			t.Fatalf("body %d = %q", i, body)
		}
	}
}
