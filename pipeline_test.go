package httpd

import "testing"

func TestPipelineRunsInOrder(t *testing.T) {
	var order []string
	p := &pipeline{
		stages: []Middleware{
			func(req *Request, res *Response, next func()) { order = append(order, "a"); next() },
			func(req *Request, res *Response, next func()) { order = append(order, "b"); next() },
		},
		handler: func(req *Request, res *Response) { order = append(order, "handler") },
	}
	p.run(newRequest(), NewResponse())
	want := []string{"a", "b", "handler"}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestPipelineShortCircuitsWithoutNext(t *testing.T) {
	handlerCalled := false
	p := &pipeline{
		stages: []Middleware{
			func(req *Request, res *Response, next func()) { res.Status(401) },
		},
		handler: func(req *Request, res *Response) { handlerCalled = true },
	}
	res := NewResponse()
	p.run(newRequest(), res)
	if handlerCalled {
		t.Fatal("handler must not run when a middleware doesn't call next()")
	}
	if res.StatusCode != 401 {
		t.Errorf("StatusCode = %d, want 401", res.StatusCode)
	}
}

func TestPipelinePanicRecoversTo500(t *testing.T) {
	p := &pipeline{
		handler: func(req *Request, res *Response) { panic("boom") },
	}
	res := NewResponse()
	p.run(newRequest(), res)
	if res.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", res.StatusCode)
	}
}

func TestJSONBodyParserPopulatesBody(t *testing.T) {
	req := newRequest()
	req.Headers["Content-Type"] = "application/json"
	req.Payload = `{"name":"ada"}`
	res := NewResponse()

	called := false
	JSONBodyParser(req, res, func() { called = true })

	if !called {
		t.Fatal("expected next() to be called")
	}
	name, ok := req.Body.Get("name")
	if !ok {
		t.Fatal("expected \"name\" key in parsed body")
	}
	s, err := name.AsString()
	if err != nil || s != "ada" {
		t.Errorf("name = %q, err=%v", s, err)
	}
}

func TestJSONBodyParserRejectsMalformedBody(t *testing.T) {
	req := newRequest()
	req.Headers["Content-Type"] = "application/json"
	req.Payload = `{"name":`
	res := NewResponse()

	called := false
	JSONBodyParser(req, res, func() { called = true })

	if called {
		t.Fatal("expected next() not to be called on a JSON parse error")
	}
	if res.StatusCode != 400 {
		t.Errorf("StatusCode = %d, want 400", res.StatusCode)
	}
	if string(res.Payload) != "Bad Request" {
		t.Errorf("Payload = %q, want %q", res.Payload, "Bad Request")
	}
}

func TestURLEncodedBodyParserPopulatesBody(t *testing.T) {
	req := newRequest()
	req.Headers["Content-Type"] = "application/x-www-form-urlencoded"
	req.Payload = "a=1&b=hello+world"
	res := NewResponse()

	URLEncodedBodyParser(req, res, func() {})

	a, _ := req.Body.Get("a")
	b, _ := req.Body.Get("b")
	av, _ := a.AsString()
	bv, _ := b.AsString()
	if av != "1" || bv != "hello world" {
		t.Errorf("a=%q b=%q", av, bv)
	}
}
