package httpd

import (
	"strings"

	"github.com/corvane-labs/httpd/jsonvalue"
)

// Handler produces the response for a matched route.
type Handler func(req *Request, res *Response)

// Middleware sits ahead of a Handler (or another Middleware) in the
// pipeline. Calling next() advances to the following stage; returning
// without calling next() short-circuits the chain, letting a middleware
// reject a request outright.
type Middleware func(req *Request, res *Response, next func())

// pipeline is the ordered list of middlewares and the terminal handler
// for one matched route. run drives it with the index-cursor scheme from
// the original: a middleware that does not call next() stops the chain
// at its current position; calling next() more than once, or out of
// order, is tolerated (the permissive increment rule) because each stage
// re-enters through the same closure and simply moves the cursor forward
// by one relative to wherever it currently sits.
type pipeline struct {
	stages  []Middleware
	handler Handler
}

func (p *pipeline) run(req *Request, res *Response) {
	i := 0
	var step func()
	step = func() {
		if i < 0 || i > len(p.stages) {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				i = -1
				res.Status(500).Send("Internal Server Error")
			}
		}()
		if i == len(p.stages) {
			i++
			p.handler(req, res)
			return
		}
		cur := i
		i++
		p.stages[cur](req, res, step)
	}
	step()
}

// JSONBodyParser parses req.Payload as JSON into req.Body when the
// Content-Type header is application/json. On parse failure it sends 400
// Bad Request and does not call next(), short-circuiting the chain,
// matching the original JsonBodyParser's res.status(400)->send("Bad
// Request"); next = -1;.
func JSONBodyParser(req *Request, res *Response, next func()) {
	ct := req.Header("Content-Type")
	if strings.HasPrefix(ct, "application/json") && req.Payload != "" {
		v, err := jsonvalue.Parse(req.Payload)
		if err != nil {
			res.Status(400).Send("Bad Request")
			return
		}
		req.Body = v
	}
	next()
}

// URLEncodedBodyParser parses an application/x-www-form-urlencoded body
// into req.Body as a JSON object of string values, reusing the same
// percent-decoding as query-string parsing.
func URLEncodedBodyParser(req *Request, res *Response, next func()) {
	ct := req.Header("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") && req.Payload != "" {
		obj := jsonvalue.Object()
		for _, pair := range strings.Split(req.Payload, "&") {
			if pair == "" {
				continue
			}
			var key, value string
			if eq := strings.IndexByte(pair, '='); eq >= 0 {
				key, value = pair[:eq], pair[eq+1:]
			} else {
				key = pair
			}
			obj.Set(decodePercent(key), jsonvalue.String(decodePercent(value)))
		}
		req.Body = obj
	}
	next()
}
