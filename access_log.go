package httpd

import (
	"time"

	"github.com/rs/zerolog"
)

// AccessLog returns a global middleware that logs one line per request via
// logger, tagged with the request's correlation RequestID, after the
// handler chain has run. Install it first via Use so it wraps everything
// else and sees the final status code.
func AccessLog(logger zerolog.Logger) Middleware {
	return func(req *Request, res *Response, next func()) {
		start := time.Now()
		next()
		logger.Info().
			Str("request_id", req.RequestID).
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", res.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}
