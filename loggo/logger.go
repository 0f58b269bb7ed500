// Package loggo sets up the zerolog logger that consumers of the server
// hand to Server.SetLogger and to the httpd.AccessLog middleware.
package loggo

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing human-readable console output when
// pretty is true (suited to local development) or newline-delimited JSON
// otherwise (suited to shipping logs off-box in production).
func New(pretty bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
