// Command demo wires up a small application server over the httpd
// package: JSON config with hot-reload, structured access logging, CORS,
// and a handful of routes adapted from a teaching exercise's raw-socket
// HTTP server into the library's Handler/Middleware surface.
package main

import (
	"bytes"
	"compress/gzip"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/corvane-labs/httpd"
	"github.com/corvane-labs/httpd/config"
	"github.com/corvane-labs/httpd/jsonvalue"
	"github.com/corvane-labs/httpd/loggo"
)

func main() {
	baseDir := flag.String("directory", ".", "directory served by /files/:name")
	configPath := flag.String("config", "demo_config.json", "path to the server config file")
	port := flag.Int("port", 4221, "port to listen on")
	flag.Parse()

	logger := loggo.New(true)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", *configPath).Msg("using default config")
	}

	server := httpd.NewServer()
	server.SetLogger(logger)
	server.SetThreads(cfg.Threads)
	server.SetMaxHeaderSize(cfg.MaxHeaderSize)

	if watcher, err := config.Watch(*configPath, func(c *config.ServerConfig) {
		server.SetThreads(c.Threads)
		server.SetMaxHeaderSize(c.MaxHeaderSize)
		logger.Info().Msg("config reloaded")
	}); err != nil {
		logger.Warn().Err(err).Msg("config hot-reload disabled")
	} else {
		defer watcher.Close()
	}

	if len(cfg.Cors.AllowedOrigins) > 0 {
		err := server.CreateCorsConfig(func(c *httpd.CorsConfig) {
			c.AllowOrigins(cfg.Cors.AllowedOrigins...)
			c.AllowMethods(cfg.Cors.AllowedMethods...)
			c.AllowHeaders(cfg.Cors.AllowedHeaders...)
			c.ExposeHeaders(cfg.Cors.ExposedHeaders...)
			c.WithCredentials(cfg.Cors.WithCredentials)
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid CORS config")
		}
	}

	server.Use(httpd.AccessLog(logger))
	server.Use(httpd.JSONBodyParser)
	server.Use(httpd.URLEncodedBodyParser)

	registerRoutes(server, *baseDir)

	err = server.InitServer(*port, func() {
		logger.Info().Int("port", *port).Msg("listening")
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func registerRoutes(s *httpd.Server, baseDir string) {
	s.GET("/", rootHandler)
	s.GET("/echo/:text", echoHandler)
	s.GET("/user-agent", userAgentHandler)
	s.GET("/files/:name", filesReadHandler(baseDir))
	s.POST("/files/:name", filesWriteHandler(baseDir))
}

func rootHandler(req *httpd.Request, res *httpd.Response) {
	res.Status(200)
}

// echoHandler demonstrates gzip negotiation via Accept-Encoding, carried
// over from the raw-socket version of this route.
func echoHandler(req *httpd.Request, res *httpd.Response) {
	text := req.PathParameters["text"]

	wantsGzip := false
	for _, enc := range strings.Split(req.Header("Accept-Encoding"), ",") {
		if strings.TrimSpace(enc) == "gzip" {
			wantsGzip = true
			break
		}
	}

	if !wantsGzip {
		res.Send(text)
		return
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(text)); err != nil {
		res.Status(500)
		return
	}
	gw.Close()
	res.SetHeader("Content-Encoding", "gzip")
	res.SendBytes(buf.Bytes())
}

func userAgentHandler(req *httpd.Request, res *httpd.Response) {
	res.Send(req.Header("User-Agent"))
}

func filesReadHandler(baseDir string) httpd.Handler {
	return func(req *httpd.Request, res *httpd.Response) {
		path := filepath.Join(baseDir, req.PathParameters["name"])
		if _, err := os.Stat(path); err != nil {
			res.Status(404)
			return
		}
		res.SendFile(path)
	}
}

func filesWriteHandler(baseDir string) httpd.Handler {
	return func(req *httpd.Request, res *httpd.Response) {
		path := filepath.Join(baseDir, req.PathParameters["name"])
		if err := os.WriteFile(path, []byte(req.Payload), 0o644); err != nil {
			res.Status(500)
			res.JSON(jsonvalue.Object().Set("message", jsonvalue.String(err.Error())))
			return
		}
		res.Status(201)
	}
}
