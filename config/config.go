// Package config loads the server's JSON configuration file and, if asked,
// watches it for changes, handing each reloaded config to a callback.
package config

import (
	"encoding/json"
	"os"
)

// CorsDefaults mirrors the subset of httpd.CorsConfig that is safe to load
// from a file rather than build up in code.
type CorsDefaults struct {
	AllowedOrigins  []string `json:"allowed_origins"`
	AllowedMethods  []string `json:"allowed_methods"`
	AllowedHeaders  []string `json:"allowed_headers"`
	ExposedHeaders  []string `json:"exposed_headers"`
	WithCredentials bool     `json:"with_credentials"`
}

// ServerConfig is the on-disk shape of the server's configuration file.
type ServerConfig struct {
	Threads       int          `json:"threads"`
	MaxHeaderSize int          `json:"max_header_size"`
	Address       string       `json:"address"`
	Cors          CorsDefaults `json:"cors"`
}

// Default returns sane defaults used when the config file is missing or
// fails to parse, matching the fallback-to-defaults shape of the
// production config loader this package is grounded on.
func Default() *ServerConfig {
	return &ServerConfig{
		Threads:       1,
		MaxHeaderSize: 8192,
		Address:       "0.0.0.0",
		Cors: CorsDefaults{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		},
	}
}

// Load reads and parses path, falling back to Default on any error. The
// returned error, when non-nil, describes why the defaults were used; it
// is never fatal to call Load.
func Load(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return Default(), err
	}

	if cfg.Threads < 1 {
		cfg.Threads = Default().Threads
	}
	if cfg.MaxHeaderSize < 0 {
		cfg.MaxHeaderSize = Default().MaxHeaderSize
	}
	if cfg.Address == "" {
		cfg.Address = Default().Address
	}

	return cfg, nil
}
