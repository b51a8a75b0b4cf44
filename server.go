// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spafall

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
)

// DefaultPort is the TCP port the server listens on unless configured
// otherwise.
const DefaultPort = 7777

// DefaultIndex is the document served for application routes unless
// configured otherwise.
const DefaultIndex = "index.html"

// Config holds the complete server configuration. The zero value is usable:
// missing values are replaced by their documented defaults when the server
// is created. Config can be loaded from a TOML file using LoadConfig.
type Config struct {
	// Port is the TCP port to listen on; defaults to DefaultPort (7777).
	Port int `toml:"port"`
	// Root is the document root directory; defaults to the process working
	// directory.
	Root string `toml:"root"`
	// Index is the root-relative document served for application routes;
	// defaults to DefaultIndex.
	Index string `toml:"index"`
	// AssetPrefix and AssetExtensions control asset classification; they
	// default to DefaultAssetPrefix and DefaultAssetExtensions.
	AssetPrefix     string   `toml:"asset_prefix"`
	AssetExtensions []string `toml:"asset_extensions"`
	// BandwidthLimit optionally caps response bandwidth per request, in
	// bytes per second with BandwidthBurst bytes of burst; zero means
	// uncapped.
	BandwidthLimit float64 `toml:"bandwidth_limit"`
	BandwidthBurst int     `toml:"bandwidth_burst"`
}

// withDefaults returns the configuration with all unset values replaced by
// their defaults.
func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.Index == "" {
		c.Index = DefaultIndex
	}
	if c.AssetPrefix == "" {
		c.AssetPrefix = DefaultAssetPrefix
	}
	if c.AssetExtensions == nil {
		c.AssetExtensions = DefaultAssetExtensions
	}
	return c
}

// LoadConfig reads the server configuration from the specified TOML file.
// Keys not present in the file keep their default values; keys unknown to
// the configuration are an error, as they most probably are typos.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read configuration: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown configuration key %q in %s",
			undecoded[0].String(), path)
	}
	return cfg, nil
}

// Server serves a single-page application from a document root directory on
// the OS file system, using a Handler for the request routing policy.
type Server struct {
	cfg Config
	srv *http.Server
}

// NewServer returns a new Server for the specified configuration, filling in
// defaults for any unset configuration values. The listening socket isn't
// bound before ListenAndServe gets called.
func NewServer(cfg Config) *Server {
	cfg = cfg.withDefaults()
	h := New(os.DirFS(cfg.Root), cfg.Index,
		WithClassifier(NewClassifier(cfg.AssetPrefix, cfg.AssetExtensions)),
		WithBandwidthLimit(cfg.BandwidthLimit, cfg.BandwidthBurst))
	return &Server{
		cfg: cfg,
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: h,
		},
	}
}

// Config returns the server's effective configuration, with all defaults
// filled in.
func (s *Server) Config() Config { return s.cfg }

// ListenAndServe binds the listening socket, announces the serving URL on
// stdout and then serves until Shutdown gets called or serving fails.
// Binding errors (port in use, insufficient permissions) are returned
// immediately so the caller can bail out; a regular shutdown returns nil.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("cannot listen on port %d: %w", s.cfg.Port, err)
	}
	color.Green("Serving SPA on http://0.0.0.0:%d", s.cfg.Port)
	if err := s.srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops serving, with the platform default draining behavior of
// net/http's Server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
