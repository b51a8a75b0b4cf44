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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thediveo/spafall"
)

var version = "0.9.1"

var (
	port       int
	dir        string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "spafall",
	Short: "Serve a single-page application with client-side routing",
	Long: `spafall serves a single-page application from a directory.

Static assets (anything below /assets/ or ending in .js, .css, .png,
.jpg, .ico or .svg) are served verbatim; every other path falls back
onto index.html so the SPA's client-side router resolves the route.

Examples:
  spafall                          # serve the working directory on port 7777
  spafall --port 8080 --dir dist   # serve ./dist on port 8080
  spafall --config spafall.toml    # take settings from a TOML file`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate("spafall version {{.Version}}\n")

	rootCmd.Flags().IntVarP(&port, "port", "p", spafall.DefaultPort, "TCP port to listen on")
	rootCmd.Flags().StringVarP(&dir, "dir", "d", ".", "document root directory")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "TOML configuration file")
}

func runServe(cobracmd *cobra.Command, _ []string) error {
	cfg := spafall.Config{}
	if configFile != "" {
		var err error
		cfg, err = spafall.LoadConfig(configFile)
		if err != nil {
			return err
		}
	}
	// Flags given on the command line win over the configuration file.
	if cobracmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = port
	}
	if cobracmd.Flags().Changed("dir") || cfg.Root == "" {
		cfg.Root = dir
	}
	if info, err := os.Stat(cfg.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("document root %q is not a directory", cfg.Root)
	}

	srv := spafall.NewServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return srv.Shutdown(context.Background())
}
