// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package spafall

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	stdhttptest "net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("the SPA server", func() {

	It("fills in configuration defaults", func() {
		cfg := NewServer(Config{}).Config()
		Expect(cfg.Port).To(Equal(DefaultPort))
		Expect(cfg.Root).To(Equal("."))
		Expect(cfg.Index).To(Equal(DefaultIndex))
		Expect(cfg.AssetPrefix).To(Equal(DefaultAssetPrefix))
		Expect(cfg.AssetExtensions).To(Equal(DefaultAssetExtensions))
	})

	It("loads its configuration from TOML", func() {
		path := filepath.Join(GinkgoT().TempDir(), "spafall.toml")
		Expect(os.WriteFile(path, []byte(`
port = 8080
root = "dist"
asset_prefix = "/static/"
asset_extensions = [".js", ".wasm"]
bandwidth_limit = 1024.0
bandwidth_burst = 512
`), 0o644)).To(Succeed())
		cfg := Successful(LoadConfig(path))
		Expect(cfg.Port).To(Equal(8080))
		Expect(cfg.Root).To(Equal("dist"))
		Expect(cfg.AssetPrefix).To(Equal("/static/"))
		Expect(cfg.AssetExtensions).To(ConsistOf(".js", ".wasm"))
		Expect(cfg.BandwidthLimit).To(Equal(1024.0))
		Expect(cfg.BandwidthBurst).To(Equal(512))
	})

	It("rejects unknown configuration keys", func() {
		path := filepath.Join(GinkgoT().TempDir(), "spafall.toml")
		Expect(os.WriteFile(path, []byte(`prot = 8080`), 0o644)).To(Succeed())
		_, err := LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("unknown configuration key")))
	})

	It("refuses to start when the port is already taken", func() {
		l := Successful(net.Listen("tcp", "127.0.0.1:0"))
		defer l.Close()
		srv := NewServer(Config{
			Port: l.Addr().(*net.TCPAddr).Port,
			Root: "./test",
		})
		Expect(srv.ListenAndServe()).To(MatchError(ContainSubstring("cannot listen")))
	})

	It("serves requests over plain HTTP", func() {
		ts := stdhttptest.NewServer(New(os.DirFS("./test"), "index.html"))
		defer ts.Close()

		resp := Successful(http.Get(ts.URL + "/dashboard/settings"))
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
		Expect(string(Successful(io.ReadAll(resp.Body)))).To(ContainSubstring("CANARY INDEX"))

		resp = Successful(http.Get(ts.URL + "/assets/logo.png"))
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(Successful(io.ReadAll(resp.Body)))).To(ContainSubstring("CANARY LOGO"))
	})

	It("serves until shut down", func() {
		// Find a port that at least was free a moment ago; the window between
		// closing and rebinding it is small enough for a test.
		l := Successful(net.Listen("tcp", "127.0.0.1:0"))
		port := l.Addr().(*net.TCPAddr).Port
		Expect(l.Close()).To(Succeed())

		srv := NewServer(Config{Port: port, Root: "./test"})
		serveErr := make(chan error, 1)
		go func() { serveErr <- srv.ListenAndServe() }()
		Eventually(func() error {
			conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
			if err == nil {
				conn.Close()
			}
			return err
		}).Within(2 * time.Second).ProbeEvery(20 * time.Millisecond).
			Should(Succeed())

		Expect(srv.Shutdown(context.Background())).To(Succeed())
		Eventually(serveErr).Within(2 * time.Second).Should(Receive(BeNil()))
	})

})
