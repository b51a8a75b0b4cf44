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
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"golang.org/x/time/rate"
)

// Handler implements an http.Handler that serves a single-page application:
// static assets are served verbatim, while application route paths fall back
// onto the index document so a client-side DOM router can take over. A
// request path counts as a static asset when the Classifier says so (asset
// prefix or asset extension), or when something actually exists at that
// location inside the document root. The index document contents served are
// automatically adjusted to the correct request base path, based on
// forwarding proxy headers.
type Handler struct {
	fs                fs.FS                // the FS to serve static resources from.
	index             string               // (unrooted) path and name of the index/SPA file inside fs.
	classifier        Classifier           // the pure asset-versus-route decision.
	staticfileHandler http.Handler         // FS adapted to http's file serving handler needs.
	indexRewriter     IndexRewriter        // optional user function to rewrite the index/SPA file as necessary.
	limiter           func() *rate.Limiter // optional per-response bandwidth limiter factory.
}

// New returns a new HTTP handler serving the single-page application found
// in the specified fs, with the specified index document (typically
// "index.html"). Asset requests are served literally, all other requests are
// answered with the index document unless a matching file exists on the fs.
//
// In order to serve from a directory on the OS file system, use os.DirFS:
//
//	h := spafall.New(os.DirFS("/opt/data/myspa"), "index.html")
func New(fsys fs.FS, index string, opts ...HandlerOption) *Handler {
	h := &Handler{
		fs:                fsys,
		staticfileHandler: http.FileServer(http.FS(fsys)),
		index:             path.Clean("/" + index)[1:],
		classifier:        NewClassifier(DefaultAssetPrefix, DefaultAssetExtensions),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlerOption sets optional properties at the time of creating a Handler.
type HandlerOption func(*Handler)

// IndexRewriter rewrites (parts) of the index document contents to be
// delivered to a requesting client, after the base element has been updated.
// It can be optionally activated using the WithIndexRewriter option when
// creating a new Handler.
type IndexRewriter func(r *http.Request, index string) string

// WithIndexRewriter sets the specified IndexRewriter that gets called before
// delivering the index document contents to requesting clients, allowing for
// application-specific changes.
func WithIndexRewriter(rewriter IndexRewriter) HandlerOption {
	return func(h *Handler) {
		h.indexRewriter = rewriter
	}
}

// WithClassifier replaces the default asset classification (asset prefix
// DefaultAssetPrefix, asset extensions DefaultAssetExtensions) with the
// specified one.
func WithClassifier(c Classifier) HandlerOption {
	return func(h *Handler) {
		h.classifier = c
	}
}

// WithBandwidthLimit caps the rate at which response contents are sent to
// any single requesting client, in bytes per second, with the specified
// burst size in bytes. A limit of zero (the default) doesn't cap at all.
func WithBandwidthLimit(limit float64, burst int) HandlerOption {
	return func(h *Handler) {
		if limit <= 0 {
			h.limiter = nil
			return
		}
		if burst <= 0 {
			burst = defaultBurst
		}
		h.limiter = func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(limit), burst)
		}
	}
}

// ServeHTTP serves a static resource verbatim whenever the request path is
// classified as an asset or directly matches a file inside the document
// root, and the index document everywhere else. This behavior is required
// for SPAs with client-side DOM routers, as otherwise bookmarking (router)
// links or reloading an SPA with the current route other than "/" would
// fail.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Get the absolute and also cleaned path to the requested resource in
	// order to prevent parent directory traversal outside the document root.
	// Slapping "/" ensures that path.Clean does NOT use the current working
	// dir for resolving the request path ... whichever current working
	// directory it might be at the moment is. A trailing slash survives the
	// cleaning (as in http.ServeMux), as otherwise a "/dir/" request would
	// get redirected to "dir/" by the file server, ad infinitum.
	cleaned := path.Clean("/" + r.URL.Path)
	if cleaned != "/" && strings.HasSuffix(r.URL.Path, "/") {
		cleaned += "/"
	}
	r.URL.Path = cleaned
	if h.classifier.Resolve(r.URL.Path, h.entryExists) == "/" {
		h.serveRewrittenIndex(w, r)
		return
	}
	h.serveStaticAsset(w, r)
}

// entryExists reports whether anything exists at the specified unrooted
// location inside the document root, be it a regular file or a directory.
// Directories count as existing so they keep the static file server's
// default directory handling instead of falling back onto the index. A
// trailing slash from a directory request is not part of the fs location.
func (h *Handler) entryExists(name string) bool {
	_, err := fs.Stat(h.fs, strings.TrimSuffix(name, "/"))
	return err == nil
}

// serveRewrittenIndex serves the index document, rewriting its HTML base
// element if found to refer the correct base path of the SPA.
func (h *Handler) serveRewrittenIndex(w http.ResponseWriter, r *http.Request) {
	var err error
	defer func() {
		if err != nil {
			NormalizedHTTPError(w, err)
		}
	}()
	// Sanitize the base path so it cannot interfere with our regexp
	// replacement operations where we need to use "$1" and "$2" back
	// references. As this ain't VMS (shudder), we don't need "$" in SPA
	// paths anyway.
	base := strings.ReplaceAll(basePath(r), "$", "")
	// Grab the index document's contents into a string as we need to modify
	// it on-the-fly based on where we deem the base path to be. And finally
	// serve the updated contents.
	f, err := h.fs.Open(h.index)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	fileInfo, err := f.Stat()
	if err != nil {
		return
	}
	indexContents, err := io.ReadAll(f)
	if err != nil {
		return
	}
	finalIndex := baseRe.ReplaceAllString(string(indexContents), "${1}"+base+"${2}")
	if h.indexRewriter != nil {
		finalIndex = h.indexRewriter(r, finalIndex)
	}
	http.ServeContent(w, r, h.index,
		fileInfo.ModTime(), h.throttled(r, strings.NewReader(finalIndex)))
}

// serveStaticAsset serves the resource specified in the request path
// literally from the Handler's fs. Missing or inaccessible resources are
// reported back to the client, never rewritten onto the index document.
//
// IMPORTANT: the passed r.URL.Path must have already been sanitized.
func (h *Handler) serveStaticAsset(w http.ResponseWriter, r *http.Request) {
	if h.limiter == nil {
		// http.FileServer also sanitizes our already sanitized path, serves
		// directories, and handles range and conditional requests.
		h.staticfileHandler.ServeHTTP(w, r)
		return
	}
	name := strings.TrimSuffix(r.URL.Path[1:], "/") // ...fs.FS uses unrooted, slashless paths.
	info, err := fs.Stat(h.fs, name)
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	if info.Mode()&os.ModeType != 0 {
		// Not a regular file: leave directories and anything weird to the
		// stock file server's default behavior, uncapped.
		h.staticfileHandler.ServeHTTP(w, r)
		return
	}
	f, err := h.fs.Open(name)
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	content, err := contentReadSeeker(f)
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), h.throttled(r, content))
}

// throttled wraps the specified content in a bandwidth-capping ReadSeeker if
// a limit has been configured, and otherwise passes it through untouched.
func (h *Handler) throttled(r *http.Request, content io.ReadSeeker) io.ReadSeeker {
	if h.limiter == nil {
		return content
	}
	return &throttledReadSeeker{
		ReadSeeker: content,
		ctx:        r.Context(),
		limiter:    h.limiter(),
	}
}
