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
	"path"
	"strings"
)

// DefaultAssetPrefix is the path prefix under which requested resources are
// always treated as static assets, without any fallback rewriting.
const DefaultAssetPrefix = "/assets/"

// DefaultAssetExtensions lists the file name extensions for which requested
// resources are always treated as static assets, regardless of where they
// live inside the document root.
var DefaultAssetExtensions = []string{
	".js", ".css", ".png", ".jpg", ".ico", ".svg",
}

// Classifier decides for (sanitized) request paths whether they address
// static assets or application routes, and resolves application routes onto
// the effective serving path. Classification itself is a pure function of
// the path string; only route resolution consults the (caller-supplied) file
// existence oracle, and then exactly once.
type Classifier struct {
	prefix     string
	extensions map[string]struct{}
}

// NewClassifier returns a Classifier using the specified asset path prefix
// and asset file name extensions. The prefix is taken to be a directory
// prefix, so it always ends in a "/" ("/assets" becomes "/assets/").
func NewClassifier(prefix string, extensions []string) Classifier {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[ext] = struct{}{}
	}
	return Classifier{
		prefix:     prefix,
		extensions: exts,
	}
}

// IsAsset reports whether the specified rooted request path addresses a
// static asset, either by living under the asset prefix or by carrying one
// of the asset file name extensions. It never touches the filesystem.
func (c Classifier) IsAsset(p string) bool {
	if strings.HasPrefix(p, c.prefix) {
		return true
	}
	_, ok := c.extensions[path.Ext(p)]
	return ok
}

// Resolve returns the effective serving path for the specified rooted
// request path: asset paths and the root path "/" pass through unmodified,
// other paths collapse onto "/" unless exists reports something present at
// the corresponding unrooted location inside the document root. The exists
// oracle is called at most once, and never for assets or for "/" itself;
// resolving an already resolved path is thus a no-op.
func (c Classifier) Resolve(p string, exists func(name string) bool) string {
	if c.IsAsset(p) {
		return p
	}
	if p != "/" && !exists(p[1:]) {
		return "/"
	}
	return p
}
