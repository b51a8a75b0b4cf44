// Copyright 2023 Harald Albrecht.
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

package httptest

import (
	"net/http"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// NewRequest returns a new HTTP request for the specified method, URL and
// optional headers, failing the current test for unparsable URLs. Unlike the
// standard library's httptest.NewRequest it doesn't panic and accepts the
// headers right away, keeping table-driven handler tests terse.
func NewRequest(method string, requrl string, hdr http.Header) *http.Request {
	GinkgoHelper()
	u, err := url.Parse(requrl)
	Expect(err).NotTo(HaveOccurred(), "invalid test request URL %q", requrl)
	return &http.Request{
		Method: method,
		URL:    u,
		Header: hdr,
	}
}
