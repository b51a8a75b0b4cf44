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
	"io"
	"io/fs"
	"strings"
	"testing/fstest"

	"golang.org/x/time/rate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

// readOnlyFile hides any Seek method an fs.File implementation might have,
// leaving only the plain fs.File interface.
type readOnlyFile struct{ fs.File }

var _ = Describe("bandwidth-capped content", func() {

	It("reads contents through the token bucket unmodified", func() {
		rs := &throttledReadSeeker{
			ReadSeeker: strings.NewReader("CANARY CONTENTS"),
			ctx:        context.Background(),
			limiter:    rate.NewLimiter(1024, 1024),
		}
		Expect(string(Successful(io.ReadAll(rs)))).To(Equal("CANARY CONTENTS"))
	})

	It("aborts reading when the request context gets canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rs := &throttledReadSeeker{
			ReadSeeker: strings.NewReader(strings.Repeat("x", 64)),
			ctx:        ctx,
			limiter:    rate.NewLimiter(1, 64),
		}
		_, err := io.ReadAll(rs)
		Expect(err).To(HaveOccurred())
	})

	It("adapts any fs.File for serving, seekable or not", func() {
		fsys := fstest.MapFS{
			"plain.txt": &fstest.MapFile{Data: []byte("CANARY PLAIN")},
		}
		f := Successful(fsys.Open("plain.txt"))
		defer f.Close()
		rs := Successful(contentReadSeeker(readOnlyFile{f}))
		Expect(string(Successful(io.ReadAll(rs)))).To(Equal("CANARY PLAIN"))
		Expect(Successful(rs.Seek(0, io.SeekStart))).To(BeZero())
	})

})
