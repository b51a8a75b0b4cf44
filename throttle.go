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
	"bytes"
	"context"
	"io"
	"io/fs"

	"golang.org/x/time/rate"
)

// defaultBurst is the token bucket size used when a bandwidth limit has been
// configured without an explicit burst size. It needs to be at least as
// large as the chunks http.ServeContent copies, or serving would stall.
const defaultBurst = 64 * 1024

// throttledReadSeeker is an io.ReadSeeker that is rate limited by the given
// token bucket. Each token in the bucket represents one byte. See the
// "golang.org/x/time/rate" package. Reads are aborted once the request's
// context gets canceled, so a client going away doesn't keep tokens flowing.
type throttledReadSeeker struct {
	io.ReadSeeker
	ctx     context.Context
	limiter *rate.Limiter
}

func (rs *throttledReadSeeker) Read(buf []byte) (int, error) {
	n, err := rs.ReadSeeker.Read(buf)
	if n <= 0 {
		return n, err
	}
	err = rs.limiter.WaitN(rs.ctx, n)
	return n, err
}

// contentReadSeeker adapts an fs.File for http.ServeContent: files backed by
// the OS file system or an embed.FS already are ReadSeekers, everything else
// gets slurped into memory.
func contentReadSeeker(f fs.File) (io.ReadSeeker, error) {
	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, nil
	}
	contents, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(contents), nil
}
