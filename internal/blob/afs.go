// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

package blob

import (
	"bytes"
	"context"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// AFS is a document at any URL supported by the linked afs drivers, e.g.
// mem://localhost/tokens.json. It offers no cross-process locking.
type AFS struct {
	fs      afs.Service
	url     string
	options []storage.Option
}

// NewAFS returns the AFS document at URL.
func NewAFS(URL string, options ...storage.Option) *AFS {
	return &AFS{fs: afs.New(), url: URL, options: options}
}

// URL returns the location of the document.
func (a *AFS) URL() string { return a.url }

func (a *AFS) Read(ctx context.Context) ([]byte, error) {
	return a.fs.DownloadWithURL(ctx, a.url, a.options...)
}

func (a *AFS) Write(ctx context.Context, data []byte) error {
	return a.fs.Upload(ctx, a.url, 0644, bytes.NewReader(data), a.options...)
}

func (a *AFS) Exists(ctx context.Context) (bool, error) {
	return a.fs.Exists(ctx, a.url, a.options...)
}
