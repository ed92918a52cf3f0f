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

package store

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned for a field name that ParseField or Update does
// not accept.
var ErrUnknownField = errors.New("unknown field")

// ReadError is returned when the backing document cannot be read or does not
// parse as a Collection.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read token store: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is returned when the backing document cannot be persisted.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write token store: %v", e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }
