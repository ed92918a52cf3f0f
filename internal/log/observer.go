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

package log

import (
	"github.com/fsjs/usertoken/internal/store"
	"github.com/sirupsen/logrus"
)

// Observer delivers store notifications as log entries with a "source"
// field.
type Observer struct {
	Log
}

func (o Observer) Notify(source string, level store.Level, msg string) {
	entry := o.WithField("source", source)
	switch level {
	case store.Error:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

var _ store.Observer = Observer{}

// level maps a logrus level back onto the notification levels.
func level(l logrus.Level) store.Level {
	if l <= logrus.ErrorLevel {
		return store.Error
	}
	return store.Info
}
