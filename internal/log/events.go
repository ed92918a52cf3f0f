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
	"encoding/json"
	"fmt"
	"time"

	"github.com/kjk/common/filerotate"
	"github.com/sirupsen/logrus"
)

// EventFile is a logrus.Hook appending every entry to a file in a directory,
// starting a new file each day. Lines are JSON objects with the fields time,
// source, level and message.
type EventFile struct {
	file *filerotate.File
}

// EventFilePrefix is prepended to the date in the event file names.
const EventFilePrefix = "events-"

// NewEventFile opens the event file for today in dir, creating dir if needed.
func NewEventFile(dir string) (*EventFile, error) {
	f, err := filerotate.NewDaily(dir, EventFilePrefix, nil)
	if err != nil {
		return nil, fmt.Errorf("filerotate.NewDaily(%q): %w", dir, err)
	}
	return &EventFile{file: f}, nil
}

// Path returns the path of the current event file.
func (h *EventFile) Path() string {
	h.file.Lock()
	defer h.file.Unlock()
	return h.file.Path
}

type event struct {
	Time    string      `json:"time"`
	Source  interface{} `json:"source,omitempty"`
	Level   string      `json:"level"`
	Message string      `json:"message"`
}

func (h *EventFile) Levels() []logrus.Level { return logrus.AllLevels }

func (h *EventFile) Fire(entry *logrus.Entry) error {
	data, err := json.Marshal(event{
		Time:    entry.Time.Format(time.DateTime),
		Source:  entry.Data["source"],
		Level:   string(level(entry.Level)),
		Message: entry.Message,
	})
	if err != nil {
		return err
	}
	_, err = h.file.Write(append(data, '\n'))
	return err
}

func (h *EventFile) Close() error { return h.file.Close() }
