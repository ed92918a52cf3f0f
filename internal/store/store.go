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

// Package store keeps per-user token Records in a single JSON document.
//
// Every operation loads the whole Collection from the Backend, works on it in
// memory and, if it changes anything, writes the whole Collection back.
// Mutating operations hold an exclusive lock for the entire cycle, so
// concurrent writers through the same Store, or through Stores in any
// process sharing a lock file, do not lose each other's updates.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/subchen/go-trylock/v2"
)

// Notification sources.
const (
	SourceCount  = "token.tokenCount()"
	SourceList   = "token.tokenList()"
	SourceCreate = "token.newToken()"
	SourceFetch  = "token.fetchRecord()"
	SourceSearch = "token.searchToken()"
	SourceUpdate = "token.updateToken()"
	SourceInit   = "token.initStore()"
)

// Level is the severity of a notification.
type Level string

const (
	Info  Level = "INFO"
	Error Level = "ERROR"
)

// Observer receives a notification for the outcome of every operation.
// Notify must not block.
type Observer interface {
	Notify(source string, level Level, msg string)
}

type nopObserver struct{}

func (nopObserver) Notify(string, Level, string) {}

// NopObserver discards all notifications.
var NopObserver Observer = nopObserver{}

// Backend holds the serialized Collection as one opaque document.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Exists(ctx context.Context) (bool, error)
}

// Store implements the token operations on top of a Backend.
type Store struct {
	backend   Backend
	observer  Observer
	now       func() time.Time
	mtx       trylock.TryLocker
	lockPath  string
	lockRetry time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithObserver sets the Observer notified of every outcome.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock sets the source of creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLockFile guards mutations with a lock file at the absolute path, in
// addition to the in-process lock. Stores given the same path share the
// in-process lock.
func WithLockFile(path string) Option {
	return func(s *Store) { s.lockPath = path }
}

// WithLockRetry sets how long to wait between attempts to take a busy lock
// file.
func WithLockRetry(d time.Duration) Option {
	return func(s *Store) { s.lockRetry = d }
}

// New returns a Store backed by b.
func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend:   b,
		observer:  NopObserver,
		now:       time.Now,
		mtx:       trylock.New(),
		lockRetry: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lockPath != "" {
		s.lockPath = filepath.Clean(s.lockPath)
		s.mtx = fileMutex(s.lockPath)
	}
	return s
}

func (s *Store) info(source, format string, args ...interface{}) {
	s.observer.Notify(source, Info, fmt.Sprintf(format, args...))
}

// fail notifies err at the error level and returns it.
func (s *Store) fail(source string, err error) error {
	s.observer.Notify(source, Error, err.Error())
	return err
}

func (s *Store) load(ctx context.Context, source string) (Collection, error) {
	data, err := s.backend.Read(ctx)
	if err != nil {
		return nil, s.fail(source, &ReadError{Err: err})
	}
	c, err := Decode(data)
	if err != nil {
		return nil, s.fail(source, &ReadError{Err: err})
	}
	return c, nil
}

func (s *Store) save(ctx context.Context, source string, c Collection) error {
	data, err := c.Encode()
	if err != nil {
		return s.fail(source, &WriteError{Err: err})
	}
	if err := s.backend.Write(ctx, data); err != nil {
		return s.fail(source, &WriteError{Err: err})
	}
	return nil
}

// Count returns the number of Records.
func (s *Store) Count(ctx context.Context) (int, error) {
	c, err := s.load(ctx, SourceCount)
	if err != nil {
		return 0, err
	}
	s.info(SourceCount, "Token count: %v.", len(c))
	return len(c), nil
}

// List returns the username and token of every Record in order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	c, err := s.load(ctx, SourceList)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(c))
	for i, r := range c {
		entries[i] = Entry{Username: r.Username, Token: r.Token}
	}
	s.info(SourceList, "Current token list was displayed.")
	return entries, nil
}

// Create appends a new Record for username and persists the Collection.
// Existing Records with the same username are left alone.
func (s *Store) Create(ctx context.Context, username string) (Record, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return Record{}, s.fail(SourceCreate, err)
	}
	defer unlock()

	c, err := s.load(ctx, SourceCreate)
	if err != nil {
		return Record{}, err
	}
	r := NewRecord(username, s.now())
	c = append(c, r)
	if err := s.save(ctx, SourceCreate, c); err != nil {
		return Record{}, err
	}
	s.info(SourceCreate, "New token %v was created for %v expires on %v.",
		r.Token, r.Username, r.Expires)
	return r, nil
}

// Fetch returns every Record whose username equals username. No match is an
// empty result, not an error.
func (s *Store) Fetch(ctx context.Context, username string) ([]Record, error) {
	c, err := s.load(ctx, SourceFetch)
	if err != nil {
		return nil, err
	}
	var found []Record
	for _, r := range c {
		if r.Username != username {
			continue
		}
		found = append(found, r)
		s.info(SourceFetch, "Token record for %v was displayed.", username)
	}
	return found, nil
}

// Search returns every Record satisfying at least one criterion of q, in
// order. Each Match names the first satisfied criterion in the order
// username, email, phone.
func (s *Store) Search(ctx context.Context, q Query) ([]Match, error) {
	c, err := s.load(ctx, SourceSearch)
	if err != nil {
		return nil, err
	}
	var found []Match
	for i := range c {
		by, value, ok := q.match(&c[i])
		if !ok {
			continue
		}
		found = append(found, Match{Record: c[i], By: by, Value: value})
		s.info(SourceSearch, "Token %v for %v was displayed.", c[i].Token, value)
	}
	return found, nil
}

// Update sets field, "phone" or "email" (or "p", "e", in any case), to value
// on every Record whose username equals username. The Collection is
// persisted even if nothing matched. It returns the number of Records
// updated.
func (s *Store) Update(ctx context.Context,
	field, username, value string) (int, error) {
	f, err := ParseField(field)
	if err == nil && f == FieldUsername {
		err = fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err != nil {
		return 0, s.fail(SourceUpdate, err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return 0, s.fail(SourceUpdate, err)
	}
	defer unlock()

	c, err := s.load(ctx, SourceUpdate)
	if err != nil {
		return 0, err
	}
	var n int
	for i := range c {
		r := &c[i]
		if r.Username != username {
			continue
		}
		switch f {
		case FieldPhone:
			r.Phone = value
		case FieldEmail:
			r.Email = value
		}
		n++
	}
	if err := s.save(ctx, SourceUpdate, c); err != nil {
		return 0, err
	}
	s.info(SourceUpdate, "Token record for %v was updated with %v.",
		username, value)
	return n, nil
}

// Init writes an empty Collection if the backing document does not exist. It
// reports whether it created the document.
func (s *Store) Init(ctx context.Context) (bool, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return false, s.fail(SourceInit, err)
	}
	defer unlock()

	exists, err := s.backend.Exists(ctx)
	if err != nil {
		return false, s.fail(SourceInit, &ReadError{Err: err})
	}
	if exists {
		return false, nil
	}
	if err := s.save(ctx, SourceInit, Collection{}); err != nil {
		return false, err
	}
	s.info(SourceInit, "Empty token store was created.")
	return true, nil
}
