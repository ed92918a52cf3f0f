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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nightlyone/lockfile"
	"github.com/subchen/go-trylock/v2"
)

// fileMutexes holds the in-process lock of each lock file. lockfile treats a
// lock owned by the current PID as held by the caller, so Stores sharing a
// lock file must also share the mutex.
var (
	fileMutexesMtx sync.Mutex
	fileMutexes    = make(map[string]trylock.TryLocker)
)

func fileMutex(lockPath string) trylock.TryLocker {
	fileMutexesMtx.Lock()
	defer fileMutexesMtx.Unlock()
	mtx, ok := fileMutexes[lockPath]
	if !ok {
		mtx = trylock.New()
		fileMutexes[lockPath] = mtx
	}
	return mtx
}

// lock acquires exclusive access to the backing document for a
// read-modify-write cycle. The in-process mutex is always taken and is shared
// by every Store using the same lock file. The lock file, if configured,
// excludes other processes. The returned func releases both.
func (s *Store) lock(ctx context.Context) (func(), error) {
	if !s.mtx.TryLock(ctx) {
		return nil, fmt.Errorf("acquire store lock: %w", ctx.Err())
	}
	if s.lockPath == "" {
		return s.mtx.Unlock, nil
	}

	lockFile, err := s.tryLockFile(ctx)
	if err != nil {
		s.mtx.Unlock()
		return nil, err
	}
	return func() {
		_ = lockFile.Unlock()
		s.mtx.Unlock()
	}, nil
}

func (s *Store) tryLockFile(ctx context.Context) (lockfile.Lockfile, error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%q): %w", filepath.Dir(s.lockPath), err)
	}
	lockFile, err := lockfile.New(s.lockPath)
	if err != nil {
		return "", fmt.Errorf("lockfile.New(%q): %w", s.lockPath, err)
	}
	for {
		err := lockFile.TryLock()
		if err == nil {
			return lockFile, nil
		}
		var tmp interface{ Temporary() bool }
		if !errors.As(err, &tmp) || !tmp.Temporary() {
			return "", fmt.Errorf("lockFile.TryLock(): %w", err)
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("lockFile.TryLock(): %v: %w", err, ctx.Err())
		case <-time.After(s.lockRetry):
		}
	}
}
