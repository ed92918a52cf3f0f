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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsjs/usertoken/internal/log"
	"github.com/fsjs/usertoken/internal/store"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { homedir.DisableCache = true }

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newStorePath(t *testing.T) string {
	t.Setenv("HOME", t.TempDir())
	return filepath.Join(t.TempDir(), "json", "tokens.json")
}

func TestTokenCommands(t *testing.T) {
	require := require.New(t)
	path := newStorePath(t)
	token := func(args ...string) string {
		t.Helper()
		out, err := run(t, append([]string{"--store", path, "token"}, args...)...)
		require.NoError(err, out)
		return out
	}

	require.Equal("Created empty token store "+path+".\n", token("--init"))
	require.Equal("Token store "+path+" already exists.\n", token("--init"))
	require.Equal("Gamers with tokens: 0.\n", token("--count"))

	out := token("--new", "alice")
	require.True(strings.HasPrefix(out,
		"New token "+store.Checksum("alice")+" was created for alice expires on "), out)
	token("--new", "bob")
	token("--new", "bob")
	require.Equal("Gamers with tokens: 3.\n", token("--count"))

	require.Equal(`** User List **
 * alice: `+store.Checksum("alice")+`
 * bob: `+store.Checksum("bob")+`
 * bob: `+store.Checksum("bob")+`
`, token("--list"))

	require.Equal("Token record for bob was updated with 222.\n",
		token("--upd", "p", "bob", "222"))
	require.Equal("Token record for alice was updated with a@example.com.\n",
		token("--upd", "E", "alice", "a@example.com"))

	out = token("--fetch", "bob")
	require.Equal(2, strings.Count(out, `"phone": "222"`), out)
	require.Equal(2, strings.Count(out, `"username": "bob"`), out)
	require.Equal("No token record for carol.\n", token("--fetch", "carol"))

	out = token("--search", "e", "a@example.com")
	require.Equal(1, strings.Count(out, `"username": "alice"`), out)
	out = token("--search", "p", "222")
	require.Equal(2, strings.Count(out, `"username": "bob"`), out)
	require.Equal("No token record with phone 333.\n", token("--search", "p", "333"))
}

func TestTokenUsage(t *testing.T) {
	path := newStorePath(t)
	for _, args := range [][]string{
		{"token"},
		{"token", "--bogus"},
		{"token", "--help"},
	} {
		out, err := run(t, append([]string{"--store", path}, args...)...)
		require.NoError(t, err, args)
		assert.Contains(t, out, "Usage:", args)
		assert.Contains(t, out, "--search", args)
	}
}

func TestTokenUsageEvents(t *testing.T) {
	require := require.New(t)
	path := newStorePath(t)
	logDir := t.TempDir()
	for _, args := range [][]string{
		{"token"},
		{"token", "--bogus"},
		{"token", "--help"},
		{"token", "-h"},
	} {
		out, err := run(t, append([]string{"--store", path, "--logdir", logDir}, args...)...)
		require.NoError(err, args)
		require.Contains(out, "Usage:", args)
	}

	entries, err := os.ReadDir(logDir)
	require.NoError(err)
	require.Len(entries, 1)
	data, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(err)
	events := string(data)
	require.Equal(4, strings.Count(events, "token option was called by CLI"), events)
	require.Equal(4, strings.Count(events, "invalid CLI option, usage displayed"), events)
}

func TestTokenErrors(t *testing.T) {
	path := newStorePath(t)
	_, err := run(t, "--store", path, "token", "--init")
	require.NoError(t, err)

	tests := []struct {
		Name  string
		Args  []string
		Error string
	}{{
		Name:  "two modes",
		Args:  []string{"--count", "--list"},
		Error: "--count and --list may not be used together",
	}, {
		Name:  "count with argument",
		Args:  []string{"--count", "x"},
		Error: "--count takes no arguments, received 1",
	}, {
		Name:  "new without username",
		Args:  []string{"--new"},
		Error: "--new requires [USERNAME], received 0 argument(s)",
	}, {
		Name:  "upd missing value",
		Args:  []string{"--upd", "p", "bob"},
		Error: "--upd requires [p|e USERNAME VALUE], received 2 argument(s)",
	}, {
		Name:  "upd unknown field",
		Args:  []string{"--upd", "x", "bob", "1"},
		Error: `unknown field: "x"`,
	}, {
		Name:  "search unknown criterion",
		Args:  []string{"--search", "x", "1"},
		Error: `unknown field: "x"`,
	}}
	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			out, err := run(t, append([]string{"--store", path, "token"}, test.Args...)...)
			require.EqualError(t, err, test.Error)
			assert.Contains(t, out, test.Error)
		})
	}
}

func TestTokenMissingStore(t *testing.T) {
	path := newStorePath(t)
	for _, args := range [][]string{{"--count"}, {"--new", "alice"}} {
		_, err := run(t, append([]string{"--store", path, "token"}, args...)...)
		var readErr *store.ReadError
		assert.ErrorAs(t, err, &readErr, args)
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no document after a failed read")
}

func TestTokenEventFile(t *testing.T) {
	require := require.New(t)
	path := newStorePath(t)
	logDir := t.TempDir()

	_, err := run(t, "--store", path, "--logdir", logDir, "token", "--init")
	require.NoError(err)
	_, err = run(t, "--store", path, "--logdir", logDir, "token", "--new", "alice")
	require.NoError(err)

	entries, err := os.ReadDir(logDir)
	require.NoError(err)
	require.Len(entries, 1)
	require.True(strings.HasPrefix(entries[0].Name(), log.EventFilePrefix))
	data, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(err)
	events := string(data)
	require.Equal(2, strings.Count(events, "token option was called by CLI"), events)
	require.Contains(events, `"source":"token.newToken()"`)
	require.Contains(events, "New token "+store.Checksum("alice")+" was created for alice")
}

func TestMemStore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	url := "mem://localhost/cmd_test/tokens.json"
	_, err := run(t, "--store", url, "token", "--init")
	require.NoError(t, err)
	_, err = run(t, "--store", url, "token", "--new", "alice")
	require.NoError(t, err)
	out, err := run(t, "--store", url, "token", "--count")
	require.NoError(t, err)
	assert.Equal(t, "Gamers with tokens: 1.\n", out)
}

func TestCmplCmd(t *testing.T) {
	cmpl := cmplCmd(NewRootCmd())
	require.Contains(t, cmpl.Sub, "token")
	require.Contains(t, cmpl.Sub, "help")
	assert.Contains(t, cmpl.Sub["help"].Sub, "token")
	assert.Contains(t, cmpl.Flags, "--install-completion")
	assert.Contains(t, cmpl.Flags, "--store")

	token := cmpl.Sub["token"]
	for _, mode := range tokenModes {
		assert.Contains(t, token.Flags, "--"+mode)
	}
	assert.Contains(t, token.Flags, "--store")
	assert.NotContains(t, cmpl.Flags, "--search")
}
