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

package store_test

import (
	"testing"
	"time"

	. "github.com/fsjs/usertoken/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		Username string
		Token    string
	}{
		{"", "0"},
		{"a", "e8b7be43"},
		{"abc", "352441c2"},
		{"123456789", "cbf43926"},
		{"The quick brown fox jumps over the lazy dog", "414fa339"},
	}
	for _, test := range tests {
		assert.Equal(t, test.Token, Checksum(test.Username), test.Username)
	}
	assert.Equal(t, Checksum("alice"), Checksum("alice"))
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2024, time.February, 27, 23, 15, 4, 0, time.Local)
	r := NewRecord("alice", now)
	assert.Equal(t, Record{
		Created:   "2024-02-27 23:15:04",
		Username:  "alice",
		Email:     "default@gmail.com",
		Phone:     "9999999999",
		Token:     Checksum("alice"),
		Expires:   "2024-03-01 23:15:04",
		Confirmed: "tbd",
	}, r)
}

func TestParseField(t *testing.T) {
	tests := []struct {
		In    string
		Field Field
		Error bool
	}{
		{In: "u", Field: FieldUsername},
		{In: "Username", Field: FieldUsername},
		{In: "e", Field: FieldEmail},
		{In: "E", Field: FieldEmail},
		{In: "email", Field: FieldEmail},
		{In: "p", Field: FieldPhone},
		{In: "P", Field: FieldPhone},
		{In: "PHONE", Field: FieldPhone},
		{In: "x", Error: true},
		{In: "", Error: true},
	}
	for _, test := range tests {
		f, err := ParseField(test.In)
		if test.Error {
			assert.ErrorIs(t, err, ErrUnknownField, test.In)
			continue
		}
		assert.NoError(t, err, test.In)
		assert.Equal(t, test.Field, f, test.In)
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	require := require.New(t)
	now := time.Date(2024, time.February, 21, 8, 0, 0, 0, time.Local)
	c := Collection{
		NewRecord("bob", now),
		NewRecord("alice", now.Add(time.Hour)),
		NewRecord("bob", now.Add(2*time.Hour)),
	}
	c[1].Phone = "5551234"
	c[2].Email = "bob@example.com"

	data, err := c.Encode()
	require.NoError(err)
	got, err := Decode(data)
	require.NoError(err)
	require.Equal(c, got)
}

func TestCollectionEncode(t *testing.T) {
	data, err := Collection(nil).Encode()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Collection{{Username: "bob"}}.Encode()
	require.NoError(t, err)
	assert.Equal(t, `[{"created":"","username":"bob","email":"","phone":"",`+
		`"token":"","expires":"","confirmed":""}]`, string(data))
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, c)

	for _, data := range []string{``, `{}`, `[1]`, `not json`} {
		_, err := Decode([]byte(data))
		assert.Error(t, err, data)
	}
}
