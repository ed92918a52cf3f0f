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
	"encoding/json"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the layout of Record.Created and Record.Expires.
const TimeLayout = "2006-01-02 15:04:05"

// Lifetime is the number of calendar days between creation and expiry.
const Lifetime = 3

// Defaults assigned to a freshly created Record.
const (
	DefaultEmail     = "default@gmail.com"
	DefaultPhone     = "9999999999"
	DefaultConfirmed = "tbd"
)

// Record is a single user token entry.
type Record struct {
	Created   string `json:"created"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Token     string `json:"token"`
	Expires   string `json:"expires"`
	Confirmed string `json:"confirmed"`
}

// NewRecord returns the Record for username created at now.
func NewRecord(username string, now time.Time) Record {
	return Record{
		Created:   now.Format(TimeLayout),
		Username:  username,
		Email:     DefaultEmail,
		Phone:     DefaultPhone,
		Token:     Checksum(username),
		Expires:   now.AddDate(0, 0, Lifetime).Format(TimeLayout),
		Confirmed: DefaultConfirmed,
	}
}

// Checksum returns the CRC-32 (IEEE) of username as lowercase hex without
// leading zeros. It is not a security token.
func Checksum(username string) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(username))), 16)
}

// Collection is the ordered set of Records held by the backing document.
type Collection []Record

// Decode parses a serialized Collection. A JSON null is an empty Collection.
func Decode(data []byte) (Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode serializes c as a compact JSON array.
func (c Collection) Encode() ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	return json.Marshal(c)
}

// Field names a searchable or updatable Record field.
type Field string

const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
)

// ParseField accepts a full field name or its first letter, in any case.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(s) {
	case "u", "username":
		return FieldUsername, nil
	case "e", "email":
		return FieldEmail, nil
	case "p", "phone":
		return FieldPhone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// value returns the content of field f of r.
func (r *Record) value(f Field) string {
	switch f {
	case FieldUsername:
		return r.Username
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	}
	return ""
}

// Entry is a (username, token) pair as returned by Store.List.
type Entry struct {
	Username string
	Token    string
}

// Query selects Records by any combination of criteria. A nil criterion is
// not applied.
type Query struct {
	Username *string
	Email    *string
	Phone    *string
}

// QueryBy returns a Query with the single criterion f set to value.
func QueryBy(f Field, value string) Query {
	var q Query
	switch f {
	case FieldUsername:
		q.Username = &value
	case FieldEmail:
		q.Email = &value
	case FieldPhone:
		q.Phone = &value
	}
	return q
}

// match reports the first criterion of q that r satisfies, tested in the
// order username, email, phone.
func (q Query) match(r *Record) (Field, string, bool) {
	for _, c := range []struct {
		f Field
		v *string
	}{
		{FieldUsername, q.Username},
		{FieldEmail, q.Email},
		{FieldPhone, q.Phone},
	} {
		if c.v != nil && r.value(c.f) == *c.v {
			return c.f, *c.v, true
		}
	}
	return "", "", false
}

// Match is a Record found by Store.Search along with the criterion it
// satisfied.
type Match struct {
	Record
	By    Field
	Value string
}
