// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrParse marks a payload that is not JSON, or whose value doesn't fit the
// type asked for.
var ErrParse = errors.New("envelope parse")

// Shape is the on-disk layout a payload was found in.
type Shape int

const (
	// ShapeRaw is a bare JSON value with no timestamp.
	ShapeRaw Shape = iota
	// ShapeTimestamped is {"value", "writtenAt"} without an expiry field.
	ShapeTimestamped
	// ShapeExplicit is the current {"value", "writtenAt", "expiresIn"} form.
	ShapeExplicit
)

func (s Shape) String() string {
	switch s {
	case ShapeRaw:
		return "raw"
	case ShapeTimestamped:
		return "timestamped"
	case ShapeExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Envelope is the stored form of a value.
type Envelope struct {
	Value     json.RawMessage `json:"value"`
	WrittenAt int64           `json:"writtenAt"`
	// ExpiresIn is the TTL in milliseconds configured at write time, or nil.
	ExpiresIn *int64 `json:"expiresIn"`
}

// Encode marshals value into an Envelope stamped with writtenAt. A ttl <= 0
// writes a null expiry.
func Encode(value any, writtenAt time.Time, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}

	env := Envelope{
		Value:     raw,
		WrittenAt: writtenAt.UnixMilli(),
	}
	if ttl > 0 {
		// Rounded up so a sub-millisecond TTL isn't stored as 0.
		ms := int64((ttl + time.Millisecond - 1) / time.Millisecond)
		env.ExpiresIn = &ms
	}

	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(b), nil
}

// Decoded is a payload read back from the store.
type Decoded struct {
	Shape Shape
	Value json.RawMessage
	// WrittenAt is zero for ShapeRaw.
	WrittenAt time.Time
	// TTL is the expiry recorded at write time; zero when none was recorded.
	TTL time.Duration
}

// Decode works out which shape payload is in and splits it apart. A payload
// counts as enveloped only if it is an object with a "value" member and a
// numeric "writtenAt" member; anything else valid is a raw value.
func Decode(payload string) (Decoded, error) {
	payload = strings.TrimSpace(payload)
	if !gjson.Valid(payload) {
		return Decoded{}, fmt.Errorf("%w: payload is not valid JSON", ErrParse)
	}

	r := gjson.Parse(payload)
	value, writtenAt := r.Get("value"), r.Get("writtenAt")
	if !r.IsObject() || !value.Exists() || writtenAt.Type != gjson.Number {
		return Decoded{Shape: ShapeRaw, Value: json.RawMessage(payload)}, nil
	}

	d := Decoded{
		Shape:     ShapeTimestamped,
		Value:     json.RawMessage(value.Raw),
		WrittenAt: time.UnixMilli(writtenAt.Int()),
	}

	expiresIn := r.Get("expiresIn")
	if !expiresIn.Exists() {
		return d, nil
	}

	d.Shape = ShapeExplicit
	switch expiresIn.Type {
	case gjson.Null:
	case gjson.Number:
		d.TTL = time.Duration(expiresIn.Int()) * time.Millisecond
	default:
		return Decoded{}, fmt.Errorf("%w: expiresIn is %s", ErrParse, expiresIn.Type)
	}
	return d, nil
}

// Deadline returns when the payload expires under ttl, falling back to the
// TTL recorded in the payload when ttl is zero. The zero time means never.
func (d Decoded) Deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = d.TTL
	}
	if ttl <= 0 || d.WrittenAt.IsZero() {
		return time.Time{}
	}
	return d.WrittenAt.Add(ttl)
}

// Expired reports whether the payload is past its deadline at now.
func (d Decoded) Expired(now time.Time, ttl time.Duration) bool {
	deadline := d.Deadline(ttl)
	return !deadline.IsZero() && now.After(deadline)
}

// Unmarshal decodes the payload's value into a T.
func Unmarshal[T any](d Decoded) (T, error) {
	var v T
	if err := json.Unmarshal(d.Value, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return v, nil
}
