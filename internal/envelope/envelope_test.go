// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var written = time.UnixMilli(1_760_000_000_000)

func TestEncode(t *testing.T) {
	got, err := Encode("pet-123", written, 30*24*time.Hour)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"pet-123","writtenAt":1760000000000,"expiresIn":2592000000}`, got)

	got, err = Encode(map[string]int{"a": 1}, written, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":{"a":1},"writtenAt":1760000000000,"expiresIn":null}`, got)
}

func TestEncode_SubMillisecondTTL(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want string
	}{
		{ttl: time.Nanosecond, want: "1"},
		{ttl: 500 * time.Microsecond, want: "1"},
		{ttl: time.Millisecond, want: "1"},
		{ttl: 1500 * time.Microsecond, want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.ttl.String(), func(t *testing.T) {
			got, err := Encode(true, written, tt.ttl)
			require.NoError(t, err)
			assert.JSONEq(t, `{"value":true,"writtenAt":1760000000000,"expiresIn":`+tt.want+`}`, got)

			d, err := Decode(got)
			require.NoError(t, err)
			assert.Greater(t, d.TTL, time.Duration(0))
			assert.True(t, d.Expired(written.Add(time.Second), 0))
		})
	}
}

func TestEncode_Unmarshalable(t *testing.T) {
	_, err := Encode(make(chan int), written, 0)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantShape Shape
		wantValue string
		wantAt    time.Time
		wantTTL   time.Duration
		wantErr   bool
	}{
		{
			name:      "explicit with ttl",
			payload:   `{"value":"pet-123","writtenAt":1760000000000,"expiresIn":1000}`,
			wantShape: ShapeExplicit,
			wantValue: `"pet-123"`,
			wantAt:    written,
			wantTTL:   time.Second,
		},
		{
			name:      "explicit without ttl",
			payload:   `{"value":[1,2],"writtenAt":1760000000000,"expiresIn":null}`,
			wantShape: ShapeExplicit,
			wantValue: `[1,2]`,
			wantAt:    written,
		},
		{
			name:      "legacy timestamped",
			payload:   `{"value":{"units":"kg"},"writtenAt":1760000000000}`,
			wantShape: ShapeTimestamped,
			wantValue: `{"units":"kg"}`,
			wantAt:    written,
		},
		{
			name:      "legacy raw string",
			payload:   `"pet-123"`,
			wantShape: ShapeRaw,
			wantValue: `"pet-123"`,
		},
		{
			name:      "raw object that only looks similar",
			payload:   `{"value":"x","writtenAt":"yesterday"}`,
			wantShape: ShapeRaw,
			wantValue: `{"value":"x","writtenAt":"yesterday"}`,
		},
		{
			name:      "raw null",
			payload:   `null`,
			wantShape: ShapeRaw,
			wantValue: `null`,
		},
		{
			name:    "not json",
			payload: `{"value":`,
			wantErr: true,
		},
		{
			name:    "bad expiry type",
			payload: `{"value":1,"writtenAt":1,"expiresIn":"soon"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantShape, d.Shape)
			assert.JSONEq(t, tt.wantValue, string(d.Value))
			assert.True(t, tt.wantAt.Equal(d.WrittenAt), "writtenAt %v", d.WrittenAt)
			assert.Equal(t, tt.wantTTL, d.TTL)
		})
	}
}

func TestDecoded_Expired(t *testing.T) {
	stamped := Decoded{Shape: ShapeExplicit, WrittenAt: written, TTL: time.Minute}
	raw := Decoded{Shape: ShapeRaw}

	tests := []struct {
		name string
		d    Decoded
		now  time.Time
		ttl  time.Duration
		want bool
	}{
		{name: "stored ttl not yet", d: stamped, now: written.Add(30 * time.Second), want: false},
		{name: "stored ttl passed", d: stamped, now: written.Add(2 * time.Minute), want: true},
		{name: "config ttl wins", d: stamped, now: written.Add(30 * time.Second), ttl: 10 * time.Second, want: true},
		{name: "no ttl anywhere", d: Decoded{Shape: ShapeTimestamped, WrittenAt: written}, now: written.Add(1000 * time.Hour), want: false},
		{name: "raw never expires", d: raw, now: written.Add(1000 * time.Hour), ttl: time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Expired(tt.now, tt.ttl))
		})
	}
}

func TestUnmarshal(t *testing.T) {
	d, err := Decode(`{"value":{"species":"cat","ageYears":4},"writtenAt":1}`)
	require.NoError(t, err)

	type pet struct {
		Species  string `json:"species"`
		AgeYears int    `json:"ageYears"`
	}
	p, err := Unmarshal[pet](d)
	require.NoError(t, err)
	assert.Equal(t, pet{Species: "cat", AgeYears: 4}, p)

	_, err = Unmarshal[int](d)
	assert.ErrorIs(t, err, ErrParse)
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "raw", ShapeRaw.String())
	assert.Equal(t, "timestamped", ShapeTimestamped.String())
	assert.Equal(t, "explicit", ShapeExplicit.String())
	assert.Equal(t, "unknown", Shape(42).String())
}
