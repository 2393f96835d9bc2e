// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"

	diff "github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Diff renders the change from before to after, both JSON documents, as an
// ASCII delta. changed is false when they are equal. A nil before is treated
// as absent.
func Diff(before, after json.RawMessage, color bool) (out string, changed bool, err error) {
	// The differ only compares objects, so both sides are wrapped.
	left, err := wrap(before)
	if err != nil {
		return "", false, fmt.Errorf("before: %w", err)
	}
	right, err := wrap(after)
	if err != nil {
		return "", false, fmt.Errorf("after: %w", err)
	}

	d, err := diff.New().Compare(left, right)
	if err != nil {
		return "", false, err
	}
	if !d.Modified() {
		return "", false, nil
	}

	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return "", false, err
	}

	f := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	out, err = f.Format(d)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

func wrap(v json.RawMessage) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	if !json.Valid(v) {
		return nil, fmt.Errorf("invalid JSON %q", string(v))
	}
	return json.Marshal(map[string]json.RawMessage{"value": v})
}
