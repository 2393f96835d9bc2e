// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package envelope serializes cache values for the durable store.
//
// Values are always written as
//
//	{"value": <json>, "writtenAt": <epoch ms>, "expiresIn": <ms>|null}
//
// Older payloads may be either {"value", "writtenAt"} with no expiry field, or
// the bare JSON value. Decode accepts all three.
package envelope
