// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// petcache is a command line tool for inspecting and editing the persistent
// TTL cache the pet health app keeps on devices and in S3.
package main
