// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package invariants gates expensive self-checks behind the debug build tag.
package invariants

// Check panics with err when checks are enabled and err is non-nil.
// The check function is not called at all in production builds.
func Check(check func() error) {
	if !Enabled {
		return
	}
	if err := check(); err != nil {
		panic(err)
	}
}
