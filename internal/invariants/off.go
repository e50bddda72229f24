// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

//go:build !debug

package invariants

// Enabled is false in production.
// Enable with -tags debug for runtime checks.
const Enabled = false
