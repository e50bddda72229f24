// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

//go:build debug

package invariants

// Enabled is true when built with -tags debug.
// Mutating operations then validate the whole tree after every change.
const Enabled = true
