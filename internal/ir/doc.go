// Package ir defines the intermediate representation the elaborator emits.
//
// This package contains type definitions, canonical serialization, and
// content hashing only. All other internal packages import ir; ir imports
// nothing internal, keeping it the foundational layer with no circular
// dependencies.
//
// Lift statements (Stmt) are emitted in strict surface evaluation order
// and concatenated, never reordered; downstream stages depend on that
// order to replay side effects faithfully. Canonical JSON follows RFC 8785
// so program identity is stable across runs and platforms.
package ir
