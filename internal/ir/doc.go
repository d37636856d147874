// Package ir provides the value model shared by every layer of the state-view
// document store.
//
// Document fields, query arguments and backend projections are all expressed
// as IRValue trees. ir imports nothing internal, so it stays the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Numbers are IRInt when integral and IRFloat otherwise; the two compare
//     numerically and exactly, and canonical JSON writes integral values
//     without a fraction so every backend sees the same type
//   - Canonical JSON (sorted keys, NFC strings) is the only encoding used for
//     persisted data and content hashes
//   - Field paths are dot-separated; arrays are traversed existentially (see
//     Resolve) and identically by the Go evaluator and the SQL compiler
package ir
