// Package ir provides the shared data model for process-chain templates and
// module interface descriptions.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - All JSON tags use snake_case and match the actinia process-chain format
//   - Parameter defaults are always strings; absence is distinct from ""
//   - Ordered data is kept in slices, never recovered from map iteration
//   - Hashes use domain separation so identities never collide across kinds
package ir
