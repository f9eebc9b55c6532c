// Package ir provides the document representation shared by every other
// internal package.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Record keeps insertion order; entity output order is part of the contract
//   - MarshalCanonical ignores Record order and is used only for digests
//   - All JSON keys use snake_case
package ir
