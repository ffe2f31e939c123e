// Package id generates ULID strings for trade records.
//
// ULIDs are lexicographically sortable by generation time, which keeps
// journal tables and trade logs naturally ordered.
package id

import "github.com/oklog/ulid/v2"

// New returns a new ULID string.
func New() string {
	return ulid.Make().String()
}
