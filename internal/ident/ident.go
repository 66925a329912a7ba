// Package ident produces globally-unique opaque identifiers for cases,
// events, and tasks.
package ident

import "github.com/google/uuid"

// New returns a fresh opaque identifier.
func New() string {
	return uuid.NewString()
}
