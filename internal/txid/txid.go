// Package txid generates sale transaction identifiers. IDs are random
// rather than timestamp-derived so two checkouts in the same instant can
// never collide.
package txid

import "github.com/google/uuid"

const prefix = "TXN-"

func New() string {
	return prefix + uuid.NewString()
}

// Valid reports whether s is an identifier this package could have issued.
func Valid(s string) bool {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return false
	}
	_, err := uuid.Parse(s[len(prefix):])
	return err == nil
}
