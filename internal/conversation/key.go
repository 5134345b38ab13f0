// Package conversation derives the canonical key that groups personal
// messages between two identities. Messages written under key K are only
// ever read back under key K, so sender and recipient must derive it
// identically.
package conversation

import (
	"errors"
	"strings"
)

// Separator joins the two identity IDs. It is not permitted inside an
// identity ID.
const Separator = "_"

var ErrInvalidArgument = errors.New("conversation: invalid identity id")

// Key returns the order-independent key for a pair of identity IDs:
// the two IDs sorted lexicographically and joined with Separator.
// Key(a, b) == Key(b, a) for all valid pairs.
func Key(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", ErrInvalidArgument
	}
	if strings.Contains(a, Separator) || strings.Contains(b, Separator) {
		return "", ErrInvalidArgument
	}
	if a > b {
		a, b = b, a
	}
	return a + Separator + b, nil
}
