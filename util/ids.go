package util

import (
	"regexp"

	"github.com/rs/xid"
)

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// GenID generates a random ID string.
// IDs are globally unique and sortable.
func GenID() string {
	return xid.New().String()
}

// SafeID replaces characters which batch platforms reject in job and
// task identifiers with underscores.
func SafeID(s string) string {
	return unsafeIDChars.ReplaceAllString(s, "_")
}
