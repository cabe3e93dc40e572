package fsutil

import (
	"time"
)

// Hostfile describes a file found by Glob.
type Hostfile struct {
	// The path relative to the root given to Glob().
	Rel string
	// The absolute path of the file on the host.
	Abs string
	// Size in bytes.
	Size int64
	// LastModified time
	LastModified time.Time
}
