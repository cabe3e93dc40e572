package storage

import "fmt"

// ErrUnsupportedProtocol is returned when a url's scheme is not the one the
// storage backend serves.
type ErrUnsupportedProtocol struct {
	backend string
}

func (e *ErrUnsupportedProtocol) Error() string {
	return fmt.Sprintf("%s: unsupported protocol", e.backend)
}

// ErrInvalidURL is returned when a url has no bucket.
type ErrInvalidURL struct {
	backend string
}

func (e *ErrInvalidURL) Error() string {
	return fmt.Sprintf("%s: invalid url", e.backend)
}
