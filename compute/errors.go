package compute

import (
	"fmt"
	"net/http"
	"strings"
)

// KeyValue is a diagnostic detail attached to a platform error.
type KeyValue struct {
	Key   string
	Value string
}

// PlatformError is returned when a batch platform rejects a request.
type PlatformError struct {
	Backend    string
	Op         string
	StatusCode int
	Code       string
	Message    string
	Values     []KeyValue
	Err        error
}

func (e *PlatformError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Backend, e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", firstLine(e.Message))
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Conflict reports whether the platform rejected the request because the
// job or task already exists.
func (e *PlatformError) Conflict() bool {
	return e.StatusCode == http.StatusConflict ||
		strings.HasSuffix(e.Code, "Exists") ||
		strings.HasSuffix(e.Code, "AlreadyExists")
}

// LogFields returns the error detail as key/value pairs for structured logging.
func (e *PlatformError) LogFields() []interface{} {
	f := []interface{}{
		"backend", e.Backend,
		"op", e.Op,
	}
	if e.StatusCode != 0 {
		f = append(f, "statusCode", e.StatusCode)
	}
	if e.Code != "" {
		f = append(f, "code", e.Code)
	}
	if e.Message != "" {
		f = append(f, "message", e.Message)
	}
	for _, kv := range e.Values {
		f = append(f, kv.Key, kv.Value)
	}
	return f
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
