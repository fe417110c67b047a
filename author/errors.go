package author

import (
	"fmt"
	"strings"
)

// MalformedAuthorFileError is returned when an author document can't be
// parsed at all.
type MalformedAuthorFileError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *MalformedAuthorFileError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("author: malformed author file %s:%d:%d: %v", path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("author: malformed author file %s: %v", path, e.Err)
}

func (e *MalformedAuthorFileError) Unwrap() error { return e.Err }

// MalformedAuthorError is returned for a parseable document holding an
// invalid author entry.
type MalformedAuthorError struct {
	Initials string
	Reason   string
}

func (e *MalformedAuthorError) Error() string {
	return fmt.Sprintf("author: malformed author %q: %s", e.Initials, e.Reason)
}

type UnknownAuthorError struct {
	Initials []string
}

func (e *UnknownAuthorError) Error() string {
	return fmt.Sprintf("author: unknown author initials: %s (add them to your authors file)", strings.Join(e.Initials, ", "))
}
