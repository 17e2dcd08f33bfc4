package crossword

import (
	"errors"
	"fmt"
)

// ErrInvalidEntry is matched by every *ValidationError returned from Derive.
var ErrInvalidEntry = errors.New("invalid entry")

const KindInvalidEntry = "InvalidEntry"

// ValidationError describes an entry list that cannot back a consistent grid.
// Index is the entry's position in the authored list, or -1 when the failure
// concerns the list as a whole.
type ValidationError struct {
	Kind   string
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: entries[%d].%s: %s", e.Kind, e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEntry
}

func invalid(index int, field, format string, args ...any) error {
	return &ValidationError{
		Kind:   KindInvalidEntry,
		Index:  index,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
