package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sevenofnine/scheduler/internal/store"
)

var (
	ErrNotFound     = store.ErrNotFound
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%v: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidField(name, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{name: msg}}
}
