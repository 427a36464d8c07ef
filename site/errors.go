package site

import (
	"errors"
	"fmt"
)

var (
	// ErrLayoutNotFound matches every LayoutNotFoundError.
	ErrLayoutNotFound = errors.New("layout not found")
	// ErrUnsupportedDocument signals a source file no converter is registered for.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// LayoutNotFoundError reports a page whose layout and the default layout are
// both missing.
type LayoutNotFoundError struct {
	Name string
}

func (e *LayoutNotFoundError) Error() string {
	return fmt.Sprintf("layout not found: %s", e.Name)
}

// Is makes errors.Is(err, ErrLayoutNotFound) hold.
func (e *LayoutNotFoundError) Is(target error) bool {
	return target == ErrLayoutNotFound
}
