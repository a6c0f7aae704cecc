// Package repository defines error types that are reused across multiple
// repositories.  Handlers use errors.Is against these sentinels to choose
// between a 404 and a generic 500.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the addressed row does not exist, including
// updates and deletes that matched nothing.
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is the user flavour of ErrNotFound; errors.Is matches
// both.
var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
