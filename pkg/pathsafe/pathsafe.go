// Package pathsafe holds the pure boundary checks used by the finder and the
// repository root search. Nothing here touches the filesystem.
package pathsafe

import (
	"fmt"
	"path/filepath"
	"strings"

	"pathscout/pkg/fserrors"
)

// IsWithinRoot reports whether candidate is root itself or lies beneath it.
// Both paths are cleaned first; relative paths are compared as given.
func IsWithinRoot(candidate, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// NewViolation builds a CONSTRAINT_VIOLATION error for path escaping root.
func NewViolation(path, root, reason string) *fserrors.Error {
	msg := "path escapes allowed root"
	if reason != "" {
		msg = reason
	}
	return fserrors.New(fserrors.CodeConstraintViolation, msg).
		WithPath(path).
		WithContext("expectedRoot", root)
}

// ValidateRoot checks that a constraint's root encloses the query root.
// A mismatch is a configuration error, never a per-file violation.
func ValidateRoot(c *Constraint, queryRealRoot string) error {
	if c == nil || c.Root == "" {
		return nil
	}
	if IsWithinRoot(queryRealRoot, c.Root) {
		return nil
	}
	return fserrors.New(fserrors.CodeInvalidConfig,
		fmt.Sprintf("query root is outside the configured %s constraint", c.Kind())).
		WithPath(queryRealRoot).
		WithContext("constraintRoot", c.Root).
		WithContext("enforcement", c.Enforcement.String())
}
