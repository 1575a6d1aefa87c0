package jolt

import (
	"errors"
	"fmt"
)

// Common errors for transform operations
var (
	ErrInvalidJSON      = errors.New("invalid json document")
	ErrSpecSyntax       = errors.New("invalid spec syntax")
	ErrPathTypeConflict = errors.New("output path type conflict")
)

// SpecSyntaxError reports a structural problem in a spec document: a branch
// value of the wrong type, a malformed pattern or template, or an unsupported
// operation. Path is the dotted location of the offending element inside the
// spec document.
type SpecSyntaxError struct {
	Path   string
	Reason string
}

func (e *SpecSyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid spec syntax: %s", e.Reason)
	}
	return fmt.Sprintf("invalid spec syntax at %q: %s", e.Path, e.Reason)
}

func (e *SpecSyntaxError) Is(target error) bool {
	return target == ErrSpecSyntax
}

func specErr(path, format string, args ...interface{}) error {
	return &SpecSyntaxError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// PathTypeConflictError reports a write whose resolved output path runs into
// a container of the wrong shape, such as an object key segment landing on an
// existing array. Path is the resolved output path up to and including the
// conflicting segment; Existing names the shape already occupying the slot.
type PathTypeConflictError struct {
	Path     string
	Existing string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("output path type conflict at %q: %s already present", e.Path, e.Existing)
}

func (e *PathTypeConflictError) Is(target error) bool {
	return target == ErrPathTypeConflict
}
