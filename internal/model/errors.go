package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownService      = errors.New("unknown service")
	ErrExtensionConflict   = errors.New("extension conflict")
	ErrMissingPipelineName = errors.New("service consumes another but has no pipeline name")
	ErrDuplicateService    = errors.New("duplicate service")
	ErrInvalidService      = errors.New("invalid service declaration")
	ErrUnsupportedFormat   = errors.New("unsupported declaration format")
)

// UnknownServiceError lists the explicitly enabled names, which are not
// declared.
type UnknownServiceError struct {
	Names []string
}

func (e UnknownServiceError) Error() string {
	return fmt.Sprintf("service %s not found but was explicitly enabled", strings.Join(e.Names, ", "))
}

func (e UnknownServiceError) Unwrap() error {
	return ErrUnknownService
}

// ExtensionConflictError is returned when an extension would overwrite
// a field set by the declaration.
type ExtensionConflictError struct {
	Service   string
	Extension string
	Field     string
}

func (e ExtensionConflictError) Error() string {
	return fmt.Sprintf("service %s: extension `%s` would clobber %s", e.Service, e.Extension, e.Field)
}

func (e ExtensionConflictError) Unwrap() error {
	return ErrExtensionConflict
}
