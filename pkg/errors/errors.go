// Package errors provides the error taxonomy for the reconciliation engine.
// These errors enable programmatic error checking across the fetch, compute
// and write phases of a reconciliation run.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Common sentinel errors for the reconciliation engine.
var (
	// ErrUpstreamUnavailable indicates a non-success or malformed response
	// from the CRM during a fetch. Fatal to the current task.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpdateFailed indicates a single record write was rejected.
	// Recorded per record; never aborts the batch.
	ErrUpdateFailed = errors.New("record update failed")

	// ErrConfigIncomplete indicates a required configuration key is absent.
	// Fatal at task start, before any network call.
	ErrConfigIncomplete = errors.New("configuration incomplete")

	// ErrNotFound indicates a requested remote record was not found.
	ErrNotFound = errors.New("not found")
)

// APIError represents a failed call to the CRM REST API.
type APIError struct {
	Method     string // API method, e.g. "crm.item.list"
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bitrix %s failed (status %d): %s", e.Method, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("bitrix %s failed: %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *APIError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// UpdateError represents a single failed write to a remote record.
type UpdateError struct {
	EntityTypeID int64
	RecordID     int64
	Err          error
}

// Error implements the error interface.
func (e *UpdateError) Error() string {
	return fmt.Sprintf("update of record %d (entity type %d) failed: %v", e.RecordID, e.EntityTypeID, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *UpdateError) Is(target error) bool {
	return target == ErrUpdateFailed
}

// ConfigError represents a missing or invalid configuration key.
type ConfigError struct {
	Key     string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config key %q: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("config: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigIncomplete
}

// WrapParse wraps a parse error with format context.
func WrapParse(format, what string, err error) error {
	return fmt.Errorf("parse %s %s: %w", format, what, err)
}

// WrapResource wraps an error with action and resource context.
func WrapResource(action, resource, name string, err error) error {
	if name != "" {
		return fmt.Errorf("%s %s %s: %w", action, resource, name, err)
	}
	return fmt.Errorf("%s %s: %w", action, resource, err)
}
