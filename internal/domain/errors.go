// Package domain contains ChatKit entities and the error taxonomy shared by
// the client core, the transport adapter and the application layer.
// Errors here are transport-agnostic: they describe what went wrong, not how
// the failure was carried over the wire.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInvalidLocator indicates a malformed instance locator.
	ErrInvalidLocator = errors.New("invalid instance locator")

	// ErrInvalidAPIKey indicates a malformed "key_id:key_secret" API key.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrUnknownService indicates a service key missing from the registry.
	ErrUnknownService = errors.New("unknown service")

	// ErrBadRequest is produced for HTTP 400 responses.
	ErrBadRequest = errors.New("bad request")

	// ErrBadAuth is produced for HTTP 401 responses.
	ErrBadAuth = errors.New("bad auth")

	// ErrForbidden is produced for HTTP 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is produced for HTTP 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrBadStatus is produced for any status without a dedicated kind.
	ErrBadStatus = errors.New("bad status")

	// ErrParse indicates a success response whose body is not valid JSON.
	ErrParse = errors.New("parse error")

	// ErrValidation indicates caller arguments were rejected before dispatch.
	ErrValidation = errors.New("validation failed")
)

// LocatorError provides context for a malformed instance locator.
type LocatorError struct {
	Locator  string
	Segments int
}

// Error implements the error interface.
func (e *LocatorError) Error() string {
	return fmt.Sprintf("instance locator %q has %d segment(s), want version:cluster:instance_id", e.Locator, e.Segments)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *LocatorError) Unwrap() error {
	return ErrInvalidLocator
}

// NewLocatorError creates a locator error with context.
func NewLocatorError(locator string, segments int) error {
	return &LocatorError{Locator: locator, Segments: segments}
}

// APIKeyError reports a malformed API key. The key itself is never included.
type APIKeyError struct {
	Reason string
}

// Error implements the error interface.
func (e *APIKeyError) Error() string {
	return "invalid api key: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *APIKeyError) Unwrap() error {
	return ErrInvalidAPIKey
}

// NewAPIKeyError creates an API key error with context.
func NewAPIKeyError(reason string) error {
	return &APIKeyError{Reason: reason}
}

// UnknownServiceError provides context for a failed registry lookup.
type UnknownServiceError struct {
	Service string
}

// Error implements the error interface.
func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnknownServiceError) Unwrap() error {
	return ErrUnknownService
}

// NewUnknownServiceError creates an unknown service error.
func NewUnknownServiceError(service string) error {
	return &UnknownServiceError{Service: service}
}

// BadRequestError carries the raw body of a 400 response.
type BadRequestError struct {
	Body string
}

// Error implements the error interface.
func (e *BadRequestError) Error() string {
	return "bad request: " + e.Body
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *BadRequestError) Unwrap() error {
	return ErrBadRequest
}

// BadAuthError carries the raw body of a 401 response.
type BadAuthError struct {
	Body string
}

// Error implements the error interface.
func (e *BadAuthError) Error() string {
	return "bad auth: " + e.Body
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *BadAuthError) Unwrap() error {
	return ErrBadAuth
}

// ForbiddenError carries the raw body of a 403 response.
type ForbiddenError struct {
	Body string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Body
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NotFoundError is produced for 404 responses and carries no detail.
type NotFoundError struct{}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return "not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BadStatusError covers every status without a dedicated kind.
type BadStatusError struct {
	Status int
	Body   string
	Detail string
}

// Error implements the error interface.
// The format is "<status>: <body> (<detail>)".
func (e *BadStatusError) Error() string {
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Body, e.Detail)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *BadStatusError) Unwrap() error {
	return ErrBadStatus
}

// ParseError reports a success body that could not be decoded.
type ParseError struct {
	Body string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing response body: %v", e.Err)
}

// Unwrap exposes both the sentinel and the decoder error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// NewParseError creates a parse error wrapping the decoder failure.
func NewParseError(body string, err error) error {
	return &ParseError{Body: body, Err: err}
}

// ValidationError provides context for rejected arguments.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsInvalidLocator checks if an error is a locator configuration error.
func IsInvalidLocator(err error) bool {
	return errors.Is(err, ErrInvalidLocator)
}

// IsInvalidAPIKey checks if an error is an API key configuration error.
func IsInvalidAPIKey(err error) bool {
	return errors.Is(err, ErrInvalidAPIKey)
}

// IsUnknownService checks if an error is a registry lookup error.
func IsUnknownService(err error) bool {
	return errors.Is(err, ErrUnknownService)
}

// IsBadRequest checks if an error is a bad request error.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsBadAuth checks if an error is a bad auth error.
func IsBadAuth(err error) bool {
	return errors.Is(err, ErrBadAuth)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBadStatus checks if an error is a bad status error.
func IsBadStatus(err error) bool {
	return errors.Is(err, ErrBadStatus)
}

// IsParse checks if an error is a response parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
