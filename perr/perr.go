// Package perr defines the error kinds shared across protocore's packages.
//
// Every package wraps one of these sentinels with fmt.Errorf("...: %w", ...)
// so callers can use errors.Is to distinguish, for example, a malformed wire
// stream from a programmer-misuse IllegalArgument.
package perr

import "errors"

var (
	// ErrMalformed indicates corrupt wire data: truncated input, an overlong
	// varint, invalid UTF-8 in a string field, a negative length, or
	// recursion past the configured limit.
	ErrMalformed = errors.New("protocore: malformed wire data")

	// ErrUninitialized indicates Build was called while one or more required
	// fields were never set.
	ErrUninitialized = errors.New("protocore: required field not set")

	// ErrTypeMismatch indicates a value passed to Set/AddRepeated does not
	// match its field's declared type.
	ErrTypeMismatch = errors.New("protocore: value does not match field type")

	// ErrIllegalArgument indicates a structural misuse of the API, such as
	// calling Has on a repeated field.
	ErrIllegalArgument = errors.New("protocore: illegal argument")

	// ErrOutOfRange indicates an indexed access past the end of a repeated
	// sequence, or an indexed Set on an index that has no element.
	ErrOutOfRange = errors.New("protocore: index out of range")

	// ErrFrozenMutation indicates an attempt to mutate a FieldSet or
	// UnknownFieldSet after it has been frozen.
	ErrFrozenMutation = errors.New("protocore: mutation of frozen value")

	// ErrInvalidProtocolBuffer is the single top-level category that all
	// parse failures are wrapped into, per spec: a malformed wire stream and
	// an Uninitialized result discovered at the end of a parse both surface
	// this way.
	ErrInvalidProtocolBuffer = errors.New("protocore: invalid protocol buffer")
)
