package query

import "fmt"

// UnknownOperatorError reports a filter argument whose operator suffix is not
// in the supported set. The offending suffix is always named; unsupported
// operators are never silently ignored.
type UnknownOperatorError struct {
	Suffix string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown filter operator %q", e.Suffix)
}

// InvalidFilterError reports a filter argument whose value could not be
// rendered as a literal.
type InvalidFilterError struct {
	Field string
	Err   error
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter value for %q: %v", e.Field, e.Err)
}

func (e *InvalidFilterError) Unwrap() error {
	return e.Err
}
