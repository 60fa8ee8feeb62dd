package scheduling

import "errors"

// ErrInsufficientIdentifier reports a cancel request that names neither a
// booking id nor the full (phone, date, time) key.
var ErrInsufficientIdentifier = errors.New("scheduling: insufficient identifying information")

// InsufficientIdentifierError carries what the caller did supply, for logging.
type InsufficientIdentifierError struct {
	Phone string
	Date  string
	Time  string
}

func (e *InsufficientIdentifierError) Error() string {
	return "scheduling: cancel needs a booking id, or phone plus date plus time"
}

func (e *InsufficientIdentifierError) Unwrap() error { return ErrInsufficientIdentifier }
