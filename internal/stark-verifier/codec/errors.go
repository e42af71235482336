package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the input ends inside a value.
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrLengthOverflow is returned when a length prefix claims more items
	// than the remaining input can hold.
	ErrLengthOverflow = errors.New("length prefix exceeds remaining input")

	// ErrNonCanonical is returned for field elements outside [0, p).
	ErrNonCanonical = errors.New("non-canonical field element")

	// ErrInvalidTag is returned for bool and option tags other than 0 or 1.
	ErrInvalidTag = errors.New("invalid tag byte")

	// ErrInvalidUTF8 is returned for strings that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 string")

	// ErrTrailingBytes is returned when input remains after the top-level value.
	ErrTrailingBytes = errors.New("trailing bytes after value")

	// ErrTooLarge is returned when the input exceeds the configured limit.
	ErrTooLarge = errors.New("input exceeds size limit")
)

// DecodeError reports a malformed input. Target names the structure that was
// being decoded and Offset the byte position the fault was detected at.
type DecodeError struct {
	Target string
	Offset int
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decoding %s at offset %d: %v", e.Target, e.Offset, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
