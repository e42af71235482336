package starkverifier

import "fmt"

// ErrorCode classifies a verifier error
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrUnsupportedVariant represents an unknown variant tag
	ErrUnsupportedVariant

	// ErrDecode represents a malformed proof bundle or verifying key
	ErrDecode

	// ErrAssembly represents a bundle whose segment and key counts differ
	ErrAssembly

	// ErrVerificationFailure represents a machine that could not check the proof
	ErrVerificationFailure
)

// String returns the error code name
func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidConfig:
		return "invalid config"
	case ErrUnsupportedVariant:
		return "unsupported variant"
	case ErrDecode:
		return "decode"
	case ErrAssembly:
		return "assembly"
	case ErrVerificationFailure:
		return "verification failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is, matching any VerifierError with the same code.
var (
	InvalidConfig       = &VerifierError{Code: ErrInvalidConfig}
	UnsupportedVariant  = &VerifierError{Code: ErrUnsupportedVariant}
	DecodeFailure       = &VerifierError{Code: ErrDecode}
	AssemblyFailure     = &VerifierError{Code: ErrAssembly}
	VerificationFailure = &VerifierError{Code: ErrVerificationFailure}
)

// VerifierError represents a verification boundary error
type VerifierError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *VerifierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stark-verifier error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("stark-verifier error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *VerifierError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *VerifierError) Is(target error) bool {
	t, ok := target.(*VerifierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
