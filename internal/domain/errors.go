package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tells the host what went wrong at a coarse level.
type ErrorKind string

const (
	// KindConfiguration covers an unusable session: undecodable data or an
	// expired session. Always fatal.
	KindConfiguration ErrorKind = "configuration"
	// KindValidation carries a failure reported by the backend.
	KindValidation ErrorKind = "validation"
	// KindTransport covers IO, HTTP and decoding failures.
	KindTransport ErrorKind = "transport"
	// KindProtocol covers impossible states, such as an unknown response
	// type or a call that has no stored context to act on.
	KindProtocol ErrorKind = "protocol"
)

// CheckoutError is the only error type that reaches a host's ErrorHandler.
type CheckoutError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Payload string
	Fatal   bool
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// Checkout error codes that are not backend error codes.
const (
	ErrCodeSessionDecode        = "SESSION_DECODE"
	ErrCodeUnknownResponseType  = "UNKNOWN_RESPONSE_TYPE"
	ErrCodeMissingContext       = "MISSING_CONTEXT"
	ErrCodeNotOneClick          = "NOT_ONE_CLICK"
	ErrCodeDeletionFailed       = "DELETION_FAILED"
	ErrCodeMissingDetail        = "MISSING_DETAIL"
	ErrCodeRequestFailed        = "REQUEST_FAILED"
	ErrCodeInvalidRedirectQuery = "INVALID_REDIRECT_QUERY"
)

var ErrUnknownResponseType = errors.New("unknown payment initiation response type")

func NewSessionDecodeError(err error) *CheckoutError {
	return &CheckoutError{
		Kind:    KindConfiguration,
		Code:    ErrCodeSessionDecode,
		Message: "Error parsing payment session data.",
		Fatal:   true,
		Err:     err,
	}
}

// NewBackendError converts error fields sent by the backend. Only an expired
// session is fatal.
func NewBackendError(fields *ErrorFields) *CheckoutError {
	kind := KindValidation
	fatal := fields.ErrorCode == ErrorCodePaymentSessionExpired
	if fatal {
		kind = KindConfiguration
	}
	return &CheckoutError{
		Kind:    kind,
		Code:    string(fields.ErrorCode),
		Message: fields.ErrorMessage,
		Payload: fields.Payload,
		Fatal:   fatal,
	}
}

// NewTransportError wraps a failure that is not already a CheckoutError.
func NewTransportError(message string, err error) *CheckoutError {
	return &CheckoutError{
		Kind:    KindTransport,
		Code:    ErrCodeRequestFailed,
		Message: message,
		Err:     err,
	}
}

func NewProtocolError(code, message string, err error) *CheckoutError {
	return &CheckoutError{
		Kind:    KindProtocol,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewMissingDetailError(key string) *CheckoutError {
	return &CheckoutError{
		Kind:    KindValidation,
		Code:    ErrCodeMissingDetail,
		Message: fmt.Sprintf("%s is required", key),
	}
}

// AsCheckoutError passes a CheckoutError through unchanged and wraps anything
// else as a transport error with the given fallback message.
func AsCheckoutError(err error, fallbackMessage string) *CheckoutError {
	var checkoutErr *CheckoutError
	if errors.As(err, &checkoutErr) {
		return checkoutErr
	}
	return NewTransportError(fallbackMessage, err)
}

// IsCheckoutError reports whether err wraps a CheckoutError.
func IsCheckoutError(err error) (*CheckoutError, bool) {
	var checkoutErr *CheckoutError
	ok := errors.As(err, &checkoutErr)
	return checkoutErr, ok
}

// IsErrorCode checks if an error is a CheckoutError with a specific code
func IsErrorCode(err error, code string) bool {
	if checkoutErr, ok := IsCheckoutError(err); ok {
		return checkoutErr.Code == code
	}
	return false
}
