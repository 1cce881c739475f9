package funds

import "fmt"

// ProtocolError reports invalid churn evidence: a proposal or accumulation
// from a peer that does not fit the current round. The peer is cooperating
// but stale, so callers surface the error without tearing anything down.
type ProtocolError struct {
	msg string
}

// NewProtocolError formats a new ProtocolError.
func NewProtocolError(format string, args ...interface{}) ProtocolError {
	return ProtocolError{msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e ProtocolError) Error() string {
	return e.msg
}

// IsProtocolError checks whether an error is a churn protocol violation.
func IsProtocolError(err error) bool {
	_, ok := err.(ProtocolError)
	return ok
}
