package node

import "fmt"

// ErrType classifies the failures the dispatcher surfaces to its caller.
type ErrType uint32

const (
	// NoChunks means a chunk duty arrived while the chunk store subsystem is
	// not active (the node is not an Adult).
	NoChunks ErrType = iota
	// NoMetadata means a metadata duty arrived while the node is not an
	// Elder.
	NoMetadata
	// NoTransfers means a transfer duty arrived while the node is not an
	// Elder.
	NoTransfers
	// NoSectionFunds means a reward duty arrived while the node is not an
	// Elder.
	NoSectionFunds
	// NotChurning means a churn duty arrived while no reward round is open.
	NotChurning
	// NodeNotFoundForReward means a wallet registration referenced a node
	// that is not a current section member.
	NodeNotFoundForReward
)

// Error is a typed node failure. Role mismatches and not-found conditions
// indicate a genuine local inconsistency and are surfaced, never swallowed.
type Error struct {
	errType ErrType
	detail  string
}

// NewError ...
func NewError(errType ErrType) Error {
	return Error{errType: errType}
}

// NewErrorf creates an error with a formatted detail string.
func NewErrorf(errType ErrType, format string, args ...interface{}) Error {
	return Error{errType: errType, detail: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e Error) Error() string {
	m := ""
	switch e.errType {
	case NoChunks:
		m = "Chunk subsystem not active"
	case NoMetadata:
		m = "Metadata subsystem not active"
	case NoTransfers:
		m = "Transfer subsystem not active"
	case NoSectionFunds:
		m = "Section funds subsystem not active"
	case NotChurning:
		m = "No reward round open"
	case NodeNotFoundForReward:
		m = "Node not found for reward registration"
	}
	if e.detail != "" {
		return m + ": " + e.detail
	}
	return m
}

// IsRoleMismatch checks whether an error reports a duty requiring a
// subsystem that is currently absent.
func IsRoleMismatch(err error) bool {
	nodeErr, ok := err.(Error)
	if !ok {
		return false
	}
	switch nodeErr.errType {
	case NoChunks, NoMetadata, NoTransfers, NoSectionFunds, NotChurning:
		return true
	}
	return false
}

// IsNotFound checks whether an error reports an unknown node identity.
func IsNotFound(err error) bool {
	nodeErr, ok := err.(Error)
	return ok && nodeErr.errType == NodeNotFoundForReward
}
