package domain

import "errors"

// Ledger rejection taxonomy. All are local, recoverable conditions at the
// granularity of one snapshot; none should terminate the orchestrating
// process. ErrInvariantViolation marks inputs that should never have reached
// the ledger stage and must stay distinguishable from ordinary rejections.
var (
	ErrInsufficientCapital   = errors.New("insufficient capital")
	ErrPositionLimitExceeded = errors.New("position limit exceeded")
	ErrInvariantViolation    = errors.New("invariant violation")
)
