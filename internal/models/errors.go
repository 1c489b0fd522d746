package models

import "errors"

// Custom errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateKey  = errors.New("duplicate key violation")
	ErrInvalidID     = errors.New("invalid ID format")
	ErrInvalidConfig = errors.New("INVALID_CONFIG")
	ErrInvalidPrice  = errors.New("invalid American price")
	ErrTerminalBet   = errors.New("bet already in a terminal state")
)

// Outcome is an expected, recoverable result the caller must branch on.
// None of these are errors.
type Outcome string

const (
	OutcomeOK               Outcome = "OK"
	OutcomeDataUnavailable  Outcome = "DATA_UNAVAILABLE"
	OutcomeStaleData        Outcome = "STALE_DATA"
	OutcomeNoEdge           Outcome = "NO_EDGE"
	OutcomeGradingAmbiguous Outcome = "GRADING_AMBIGUOUS"
)
