package emission

import "errors"

// Sentinel errors returned by the strict engine operations.
var (
	ErrUnknownMode      = errors.New("unknown transport mode")
	ErrNegativeDistance = errors.New("distance must be a finite number >= 0")
	ErrZeroBaseline     = errors.New("baseline emission is zero")
	ErrNegativeAmount   = errors.New("amount must be a finite number >= 0")
)
