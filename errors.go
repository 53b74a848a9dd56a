package connections

import (
	"errors"
)

var (
	// ErrInvalidCell is returned for a cell index outside [0, numCells).
	ErrInvalidCell = errors.New("invalid cell id")

	// ErrInvalidSegment is returned for a segment id that was never created
	// or has been destroyed.
	ErrInvalidSegment = errors.New("invalid segment id")

	// ErrInvalidSynapse is returned for a synapse id that was never created
	// or has been destroyed.
	ErrInvalidSynapse = errors.New("invalid synapse id")

	// ErrInvalidPermanence is returned when a permanence lies outside [0, 1].
	ErrInvalidPermanence = errors.New("invalid permanence")

	// ErrInvalidArgument covers other precondition violations.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorrupt is returned by Load for a blob that fails validation.
	ErrCorrupt = errors.New("corrupt connections data")
)
