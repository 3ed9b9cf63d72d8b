package sequencer

import "errors"

// Domain errors for command sequencing.
var (
	// ErrUnknownZone is returned for a zone outside 1..12. Nothing is written.
	ErrUnknownZone = errors.New("sequencer: unknown zone")

	// ErrOutOfRange is returned for a level the controller cannot accept.
	// Nothing is written.
	ErrOutOfRange = errors.New("sequencer: value out of range")

	// ErrWriteFailed is returned when a device write in an intent fails.
	// Later steps of the same intent are not attempted.
	ErrWriteFailed = errors.New("sequencer: device write failed")

	// ErrQueueFull is returned by Submit when the target lane is saturated.
	ErrQueueFull = errors.New("sequencer: lane queue full")
)
