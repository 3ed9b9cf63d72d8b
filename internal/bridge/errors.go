package bridge

import "errors"

// Domain errors for MQTT command handling.
var (
	// ErrUnknownTopic is returned for a command topic the bridge does not
	// recognise.
	ErrUnknownTopic = errors.New("bridge: unknown command topic")

	// ErrPayloadParse is returned when a command payload cannot be coerced
	// to the parameter's type.
	ErrPayloadParse = errors.New("bridge: payload parse failed")

	// ErrSourceNotFound is returned when a source_name command names no
	// source the zone knows.
	ErrSourceNotFound = errors.New("bridge: source name not found")

	// ErrInvalidOptions is returned by New when a required collaborator is missing.
	ErrInvalidOptions = errors.New("bridge: invalid options")
)
