package mirror

import "errors"

// ErrUnknownZone is returned when a notification or lookup names a zone
// outside 1..12.
var ErrUnknownZone = errors.New("mirror: unknown zone")
