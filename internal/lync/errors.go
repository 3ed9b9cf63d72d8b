package lync

import "errors"

// Domain errors for the controller connection and wire codec.
var (
	// ErrNotConnected is returned when a command is sent while the
	// controller link is down.
	ErrNotConnected = errors.New("lync: not connected to controller")

	// ErrConnectionFailed is returned when dialling the controller fails.
	ErrConnectionFailed = errors.New("lync: connection to controller failed")

	// ErrWriteFailed is returned when a frame cannot be written to the socket.
	ErrWriteFailed = errors.New("lync: command write failed")

	// ErrInvalidValue is returned when a command argument is outside what
	// the controller accepts (zone, source, level).
	ErrInvalidValue = errors.New("lync: invalid command value")

	// ErrInvalidFrame is returned for a received frame that cannot be
	// decoded. The stream stays usable; the decoder resynchronises on the
	// next frame header.
	ErrInvalidFrame = errors.New("lync: invalid frame")

	// ErrChecksum is returned (wrapped with ErrInvalidFrame) when a frame's
	// trailing checksum does not match its contents.
	ErrChecksum = errors.New("lync: checksum mismatch")

	// ErrClosed is returned by operations on a client after Close.
	ErrClosed = errors.New("lync: client closed")
)
