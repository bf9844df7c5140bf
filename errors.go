package serial

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrNotOpen       = errors.New("serial port is not open")
	ErrOpen          = errors.New("failed to open serial device")
	ErrConfiguration = errors.New("invalid serial configuration")
	ErrRead          = errors.New("serial read failed")
	ErrWrite         = errors.New("serial write failed")
	ErrProbe         = errors.New("serial availability probe failed")
	ErrFlush         = errors.New("serial flush failed")
	ErrPutback       = errors.New("serial putback failed")

	// Causes reported together with ErrOpen
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")

	// ErrInvalidBaudRate is a configuration error.
	ErrInvalidBaudRate = fmt.Errorf("%w: invalid baud rate", ErrConfiguration)

	// ErrNothingToFlush may be returned by a Device when a flush had no
	// queued data to discard. Port treats it as success.
	ErrNothingToFlush = errors.New("nothing to flush")
)

// wrapErr tags a device error with its category unless it already carries it.
func wrapErr(kind error, op string, err error) error {
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}
