package popup

import "errors"

var (
	ErrNoTransport     = errors.New("popup: no transport configured")
	ErrSurfaceNotOpen  = errors.New("popup: surface not open")
	ErrHandleDisposed  = errors.New("popup: handle already disposed")
	ErrPortNotAttached = errors.New("popup: extension port not attached")
	ErrInvalidSettings = errors.New("popup: invalid settings")
)
