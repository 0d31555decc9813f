package server

import "errors"

var (
	ErrOverlayRunning    = errors.New("overlay is already running")
	ErrOverlayNotRunning = errors.New("overlay is not running")
	ErrListenerFailed    = errors.New("failed to create listener")
)
