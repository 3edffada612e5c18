package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNoRecognizer     = errors.New("speech recognition is not available")
	ErrNoCamera         = errors.New("camera is not available")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyListening = errors.New("recognition session already active")
	ErrNotImplemented   = errors.New("not implemented")
	ErrBadResponse      = errors.New("unexpected response")
)
