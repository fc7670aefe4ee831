package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Wire protocol
	ErrFrameTooLarge    = fmt.Errorf("frame exceeds maximum payload size")
	ErrHandshakeTooLong = fmt.Errorf("handshake line too long")

	// Relay
	ErrReadinessFailure     = fmt.Errorf("relay readiness check failed")
	ErrRelayRunning         = fmt.Errorf("relay is already running")
	ErrConnectionRegistered = fmt.Errorf("connection is already registered")

	// Client session
	ErrConnectionLost = fmt.Errorf("connection lost")
	ErrSendFailed     = fmt.Errorf("send failed")

	ErrInvalidConfig = fmt.Errorf("invalid configuration")
)
