package apperr

import "errors"

var (
	ErrClosed    = errors.New("closed")
	ErrNotFound  = errors.New("not found")
	ErrHandshake = errors.New("handshake failed")
)
