package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConfiguration     = errors.New("configuration error")
	ErrTransport         = errors.New("transport failure")
	ErrResponseFormat    = errors.New("unexpected response format")
	ErrInvalidPreference = errors.New("invalid preference")
)
