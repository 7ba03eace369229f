package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTask        = errors.New("task title and body are required")
	ErrUnauthenticated    = errors.New("not authenticated")
)
