package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrNotAuthorized   = errors.New("caller is not authorized")
	ErrSweepInProgress = errors.New("reminder sweep already in progress")
)
