package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrBlankPrompt indicates a prompt that is empty after trimming
	ErrBlankPrompt = errors.New("prompt is blank")
	// ErrStreamInFlight indicates a send while a response is still streaming
	ErrStreamInFlight = errors.New("a response is already streaming")
	// ErrNoIdentity indicates an operation that requires a signed-in user
	ErrNoIdentity = errors.New("no authenticated user")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
)
