package workflow

import "errors"

var (
	// ErrNotFound is returned when a referenced definition or request is absent
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor is not authorized for the action
	ErrForbidden = errors.New("forbidden")

	// ErrMalformedGraph is returned for graph corruption that cannot be safely
	// defaulted, such as a missing start node or an edge pointing to a node
	// that does not exist
	ErrMalformedGraph = errors.New("malformed workflow graph")

	// ErrInvalidState is returned when the request's status disallows the action
	ErrInvalidState = errors.New("invalid request state")

	// ErrInvalidInput is returned for malformed caller input such as an
	// unparseable date range
	ErrInvalidInput = errors.New("invalid input")
)
