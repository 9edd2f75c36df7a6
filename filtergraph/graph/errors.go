package graph

import "errors"

var (
	// ErrAlreadyInitialized is returned when the filter chain is changed after
	// the graph has been built.
	ErrAlreadyInitialized = errors.New("filter graph already initialized")
	// ErrGraphInit is returned when the graph cannot be built. The graph is
	// unusable afterwards but can still be closed.
	ErrGraphInit = errors.New("filter graph init failed")
	// ErrGraphDrained is returned by Process after Flush.
	ErrGraphDrained = errors.New("filter graph drained")
	// ErrGraphClosed is returned by Process after Close.
	ErrGraphClosed = errors.New("filter graph closed")
	// ErrInputCount is returned when the number of input frames does not match
	// the number of declared inputs.
	ErrInputCount = errors.New("input count mismatch")
)
