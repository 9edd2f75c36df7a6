// Package filter defines the contract of a single audio transform, the
// registry filters are resolved from, and the built-in filters.
package filter

import (
	"strconv"

	"gofiltergraph/filtergraph/pcm"
)

// Filter is one transform instance in a chain.
type Filter interface {
	// Configure is called once, before any data, with the layouts of the
	// filter inputs. It returns the layout of the filter output.
	Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error)
	// Filter processes one frame per input. All inputs carry the same number
	// of samples. Inputs are borrowed; returned frames belong to the caller.
	// Returning no frame means the filter needs more input.
	Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error)
	Close() error
}

// Flusher is implemented by filters that hold samples back between calls.
// Flush is called once at end of stream and returns what is left.
type Flusher interface {
	Flush() ([]*pcm.Frame, error)
}

// Factory builds a filter instance from its parsed options.
type Factory func(opts Options) (Filter, error)

// Definition describes a registered filter.
type Definition struct {
	Name        string
	Description string
	// Inputs is the number of input pads, 0 if it depends on the options.
	Inputs int
	New    Factory
}

func singleInput(name string, inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	if len(inputs) != 1 {
		return pcm.FrameDescriptor{}, errInputs(name, 1, len(inputs))
	}
	return inputs[0], inputs[0].Validate()
}

type inputsError struct {
	filter    string
	want, got int
}

func (e inputsError) Error() string {
	return e.filter + ": expected " + strconv.Itoa(e.want) + " input(s), got " + strconv.Itoa(e.got)
}

func errInputs(filter string, want, got int) error {
	return inputsError{filter: filter, want: want, got: got}
}
