package graph

import "gofiltergraph/filtergraph/filter"

// Node is a filter declared on a graph. It is only instantiated when the
// graph is initialized.
type Node struct {
	def      filter.Definition
	options  string
	instance string
}

// Name returns the registered filter name.
func (n *Node) Name() string { return n.def.Name }

// Options returns the raw option string.
func (n *Node) Options() string { return n.options }

// InstanceName returns the name of the node in the graph.
func (n *Node) InstanceName() string { return n.instance }

func (n *Node) String() string {
	return filter.Spec{Name: n.def.Name, Options: n.options, Instance: n.instance}.String()
}
