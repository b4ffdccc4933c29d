// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Node is an entity extracted from a set of notes.
type Node struct {
	// ID identifies the node within its graph. Edges refer to nodes by ID.
	ID string `json:"id" yaml:"id" jsonschema:"unique identifier of the node within the graph"`

	// Label is the human-readable name of the entity.
	Label string `json:"label" yaml:"label" jsonschema:"concise but descriptive name of the entity"`
}

// Edge is a directed, labeled relationship between two nodes.
type Edge struct {
	// Source is the ID of the node the relationship starts from.
	Source string `json:"source" yaml:"source" jsonschema:"id of an existing node the relationship starts from"`

	// Target is the ID of the node the relationship points to.
	Target string `json:"target" yaml:"target" jsonschema:"id of an existing node the relationship points to"`

	// Label describes the relationship.
	Label string `json:"label" yaml:"label" jsonschema:"description of the relationship"`
}

// KnowledgeGraph is the structured form of a set of notes. Nodes and edges
// keep the order in which the model returned them.
//
// Unique IDs and edge endpoints that resolve to existing nodes are requested
// from the model but not verified.
type KnowledgeGraph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// EmptyGraph returns a graph with no nodes and no edges. Both slices are
// non-nil so the graph encodes as {"nodes":[],"edges":[]}.
func EmptyGraph() KnowledgeGraph {
	return KnowledgeGraph{
		Nodes: []Node{},
		Edges: []Edge{},
	}
}

// IsEmpty reports whether the graph has neither nodes nor edges.
func (g KnowledgeGraph) IsEmpty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}
