// Package workflow assembles the InfiniteTalk job graph submitted to ComfyUI.
//
// A graph maps node ids to typed operations. Each node input is either a
// literal or a Ref to another node's output, which the server resolves.
// Nothing here executes or validates the graph against the server.
package workflow

import (
	"encoding/json"
	"sort"
	"strconv"
)

// NodeID identifies a node within one graph.
type NodeID string

// Ref is a back-reference to output slot Output of node Node.
// It serializes as ["<node>", <output>].
type Ref struct {
	Node   NodeID
	Output int
}

// MarshalJSON implements json.Marshaler.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{string(r.Node), r.Output})
}

func (r Ref) String() string {
	return string(r.Node) + ":" + strconv.Itoa(r.Output)
}

// Node is one operation of the graph.
type Node struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// Graph is a complete job graph. The zero value is not usable; use a Builder.
type Graph map[NodeID]Node

// JSON returns the wire encoding. Keys are sorted, so equal graphs encode
// to equal bytes.
func (g Graph) JSON() ([]byte, error) {
	return json.Marshal(g)
}

// Refs lists every back-reference in the graph, ordered by node id then
// input name.
func (g Graph) Refs() []Ref {
	var out []Ref
	for _, id := range g.IDs() {
		node := g[id]
		names := make([]string, 0, len(node.Inputs))
		for name := range node.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ref, ok := node.Inputs[name].(Ref); ok {
				out = append(out, ref)
			}
		}
	}
	return out
}

// DanglingRefs returns references whose target node is not in the graph.
func (g Graph) DanglingRefs() []Ref {
	var out []Ref
	for _, ref := range g.Refs() {
		if _, ok := g[ref.Node]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

// IDs returns node ids in numeric order where ids are numeric.
func (g Graph) IDs() []NodeID {
	ids := make([]NodeID, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(string(ids[i]))
		b, errB := strconv.Atoi(string(ids[j]))
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// OfType returns the ids of nodes with the given class type.
func (g Graph) OfType(classType string) []NodeID {
	var out []NodeID
	for _, id := range g.IDs() {
		if g[id].ClassType == classType {
			out = append(out, id)
		}
	}
	return out
}
