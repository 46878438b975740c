package tree

import "strconv"

// Separator joins a parent path with a child name. Kept as "#" so paths never
// collide with the dotted operation names that appear in the same trace.
const Separator = "#"

// Walk enumerates root and every reachable descendant in breadth-first order.
// The root is named prefix, or its DisplayName when prefix is empty. A child
// with an empty name is assigned a positional index counted per parent.
//
// Nodes are not deduplicated: a node reachable through two parents is
// enumerated once per path, each with an independent Entry.
func Walk(root Node, prefix string) []Entry {
	if root == nil {
		return nil
	}

	name := prefix
	if name == "" {
		name = root.DisplayName()
	}

	entries := []Entry{{Path: name, Node: root, Depth: 0}}
	for i := 0; i < len(entries); i++ {
		parent := entries[i]
		counter := 0
		for _, child := range parent.Node.NamedChildren() {
			if child.Node == nil {
				continue
			}
			childName := child.Name
			if childName == "" {
				childName = strconv.Itoa(counter)
				counter++
			}
			entries = append(entries, Entry{
				Path:  parent.Path + Separator + childName,
				Node:  child.Node,
				Depth: parent.Depth + 1,
			})
		}
	}
	return entries
}

// WalkAll enumerates a list of root trees, concatenating their entries in
// argument order.
func WalkAll(roots []Node, prefix string) []Entry {
	var entries []Entry
	for _, root := range roots {
		entries = append(entries, Walk(root, prefix)...)
	}
	return entries
}
