package engine

import "bullet-cli/internal/model"

// Row is one entry of the visible outline: a node id and its depth relative to the
// first visible level (0 for roots, or for the scope root when scoped).
type Row struct {
	ID    string
	Depth int
}

// VisibleOrder returns the preorder of the visible part of the document.
//
// With a scope root that exists, only that subtree is visible. A scope naming a missing
// node falls back to the whole forest. Nothing is cached.
func VisibleOrder(s model.State) []string {
	rows := VisibleRows(s)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func VisibleRows(s model.State) []Row {
	var out []Row
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := s.Node(id)
		if !ok {
			fault("VisibleOrder", id, "unknown node")
		}
		out = append(out, Row{ID: id, Depth: depth})
		for _, cid := range n.Children {
			walk(cid, depth+1)
		}
	}
	if scope, ok := s.Scope(); ok && s.Has(scope) {
		walk(scope, 0)
		return out
	}
	for _, rid := range s.RootOrder {
		walk(rid, 0)
	}
	return out
}

// PrevVisible returns the node shown just before id, or "" when id is first or not visible.
func PrevVisible(s model.State, id string) string {
	order := VisibleOrder(s)
	i := position(order, id)
	if i <= 0 {
		return ""
	}
	return order[i-1]
}

// NextVisible returns the node shown just after id, or "" when id is last or not visible.
func NextVisible(s model.State, id string) string {
	order := VisibleOrder(s)
	i := position(order, id)
	if i < 0 || i+1 >= len(order) {
		return ""
	}
	return order[i+1]
}

// AncestorsToRoot returns the chain root..id (inclusive), or nil for an unknown id.
func AncestorsToRoot(s model.State, id string) []string {
	if !s.Has(id) {
		return nil
	}
	var rev []string
	for cur := id; cur != ""; {
		n, ok := s.Node(cur)
		if !ok {
			fault("AncestorsToRoot", cur, "unknown ancestor")
		}
		rev = append(rev, cur)
		if len(rev) > len(s.Nodes) {
			fault("AncestorsToRoot", id, "parent cycle")
		}
		cur = n.ParentID
	}
	out := make([]string, len(rev))
	for i, x := range rev {
		out[len(rev)-1-i] = x
	}
	return out
}

// Depth is the number of ancestors above id; -1 for an unknown id.
func Depth(s model.State, id string) int {
	return len(AncestorsToRoot(s, id)) - 1
}
