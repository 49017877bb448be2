package engine

import (
	"fmt"

	"bullet-cli/internal/model"

	"go.uber.org/multierr"
)

// CheckInvariants reports every structural problem in s, or nil when the document is
// consistent. It never panics, so it is safe on documents read from disk.
func CheckInvariants(s model.State) error {
	var errs error
	report := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if len(s.RootOrder) == 0 {
		report("document has no roots")
	}

	containedIn := map[string]int{}
	checkList := func(owner string, ids []string) {
		seen := map[string]bool{}
		for _, id := range ids {
			if seen[id] {
				report("%s lists %s twice", owner, id)
			}
			seen[id] = true
			containedIn[id]++
			if !s.Has(id) {
				report("%s lists unknown node %s", owner, id)
			}
		}
	}
	checkList("root order", s.RootOrder)
	for _, rid := range s.RootOrder {
		if n, ok := s.Node(rid); ok && n.ParentID != "" {
			report("root %s has parent %s", rid, n.ParentID)
		}
	}
	for id, n := range s.Nodes {
		if n == nil {
			report("node %s is nil", id)
			continue
		}
		if n.ID != id {
			report("node keyed %s carries id %s", id, n.ID)
		}
		checkList("node "+id, n.Children)
		for _, cid := range n.Children {
			if c, ok := s.Node(cid); ok && c.ParentID != id {
				report("child %s of %s points at parent %q", cid, id, c.ParentID)
			}
		}
	}
	for id := range s.Nodes {
		if c := containedIn[id]; c != 1 {
			report("node %s is contained in %d lists", id, c)
		}
	}

	// Reachability also rules out cycles: a node on a cycle can't be reached from a root
	// without being visited twice.
	visited := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			report("node %s reached twice", id)
			return
		}
		visited[id] = true
		n, ok := s.Node(id)
		if !ok {
			return
		}
		for _, cid := range n.Children {
			walk(cid)
		}
	}
	for _, rid := range s.RootOrder {
		walk(rid)
	}
	for id := range s.Nodes {
		if !visited[id] {
			report("node %s is not reachable from any root", id)
		}
	}

	if f, ok := s.Node(s.FocusedID); !ok {
		report("focused node %q does not exist", s.FocusedID)
	} else if s.Caret < 0 || s.Caret > runeLen(f.Text) {
		report("caret %d outside [0, %d] of %s", s.Caret, runeLen(f.Text), s.FocusedID)
	}

	if scope, ok := s.Scope(); ok && !s.Has(scope) {
		report("scope root %q does not exist", scope)
	}

	return errs
}
