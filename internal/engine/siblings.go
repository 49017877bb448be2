package engine

import (
	"strconv"

	"bullet-cli/internal/model"
)

// NextID bumps the state's counter and returns the next "n<counter>" id.
//
// Ids are never reused: the counter only grows, and ids already present in the
// document (e.g. a hand-edited import) are skipped.
func NextID(s *model.State) string {
	for {
		s.IDCounter++
		id := "n" + strconv.FormatUint(s.IDCounter, 10)
		if _, taken := s.Nodes[id]; !taken {
			return id
		}
	}
}

// ContainerOf returns a pointer to the ordered list id currently belongs to: the root
// order for roots, the parent's children otherwise. Splicing through the pointer
// updates the owner in place.
func ContainerOf(s *model.State, id string) *[]string {
	n, ok := s.Node(id)
	if !ok {
		fault("ContainerOf", id, "unknown node")
	}
	if n.ParentID == "" {
		return &s.RootOrder
	}
	p, ok := s.Node(n.ParentID)
	if !ok {
		fault("ContainerOf", id, "unknown parent "+n.ParentID)
	}
	return &p.Children
}

// Siblings is the read-only form of ContainerOf.
func Siblings(s model.State, id string) []string {
	return *ContainerOf(&s, id)
}

// IndexOf returns id's position among its siblings.
func IndexOf(s model.State, id string) int {
	sibs := Siblings(s, id)
	i := position(sibs, id)
	if i < 0 {
		fault("IndexOf", id, "node missing from its container")
	}
	return i
}

func prevSibling(s model.State, id string) string {
	sibs := Siblings(s, id)
	i := IndexOf(s, id)
	if i == 0 {
		return ""
	}
	return sibs[i-1]
}

func nextSibling(s model.State, id string) string {
	sibs := Siblings(s, id)
	i := IndexOf(s, id)
	if i+1 >= len(sibs) {
		return ""
	}
	return sibs[i+1]
}
