// Package engine is the pure edit core of the outliner: every command maps an immutable
// document state to a new one that keeps the tree consistent.
package engine

import (
	"unicode/utf8"

	"bullet-cli/internal/model"
)

// InitialState returns a document with a single empty, focused root.
func InitialState() model.State {
	root := &model.Node{ID: "n1", Children: []string{}}
	return model.State{
		Nodes:     map[string]*model.Node{root.ID: root},
		RootOrder: []string{root.ID},
		FocusedID: root.ID,
		IDCounter: 1,
	}
}

// Apply runs cmd against a copy of prev and returns the copy. prev is never modified.
//
// Commands whose target is unknown, or whose preconditions do not hold, return the
// copy unchanged.
func Apply(prev model.State, cmd model.Command) model.State {
	s := prev.Clone()
	target := s.FocusedID
	if cmd.TargetID != nil {
		target = *cmd.TargetID
	}
	if !s.Has(target) {
		return s
	}

	switch cmd.Kind {
	case model.CmdInsertEmptySiblingAfter:
		insertEmptySiblingAfter(&s, target)
	case model.CmdSplitAtCaret:
		splitAtCaret(&s, target, cmd.Caret)
	case model.CmdIndent:
		indent(&s, target)
	case model.CmdOutdent:
		outdent(&s, target)
	case model.CmdMoveUp:
		moveUp(&s, target)
	case model.CmdMoveDown:
		moveDown(&s, target)
	case model.CmdDeleteEmptyAtID:
		deleteEmpty(&s, target)
	case model.CmdMergeNextSiblingIntoCurrent:
		mergeNextSibling(&s, target)
	case model.CmdSetFocus:
		setFocus(&s, target, cmd.Caret)
	case model.CmdSetScopeRoot:
		s.ScopeRootID = nil
		if cmd.ScopeRootID != nil {
			scope := *cmd.ScopeRootID
			s.ScopeRootID = &scope
		}
	case model.CmdSetText:
		setText(&s, target, cmd.Text)
	case model.CmdAppendEmptyChild:
		appendEmptyChild(&s, target)
	}
	return s
}

func runeLen(text string) int { return utf8.RuneCountInString(text) }

// byteOffset converts a rune offset (already clamped) into a byte offset into text.
func byteOffset(text string, caret int) int {
	if caret <= 0 {
		return 0
	}
	n := 0
	for i := range text {
		if n == caret {
			return i
		}
		n++
	}
	return len(text)
}

func clampCaret(text string, caret int) int {
	if caret < 0 {
		return 0
	}
	if l := runeLen(text); caret > l {
		return l
	}
	return caret
}

func setFocus(s *model.State, id string, caret int) {
	s.FocusedID = id
	s.Caret = clampCaret(s.Nodes[id].Text, caret)
}

func newNode(s *model.State, parentID, text string, children []string) *model.Node {
	if children == nil {
		children = []string{}
	}
	n := &model.Node{ID: NextID(s), ParentID: parentID, Text: text, Children: children}
	s.Nodes[n.ID] = n
	return n
}

func insertEmptySiblingAfter(s *model.State, id string) {
	n := newNode(s, s.Nodes[id].ParentID, "", nil)
	c := ContainerOf(s, id)
	*c = InsertAfter(*c, id, n.ID)
	setFocus(s, n.ID, 0)
}

func appendEmptyChild(s *model.State, id string) {
	parent := s.Nodes[id]
	n := newNode(s, id, "", nil)
	parent.Children = append(parent.Children, n.ID)
	setFocus(s, n.ID, 0)
}

func splitAtCaret(s *model.State, id string, caret int) {
	cur := s.Nodes[id]
	if caret < 0 {
		caret = s.Caret
	}
	cut := byteOffset(cur.Text, clampCaret(cur.Text, caret))

	// The second half takes every child.
	second := newNode(s, cur.ParentID, cur.Text[cut:], cur.Children)
	for _, cid := range second.Children {
		s.Nodes[cid].ParentID = second.ID
	}
	cur.Children = []string{}
	cur.Text = cur.Text[:cut]

	c := ContainerOf(s, id)
	*c = InsertAfter(*c, id, second.ID)
	setFocus(s, second.ID, 0)
}

func indent(s *model.State, id string) {
	prev := prevSibling(*s, id)
	if prev == "" {
		return
	}
	c := ContainerOf(s, id)
	*c = Erase(*c, id)
	s.Nodes[id].ParentID = prev
	p := s.Nodes[prev]
	p.Children = append(p.Children, id)
}

// liftBesideParent moves id out of its parent's children and places it directly
// before or after that parent, one level up.
func liftBesideParent(s *model.State, id string, before bool) {
	n := s.Nodes[id]
	parent := s.Nodes[n.ParentID]
	parent.Children = Erase(parent.Children, id)

	c := ContainerOf(s, parent.ID)
	if before {
		*c = InsertBefore(*c, parent.ID, id)
	} else {
		*c = InsertAfter(*c, parent.ID, id)
	}
	n.ParentID = parent.ParentID
}

func outdent(s *model.State, id string) {
	if s.Nodes[id].ParentID == "" {
		return
	}
	liftBesideParent(s, id, false)
}

func moveUp(s *model.State, id string) {
	c := ContainerOf(s, id)
	i := IndexOf(*s, id)
	if i > 0 {
		(*c)[i-1], (*c)[i] = (*c)[i], (*c)[i-1]
		return
	}
	if s.Nodes[id].ParentID == "" {
		return
	}
	liftBesideParent(s, id, true)
}

func moveDown(s *model.State, id string) {
	c := ContainerOf(s, id)
	i := IndexOf(*s, id)
	if i+1 < len(*c) {
		(*c)[i], (*c)[i+1] = (*c)[i+1], (*c)[i]
		return
	}
	if s.Nodes[id].ParentID == "" {
		return
	}
	liftBesideParent(s, id, false)
}

func deleteEmpty(s *model.State, id string) {
	n := s.Nodes[id]
	if n.Text != "" || len(n.Children) > 0 {
		return
	}
	if n.ParentID == "" && len(s.RootOrder) == 1 {
		setFocus(s, id, 0)
		return
	}

	prev := PrevVisible(*s, id)
	next := NextVisible(*s, id)

	c := ContainerOf(s, id)
	*c = Erase(*c, id)
	delete(s.Nodes, id)
	clearScopeIf(s, id)
	ensureRoot(s)

	focus := prev
	if focus == "" {
		focus = next
	}
	if focus == "" {
		focus = s.RootOrder[0]
	}
	setFocus(s, focus, runeLen(s.Nodes[focus].Text))
}

func mergeNextSibling(s *model.State, id string) {
	cur := s.Nodes[id]
	if len(cur.Children) > 0 {
		return
	}
	nextID := nextSibling(*s, id)
	if nextID == "" {
		return
	}
	next := s.Nodes[nextID]

	cur.Text += next.Text
	cur.Children = append(cur.Children, next.Children...)
	for _, cid := range next.Children {
		s.Nodes[cid].ParentID = id
	}

	c := ContainerOf(s, id)
	*c = Erase(*c, nextID)
	delete(s.Nodes, nextID)
	clearScopeIf(s, nextID)
	setFocus(s, id, runeLen(cur.Text))
}

func setText(s *model.State, id, text string) {
	s.Nodes[id].Text = text
	if s.FocusedID == id {
		s.Caret = clampCaret(text, s.Caret)
	}
}

func clearScopeIf(s *model.State, id string) {
	if scope, ok := s.Scope(); ok && scope == id {
		s.ScopeRootID = nil
	}
}

// ensureRoot keeps at least one root in the document.
func ensureRoot(s *model.State) {
	if len(s.RootOrder) > 0 {
		return
	}
	n := newNode(s, "", "", nil)
	s.RootOrder = append(s.RootOrder, n.ID)
	setFocus(s, n.ID, 0)
}
