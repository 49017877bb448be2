package model

import (
	"fmt"
	"strings"
	"time"
)

// Node is a single bullet. An empty ParentID marks a root.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	ParentID string   `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Text     string   `json:"text" yaml:"text"`
	Children []string `json:"children" yaml:"children"`
}

// State is a whole outline document.
//
// Nodes are owned exclusively by the State; relationships are expressed as ids only.
// Caret is measured in runes of the focused node's text.
type State struct {
	Nodes       map[string]*Node `json:"nodes" yaml:"nodes"`
	RootOrder   []string         `json:"rootOrder" yaml:"rootOrder"`
	FocusedID   string           `json:"focusedId" yaml:"focusedId"`
	Caret       int              `json:"caret" yaml:"caret"`
	ScopeRootID *string          `json:"scopeRootId,omitempty" yaml:"scopeRootId,omitempty"`
	IDCounter   uint64           `json:"idCounter" yaml:"idCounter"`
}

// Clone returns a deep copy that shares no slices, maps or nodes with s.
func (s State) Clone() State {
	out := State{
		Nodes:     make(map[string]*Node, len(s.Nodes)),
		RootOrder: copyIDs(s.RootOrder),
		FocusedID: s.FocusedID,
		Caret:     s.Caret,
		IDCounter: s.IDCounter,
	}
	for id, n := range s.Nodes {
		if n == nil {
			continue
		}
		cp := *n
		cp.Children = copyIDs(n.Children)
		out.Nodes[id] = &cp
	}
	if s.ScopeRootID != nil {
		scope := *s.ScopeRootID
		out.ScopeRootID = &scope
	}
	return out
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Node returns the node with id, or false when it is missing.
func (s State) Node(id string) (*Node, bool) {
	n, ok := s.Nodes[id]
	if !ok || n == nil {
		return nil, false
	}
	return n, true
}

// Has reports whether id names a node in s.
func (s State) Has(id string) bool {
	_, ok := s.Node(id)
	return ok
}

// Scope returns the scope-root id and whether one is set.
func (s State) Scope() (string, bool) {
	if s.ScopeRootID == nil {
		return "", false
	}
	return *s.ScopeRootID, true
}

type CommandKind int

const (
	CmdInsertEmptySiblingAfter CommandKind = iota
	CmdSplitAtCaret
	CmdIndent
	CmdOutdent
	CmdMoveUp
	CmdMoveDown
	CmdDeleteEmptyAtID
	CmdMergeNextSiblingIntoCurrent
	CmdSetFocus
	CmdSetScopeRoot
	CmdSetText
	CmdAppendEmptyChild
)

var commandKindNames = map[CommandKind]string{
	CmdInsertEmptySiblingAfter:     "insert-sibling",
	CmdSplitAtCaret:                "split",
	CmdIndent:                      "indent",
	CmdOutdent:                     "outdent",
	CmdMoveUp:                      "move-up",
	CmdMoveDown:                    "move-down",
	CmdDeleteEmptyAtID:             "delete-empty",
	CmdMergeNextSiblingIntoCurrent: "merge-next",
	CmdSetFocus:                    "set-focus",
	CmdSetScopeRoot:                "set-scope",
	CmdSetText:                     "set-text",
	CmdAppendEmptyChild:            "append-child",
}

func (k CommandKind) String() string {
	if s, ok := commandKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// CommandKindNames lists the wire names of every command kind, in declaration order.
func CommandKindNames() []string {
	out := make([]string, 0, len(commandKindNames))
	for k := CmdInsertEmptySiblingAfter; k <= CmdAppendEmptyChild; k++ {
		out = append(out, commandKindNames[k])
	}
	return out
}

// ParseCommandKind maps a wire name such as "split" to its CommandKind.
func ParseCommandKind(s string) (CommandKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range commandKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown command kind: %q", s)
}

// CaretStored asks SplitAtCaret to use the state's stored caret.
const CaretStored = -1

// Command is a one-shot edit. A nil TargetID targets the focused node.
type Command struct {
	Kind        CommandKind
	TargetID    *string
	Caret       int
	ScopeRootID *string
	Text        string
}

// On returns a copy of c targeting id.
func (c Command) On(id string) Command {
	c.TargetID = &id
	return c
}

// AtCaret returns a copy of c with an explicit caret (runes).
func (c Command) AtCaret(caret int) Command {
	c.Caret = caret
	return c
}

// WithText returns a copy of c carrying text for SetText.
func (c Command) WithText(text string) Command {
	c.Text = text
	return c
}

// Scoped sets the scope root carried by a SetScopeRoot command. An empty id clears it.
func (c Command) Scoped(id string) Command {
	c.ScopeRootID = nil
	if id != "" {
		c.ScopeRootID = &id
	}
	return c
}

// NewCommand returns a command of the given kind targeting the focused node.
func NewCommand(kind CommandKind) Command {
	return Command{Kind: kind, Caret: CaretStored}
}

// WireCommand is the tagged record a host receives from outside (CLI flags, JSON, YAML).
type WireCommand struct {
	Kind        string  `json:"kind" yaml:"kind" validate:"required,oneof=insert-sibling split indent outdent move-up move-down delete-empty merge-next set-focus set-scope set-text append-child"`
	TargetID    *string `json:"targetId,omitempty" yaml:"targetId,omitempty" validate:"omitempty,min=1,max=64"`
	Caret       *int    `json:"caret,omitempty" yaml:"caret,omitempty" validate:"omitempty,min=-1"`
	ScopeRootID *string `json:"scopeRootId,omitempty" yaml:"scopeRootId,omitempty" validate:"omitempty,min=1,max=64"`
	Text        *string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Document is a stored outline with its metadata.
type Document struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	State     State     `json:"state" yaml:"state"`
}
