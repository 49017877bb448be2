package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bullet-cli/internal/model"
	"bullet-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

func press(t *testing.T, m editorModel, msgs ...tea.KeyMsg) editorModel {
	t.Helper()
	for _, msg := range msgs {
		mm, _ := m.Update(msg)
		next, ok := mm.(editorModel)
		if !ok {
			t.Fatalf("expected editorModel, got %T", mm)
		}
		m = next
	}
	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(kt tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: kt}
}

func newTestEditor(t *testing.T) (editorModel, *session.Session) {
	t.Helper()
	sess := session.New()
	t.Cleanup(func() { _ = sess.Close() })
	return newEditorModel(sess, "Weekend", nil), sess
}

func focus(sess *session.Session) (string, int) {
	return sess.Focus()
}

func TestEditor_EnterTabBackspaceFlow(t *testing.T) {
	m, sess := newTestEditor(t)

	m = press(t, m, typed("abc"))
	if got := sess.Text("n1"); got != "abc" {
		t.Fatalf("expected typed text, got %q", got)
	}

	m = press(t, m, keyOf(tea.KeyEnter))
	if id, _ := focus(sess); id != "n2" {
		t.Fatalf("expected enter at end to create n2, focused %q", id)
	}

	m = press(t, m, keyOf(tea.KeyTab))
	if got := sess.Children("n1"); len(got) != 1 || got[0] != "n2" {
		t.Fatalf("expected tab to indent n2 under n1, children=%v", got)
	}

	// Enter on an empty nested bullet outdents it.
	m = press(t, m, keyOf(tea.KeyEnter))
	if got := sess.Roots(); len(got) != 2 || got[1] != "n2" {
		t.Fatalf("expected n2 back at root level, roots=%v", got)
	}

	m = press(t, m, keyOf(tea.KeyBackspace))
	if got := sess.Roots(); len(got) != 1 {
		t.Fatalf("expected backspace to delete the empty bullet, roots=%v", got)
	}
	if id, caret := focus(sess); id != "n1" || caret != 3 {
		t.Fatalf("expected focus at end of n1, got %q@%d", id, caret)
	}

	// Backspace with text deletes a rune.
	press(t, m, keyOf(tea.KeyBackspace))
	if got := sess.Text("n1"); got != "ab" {
		t.Fatalf("expected rune deletion, got %q", got)
	}
}

func TestEditor_EnterSplitsInsideText(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("hello"), keyOf(tea.KeyLeft), keyOf(tea.KeyLeft))
	if _, caret := focus(sess); caret != 3 {
		t.Fatalf("expected caret 3, got %d", caret)
	}

	press(t, m, keyOf(tea.KeyEnter))
	if sess.Text("n1") != "hel" || sess.Text("n2") != "lo" {
		t.Fatalf("unexpected split: %q / %q", sess.Text("n1"), sess.Text("n2"))
	}
	if id, caret := focus(sess); id != "n2" || caret != 0 {
		t.Fatalf("expected focus at start of second half, got %q@%d", id, caret)
	}
}

func TestEditor_ArrowsMoveByGrapheme(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("e\u0301x"))
	if _, caret := focus(sess); caret != 3 {
		t.Fatalf("expected caret after 3 runes, got %d", caret)
	}
	m = press(t, m, keyOf(tea.KeyLeft))
	if _, caret := focus(sess); caret != 2 {
		t.Fatalf("expected caret 2, got %d", caret)
	}
	m = press(t, m, keyOf(tea.KeyLeft))
	if _, caret := focus(sess); caret != 0 {
		t.Fatalf("expected left to skip the combining mark, got %d", caret)
	}
	m = press(t, m, keyOf(tea.KeyRight))
	if _, caret := focus(sess); caret != 2 {
		t.Fatalf("expected right to skip the combining mark, got %d", caret)
	}
	press(t, m, keyOf(tea.KeyEnd))
	if _, caret := focus(sess); caret != 3 {
		t.Fatalf("expected end to move to 3, got %d", caret)
	}
}

func TestEditor_UpDownAndMove(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("one"), keyOf(tea.KeyEnter), typed("two"))

	m = press(t, m, keyOf(tea.KeyUp))
	if id, caret := focus(sess); id != "n1" || caret != 0 {
		t.Fatalf("expected up to focus n1@0, got %q@%d", id, caret)
	}
	m = press(t, m, keyOf(tea.KeyUp))
	if id, _ := focus(sess); id != "n1" {
		t.Fatalf("expected up at the top to stay, got %q", id)
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyDown, Alt: true})
	if got := sess.Roots(); got[0] != "n2" || got[1] != "n1" {
		t.Fatalf("expected alt+down to move n1 below n2, roots=%v", got)
	}
}

func TestEditor_DeleteAtEndMerges(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("ab"), keyOf(tea.KeyEnter), typed("cd"), keyOf(tea.KeyUp), keyOf(tea.KeyEnd))

	press(t, m, keyOf(tea.KeyDelete))
	if got := sess.Text("n1"); got != "abcd" {
		t.Fatalf("expected merge, got %q", got)
	}
	if got := sess.Roots(); len(got) != 1 {
		t.Fatalf("expected merged sibling removed, roots=%v", got)
	}
}

func TestEditor_DrillDownHeadingAndUp(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("Projects"), keyOf(tea.KeyCtrlD))

	scope, ok := sess.ScopeRoot()
	if !ok || scope != "n1" {
		t.Fatalf("expected scope n1, got %q (%v)", scope, ok)
	}
	if id, _ := focus(sess); id != "n2" {
		t.Fatalf("expected focus on trailing child, got %q", id)
	}

	// Deleting the only child keeps an empty bullet to type into.
	m = press(t, m, keyOf(tea.KeyBackspace))
	if got := sess.Children("n1"); len(got) != 1 || got[0] != "n3" {
		t.Fatalf("expected a fresh child under the heading, got %v", got)
	}
	if id, _ := focus(sess); id != "n3" {
		t.Fatalf("expected focus below heading, got %q", id)
	}

	// Up reaches the heading; Enter there adds a child rather than a hidden sibling.
	m = press(t, m, keyOf(tea.KeyUp), keyOf(tea.KeyEnter))
	if got := sess.Children("n1"); len(got) != 2 {
		t.Fatalf("expected enter on heading to append a child, got %v", got)
	}
	if got := sess.Roots(); len(got) != 1 {
		t.Fatalf("expected no new root, got %v", got)
	}

	// Backspace on the heading never deletes it.
	m = press(t, m, keyOf(tea.KeyUp), keyOf(tea.KeyUp), keyOf(tea.KeyHome), keyOf(tea.KeyBackspace))
	if !sessHas(sess, "n1") {
		t.Fatalf("heading must survive backspace")
	}

	m = press(t, m, keyOf(tea.KeyCtrlU))
	if _, ok := sess.ScopeRoot(); ok {
		t.Fatalf("expected ctrl+u to clear the scope")
	}
	m = press(t, m, keyOf(tea.KeyCtrlU))
	if !strings.Contains(m.status, "top") {
		t.Fatalf("expected status for drill up at top, got %q", m.status)
	}
}

func sessHas(sess *session.Session, id string) bool {
	return sess.State().Has(id)
}

func TestEditor_PasteCreatesBullets(t *testing.T) {
	m, sess := newTestEditor(t)
	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a\nb\nc"), Paste: true})
	if got := sess.Roots(); len(got) != 3 {
		t.Fatalf("expected three bullets from paste, got %v", got)
	}
}

func TestEditor_View(t *testing.T) {
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	m, sess := newTestEditor(t)
	m = press(t, m, typed("Groceries"), keyOf(tea.KeyEnter), keyOf(tea.KeyTab), typed("apples"))
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = mm.(editorModel)

	view := xansi.Strip(m.View())
	for _, want := range []string{"Weekend", "+ Groceries", "| * apples", "enter"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}

	sess.DrillDown("n1")
	view = xansi.Strip(m.View())
	if !strings.Contains(view, "Weekend > Groceries") {
		t.Fatalf("expected breadcrumb for scope:\n%s", view)
	}
	for _, line := range strings.Split(view, "\n") {
		if displayCells(line) > 60 {
			t.Fatalf("line wider than terminal: %q", line)
		}
	}
}

func displayCells(s string) int {
	return xansi.StringWidth(s)
}

func TestEditor_QuitAndSave(t *testing.T) {
	saver := &memSaver{}
	sess := session.New(session.WithAutosave(saver, "doc-1", 0))
	t.Cleanup(func() { _ = sess.Close() })
	m := newEditorModel(sess, "", nil)

	m = press(t, m, typed("x"))
	_, cmd := m.Update(keyOf(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatalf("expected save command")
	}
	msg := cmd()
	if _, ok := msg.(savedMsg); !ok {
		t.Fatalf("expected savedMsg, got %T", msg)
	}
	mm, _ := m.Update(msg)
	if got := mm.(editorModel).status; got != "Saved" {
		t.Fatalf("expected Saved status, got %q", got)
	}
	if saver.count() != 1 {
		t.Fatalf("expected one save, got %d", saver.count())
	}

	_, cmd = m.Update(keyOf(tea.KeyEsc))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

type memSaver struct {
	mu sync.Mutex
	n  int
}

func (s *memSaver) SaveDocument(_ context.Context, _ string, _ model.State) error {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	return nil
}

func (s *memSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func TestVisibleWindow(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e", "f"}
	tests := []struct {
		focus, height int
		want          string
	}{
		{focus: 0, height: 0, want: "abcdef"},
		{focus: 0, height: 3, want: "abc"},
		{focus: 3, height: 3, want: "cde"},
		{focus: 5, height: 3, want: "def"},
		{focus: 2, height: 10, want: "abcdef"},
	}
	for _, tt := range tests {
		if got := strings.Join(visibleWindow(lines, tt.focus, tt.height), ""); got != tt.want {
			t.Fatalf("visibleWindow(focus=%d,height=%d)=%q want %q", tt.focus, tt.height, got, tt.want)
		}
	}
}

func TestEditor_CopySubtree(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("Groceries"), keyOf(tea.KeyEnter), keyOf(tea.KeyTab), typed("apples"))
	sess.SetFocus("n1", 0)

	var got string
	orig := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil {
		t.Fatalf("expected a copy command")
	}
	mm, _ := m.Update(cmd())
	m = mm.(editorModel)

	if want := "- Groceries\n  - apples\n"; got != want {
		t.Fatalf("clipboard=%q, want %q", got, want)
	}
	if m.status != "Copied 2 bullet(s)" || m.statusErr {
		t.Fatalf("unexpected status %q (err=%v)", m.status, m.statusErr)
	}
}

func TestEditor_ExternalEditorResult(t *testing.T) {
	m, sess := newTestEditor(t)
	m = press(t, m, typed("draft"))

	path := filepath.Join(t.TempDir(), "bullet.txt")
	if err := os.WriteFile(path, []byte("first\r\nsecond\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	mm, _ := m.Update(externalEditorDoneMsg{id: "n1", path: path, before: "draft"})
	m = mm.(editorModel)

	if got := sess.Text("n1"); got != "first" {
		t.Fatalf("expected n1 replaced, got %q", got)
	}
	roots := sess.Roots()
	if len(roots) != 2 || sess.Text(roots[1]) != "second" {
		t.Fatalf("expected extra line as a sibling, roots=%v", roots)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err=%v", err)
	}
	if !strings.HasPrefix(m.status, "Updated from") {
		t.Fatalf("unexpected status %q", m.status)
	}

	// Unchanged text leaves the bullet alone.
	path2 := filepath.Join(t.TempDir(), "same.txt")
	if err := os.WriteFile(path2, []byte("second\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	mm, _ = m.Update(externalEditorDoneMsg{id: roots[1], path: path2, before: "second"})
	m = mm.(editorModel)
	if !strings.HasPrefix(m.status, "No changes") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if rev := sess.Revision(); rev == 0 {
		t.Fatalf("expected earlier edits to count, rev=%d", rev)
	}
}
