package tui

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type externalEditorDoneMsg struct {
	id     string
	path   string
	before string
	err    error
}

func externalEditorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// openExternalEditor writes the bullet's text to a temp file and suspends the
// program while $VISUAL/$EDITOR runs on it.
func openExternalEditor(id, text string) (tea.Cmd, error) {
	args := splitShellWords(externalEditorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}

	f, err := os.CreateTemp("", "bullet-*.txt")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	_ = f.Close()

	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return externalEditorDoneMsg{id: id, path: path, before: text, err: err}
	}), nil
}

// applyExternalEditorResult replaces the bullet's text. Extra lines become
// following siblings, the same as a paste.
func (m *editorModel) applyExternalEditorResult(msg externalEditorDoneMsg) {
	defer func() { _ = os.Remove(msg.path) }()

	if msg.err != nil {
		m.setStatus("Editor failed: "+msg.err.Error(), true)
		return
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		m.setStatus("Editor read failed: "+err.Error(), true)
		return
	}
	after := strings.TrimRight(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	if after == msg.before {
		m.setStatus("No changes from "+externalEditorName(), false)
		return
	}

	m.sess.SetText(msg.id, "")
	m.sess.SetFocus(msg.id, 0)
	m.sess.Paste(after)
	m.setStatus("Updated from "+externalEditorName(), false)
}
