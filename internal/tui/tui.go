package tui

import (
	"bullet-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	// Title is shown as the first breadcrumb.
	Title string
	// Glyphs is the configured glyph set ("unicode" or "ascii").
	Glyphs string
	Log    *zap.Logger
}

// Run edits sess interactively until the user quits. The caller owns sess and
// closes it afterwards (which flushes unsaved edits).
func Run(sess *session.Session, opt Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference(opt.Glyphs)

	m := newEditorModel(sess, opt.Title, opt.Log)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
