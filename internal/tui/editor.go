package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/logging"
	"bullet-cli/internal/model"
	"bullet-cli/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
)

type savedMsg struct {
	err error
}

type editorModel struct {
	sess  *session.Session
	title string
	log   *zap.Logger

	keys keyMap
	help help.Model

	width  int
	height int

	status    string
	statusErr bool
}

func newEditorModel(sess *session.Session, title string, log *zap.Logger) editorModel {
	h := help.New()
	h.ShortSeparator = "  "
	return editorModel{
		sess:  sess,
		title: strings.TrimSpace(title),
		log:   logging.OrNop(log),
		keys:  defaultKeyMap(),
		help:  h,
	}
}

func (m editorModel) Init() tea.Cmd { return nil }

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.log.Warn("save from editor failed", zap.Error(msg.err))
			m.setStatus("Save failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("Saved", false)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.log.Warn("copy to clipboard failed", zap.Error(msg.err))
			m.setStatus("Copy failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Copied %d bullet(s)", msg.lines), false)
		return m, nil

	case externalEditorDoneMsg:
		m.applyExternalEditorResult(msg)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *editorModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m editorModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	id, caret := m.sess.Focus()
	text := m.sess.Text(id)
	scope, scoped := m.sess.ScopeRoot()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Save):
		return m, m.saveCmd()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Enter):
		m.enter(id, caret, text, scoped && id == scope)

	case key.Matches(msg, m.keys.Outdent):
		m.sess.Apply(model.NewCommand(model.CmdOutdent).On(id))

	case key.Matches(msg, m.keys.Indent):
		m.sess.Apply(model.NewCommand(model.CmdIndent).On(id))

	case key.Matches(msg, m.keys.MoveUp):
		m.sess.Apply(model.NewCommand(model.CmdMoveUp).On(id))

	case key.Matches(msg, m.keys.MoveDown):
		m.sess.Apply(model.NewCommand(model.CmdMoveDown).On(id))

	case key.Matches(msg, m.keys.Up):
		if prev := m.sess.PrevVisible(id); prev != "" {
			m.sess.SetFocus(prev, 0)
		}

	case key.Matches(msg, m.keys.Down):
		if next := m.sess.NextVisible(id); next != "" {
			m.sess.SetFocus(next, 0)
		}

	case key.Matches(msg, m.keys.Left):
		m.sess.SetFocus(id, prevCaret(text, caret))

	case key.Matches(msg, m.keys.Right):
		m.sess.SetFocus(id, nextCaret(text, caret))

	case key.Matches(msg, m.keys.Home):
		m.sess.SetFocus(id, 0)

	case key.Matches(msg, m.keys.End):
		m.sess.SetFocus(id, len([]rune(text)))

	case key.Matches(msg, m.keys.Backspace):
		m.backspace(id, caret, text, scoped, scope)

	case key.Matches(msg, m.keys.Delete):
		if caret >= len([]rune(text)) {
			m.sess.Apply(model.NewCommand(model.CmdMergeNextSiblingIntoCurrent).On(id))
		} else {
			m.sess.DeleteForward()
		}

	case key.Matches(msg, m.keys.DrillDown):
		m.sess.DrillDown(id)

	case key.Matches(msg, m.keys.DrillUp):
		if !m.sess.DrillUp() {
			m.setStatus("Already at the top", false)
		}

	case key.Matches(msg, m.keys.Copy):
		return m, copySubtreeCmd(m.sess.State(), id)

	case key.Matches(msg, m.keys.External):
		cmd, err := openExternalEditor(id, text)
		if err != nil {
			m.setStatus("Editor failed: "+err.Error(), true)
			return m, nil
		}
		return m, cmd

	case msg.Type == tea.KeySpace:
		m.sess.InsertAtCaret(" ")

	case msg.Type == tea.KeyRunes:
		if msg.Paste {
			m.sess.Paste(string(msg.Runes))
		} else {
			m.sess.InsertAtCaret(string(msg.Runes))
		}
	}
	return m, nil
}

// enter splits inside text, adds a sibling at either end, and outdents an empty
// nested bullet. On the scope heading it adds a first child instead.
func (m editorModel) enter(id string, caret int, text string, onHeading bool) {
	n := len([]rune(text))
	switch {
	case onHeading:
		m.sess.Apply(model.NewCommand(model.CmdAppendEmptyChild).On(id))
	case caret > 0 && caret < n:
		m.sess.Apply(model.NewCommand(model.CmdSplitAtCaret).On(id).AtCaret(caret))
	case n > 0:
		m.sess.Apply(model.NewCommand(model.CmdInsertEmptySiblingAfter).On(id))
	case m.parentOf(id) != "":
		m.sess.Apply(model.NewCommand(model.CmdOutdent).On(id))
	default:
		m.sess.Apply(model.NewCommand(model.CmdInsertEmptySiblingAfter).On(id))
	}
}

// backspace deletes the rune before the caret. At the start of an empty bullet it
// deletes the bullet; the scope heading is never deleted from here.
func (m editorModel) backspace(id string, caret int, text string, scoped bool, scope string) {
	if caret > 0 {
		m.sess.DeleteBackward()
		return
	}
	if text != "" || (scoped && id == scope) {
		return
	}
	st := m.sess.Apply(model.NewCommand(model.CmdDeleteEmptyAtID).On(id))

	// Keep focus below the heading while zoomed in.
	if sc, ok := st.Scope(); ok && st.FocusedID == sc {
		if kids := m.sess.Children(sc); len(kids) > 0 {
			m.sess.SetFocus(kids[0], 0)
		} else {
			m.sess.Apply(model.NewCommand(model.CmdAppendEmptyChild).On(sc))
		}
	}
}

func (m editorModel) parentOf(id string) string {
	anc := m.sess.AncestorsToRoot(id)
	if len(anc) < 2 {
		return ""
	}
	return anc[len(anc)-2]
}

func (m editorModel) saveCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return savedMsg{err: sess.Flush(ctx)}
	}
}

func (m editorModel) View() string {
	st := m.sess.State()
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(xansi.Truncate(m.breadcrumb(st), width, "…"))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat(glyphHRule(), width)))
	b.WriteString("\n")

	rows := engine.VisibleRows(st)
	scope, scoped := st.Scope()
	if scoped && len(rows) > 0 && rows[0].ID == scope {
		b.WriteString(xansi.Truncate(m.renderHeading(st, scope), width, "…"))
		b.WriteString("\n")
		rows = rows[1:]
		for i := range rows {
			rows[i].Depth--
		}
	}

	lines := make([]string, 0, len(rows))
	focusedLine := 0
	for _, r := range rows {
		if r.ID == st.FocusedID {
			focusedLine = len(lines)
		}
		lines = append(lines, xansi.Truncate(m.renderRow(st, r), width, "…"))
	}
	for _, l := range visibleWindow(lines, focusedLine, m.bodyHeight(scoped)) {
		b.WriteString(l)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(styleError().Render(m.status))
		} else {
			b.WriteString(styleMuted().Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m editorModel) bodyHeight(scoped bool) int {
	if m.height <= 0 {
		return 0
	}
	// breadcrumb, rule, spacer, status, help
	chrome := 5
	if scoped {
		chrome++
	}
	if m.help.ShowAll {
		chrome += 4
	}
	if h := m.height - chrome; h > 0 {
		return h
	}
	return 1
}

// visibleWindow returns at most height lines around focus. A height of 0 means all lines.
func visibleWindow(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func (m editorModel) breadcrumb(st model.State) string {
	title := m.title
	if title == "" {
		title = "Untitled"
	}
	parts := []string{title}
	if scope, ok := st.Scope(); ok {
		for _, id := range engine.AncestorsToRoot(st, scope) {
			t := st.Nodes[id].Text
			if t == "" {
				t = "…"
			}
			parts = append(parts, t)
		}
	}
	last := len(parts) - 1
	for i := range parts[:last] {
		parts[i] = styleBreadcrumb().Render(parts[i])
	}
	parts[last] = styleBreadcrumbCurrent().Render(parts[last])
	return strings.Join(parts, styleBreadcrumb().Render(glyphBreadcrumbSep()))
}

func (m editorModel) renderHeading(st model.State, id string) string {
	text := st.Nodes[id].Text
	if id == st.FocusedID {
		return styleHeading().Render(renderTextWithCaret(text, st.Caret))
	}
	if text == "" {
		return styleMuted().Render("(untitled)")
	}
	return styleHeading().Render(text)
}

func (m editorModel) renderRow(st model.State, r engine.Row) string {
	n := st.Nodes[r.ID]

	var b strings.Builder
	for i := 0; i < r.Depth; i++ {
		b.WriteString(styleGuide().Render(glyphGuide()))
		b.WriteString(" ")
	}
	g := glyphBullet()
	if len(n.Children) > 0 {
		g = glyphBulletParent()
	}
	b.WriteString(styleGlyph().Render(g))
	b.WriteString(" ")

	if r.ID == st.FocusedID {
		b.WriteString(styleFocusedRow().Render(renderTextWithCaret(n.Text, st.Caret)))
	} else {
		b.WriteString(n.Text)
	}
	return b.String()
}

// renderTextWithCaret highlights the grapheme under the caret, or a trailing
// cell when the caret is at the end.
func renderTextWithCaret(text string, caret int) string {
	before, under, after := splitAtCaret(text, caret)
	if under == "" {
		under = " "
	}
	return before + styleCaret().Render(under) + after
}
