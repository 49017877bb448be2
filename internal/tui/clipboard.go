package tui

import (
	"strings"

	"bullet-cli/internal/model"
	"bullet-cli/internal/publish"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

type copiedMsg struct {
	lines int
	err   error
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// subtreeMarkdown renders id and its descendants as a Markdown bullet list.
func subtreeMarkdown(st model.State, id string) string {
	view := st.Clone()
	view.ScopeRootID = &id
	return publish.RenderMarkdown(view, publish.RenderOptions{Scoped: true})
}

func copySubtreeCmd(st model.State, id string) tea.Cmd {
	md := subtreeMarkdown(st, id)
	return func() tea.Msg {
		return copiedMsg{
			lines: strings.Count(md, "\n"),
			err:   writeClipboard(md),
		}
	}
}
