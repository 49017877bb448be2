package publish

import (
	"strconv"
	"strings"
	"sync"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/model"

	"github.com/charmbracelet/glamour"
)

type RenderOptions struct {
	// Title, when set, is written as a level-one heading above the list.
	Title string
	// Scoped limits the export to the subtree under the scope root (if any).
	Scoped bool
}

// RenderMarkdown writes the outline as a nested "- text" list, two spaces per level.
func RenderMarkdown(st model.State, opt RenderOptions) string {
	var b strings.Builder
	if t := strings.TrimSpace(opt.Title); t != "" {
		b.WriteString("# " + t + "\n\n")
	}

	view := st
	if !opt.Scoped {
		view = st.Clone()
		view.ScopeRootID = nil
	}
	for _, r := range engine.VisibleRows(view) {
		indent := strings.Repeat("  ", r.Depth)
		b.WriteString(indent)
		b.WriteString("-")
		text := strings.ReplaceAll(st.Nodes[r.ID].Text, "\r\n", "\n")
		for i, line := range strings.Split(text, "\n") {
			switch {
			case i > 0:
				// Continuation lines stay inside the list item.
				b.WriteString("\n" + indent + "  " + line)
			case line != "":
				b.WriteString(" " + line)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	termRendererMu sync.Mutex
	termRenderers  = map[string]*glamour.TermRenderer{}
)

// RenderTerminal renders markdown for a terminal using a fixed glamour style
// ("dark", "light", "notty" or "ascii"). On renderer errors it returns md unchanged.
func RenderTerminal(md string, width int, style string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}

	key := style + ":" + strconv.Itoa(width)
	termRendererMu.Lock()
	r := termRenderers[key]
	termRendererMu.Unlock()
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		termRendererMu.Lock()
		if existing := termRenderers[key]; existing != nil {
			r = existing
		} else {
			termRenderers[key] = rr
			r = rr
		}
		termRendererMu.Unlock()
	}

	// TermRenderer is not safe for concurrent Render calls.
	termRendererMu.Lock()
	out, err := r.Render(md)
	termRendererMu.Unlock()
	if err != nil {
		return md
	}
	return out
}
