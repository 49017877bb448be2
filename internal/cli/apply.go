package cli

import (
	"io"
	"strings"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/model"
	"bullet-cli/internal/session"

	"github.com/spf13/cobra"
)

func newApplyCmd(app *App) *cobra.Command {
	var (
		targetID string
		caret    int
		scopeID  string
		text     string
		rawJSON  string
	)

	cmd := &cobra.Command{
		Use:   "apply <doc> [kind]",
		Short: "Apply one edit command to a document",
		Long: strings.TrimSpace(`
Apply one edit command and save the result.

Kinds: ` + strings.Join(model.CommandKindNames(), ", ") + `

Commands that do not apply (unknown target, first sibling indent, ...) leave the
document unchanged and report "changed": false.

Instead of flags, pass the whole command with --json (JSON or YAML; "-" reads stdin):
  bullet apply doc-3f2a --json '{"kind":"split","targetId":"n1","caret":3}'
`),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w model.WireCommand
			switch {
			case strings.TrimSpace(rawJSON) != "":
				if len(args) == 2 {
					return writeErr(cmd, errUsage("pass the kind either as an argument or inside --json, not both"))
				}
				b := []byte(rawJSON)
				if rawJSON == "-" {
					in, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return writeErr(cmd, err)
					}
					b = in
				}
				parsed, err := session.ParseWire(b)
				if err != nil {
					return writeErr(cmd, err)
				}
				w = parsed
			case len(args) == 2:
				w.Kind = args[1]
				flags := cmd.Flags()
				if flags.Changed("id") {
					w.TargetID = &targetID
				}
				if flags.Changed("caret") {
					w.Caret = &caret
				}
				if flags.Changed("scope") {
					w.ScopeRootID = &scopeID
				}
				if flags.Changed("text") {
					w.Text = &text
				}
			default:
				return writeErr(cmd, errUsage("missing command kind (one of: "+strings.Join(model.CommandKindNames(), ", ")+")"))
			}

			doc, s, err := loadDoc(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			sess := session.Open(doc.State, session.WithLogger(app.logger()), session.WithInvariantChecks())
			defer sess.Close()

			next, err := sess.ApplyWire(w)
			if err != nil {
				return writeErr(cmd, err)
			}
			changed := sess.Revision() > 0
			if changed {
				if err := s.SaveDocument(cmd.Context(), doc.ID, next); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": next,
				"meta": map[string]any{
					"docId":   doc.ID,
					"kind":    w.Kind,
					"changed": changed,
				},
			})
		},
	}

	cmd.Flags().StringVar(&targetID, "id", "", "Target node id (default: focused node)")
	cmd.Flags().IntVar(&caret, "caret", model.CaretStored, "Caret (runes) for split/set-focus; -1 uses the stored caret")
	cmd.Flags().StringVar(&scopeID, "scope", "", "Scope root id for set-scope (omit to clear)")
	cmd.Flags().StringVar(&text, "text", "", "Text for set-text")
	cmd.Flags().StringVar(&rawJSON, "json", "", "Whole command as JSON/YAML (\"-\" reads stdin)")
	return cmd
}

type visibleRow struct {
	ID      string `json:"id" yaml:"id"`
	Depth   int    `json:"depth" yaml:"depth"`
	Text    string `json:"text" yaml:"text"`
	Focused bool   `json:"focused,omitempty" yaml:"focused,omitempty"`
}

func newVisibleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "visible <doc>",
		Short: "List visible bullets in order (respects the scope root)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDoc(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st := doc.State
			rows := engine.VisibleRows(st)
			out := make([]visibleRow, 0, len(rows))
			for _, r := range rows {
				out = append(out, visibleRow{ID: r.ID, Depth: r.Depth, Text: st.Nodes[r.ID].Text, Focused: r.ID == st.FocusedID})
			}
			meta := map[string]any{"focusedId": st.FocusedID, "caret": st.Caret}
			if scope, ok := st.Scope(); ok {
				meta["scopeRootId"] = scope
			}
			return writeOut(cmd, app, map[string]any{"data": out, "meta": meta})
		},
	}
}

func newAncestorsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ancestors <doc> <node-id>",
		Short: "Print the path from the root to a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDoc(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[1])
			if !doc.State.Has(id) {
				return writeErr(cmd, errNotFound("node", id))
			}
			return writeOut(cmd, app, map[string]any{"data": engine.AncestorsToRoot(doc.State, id)})
		},
	}
}
