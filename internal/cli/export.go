package cli

import (
	"fmt"
	"strings"

	"bullet-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		render    bool
		scoped    bool
		width     int
		style     string
		toDir     string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "export <doc>",
		Short: "Export a document as a Markdown bullet list",
		Long: strings.TrimSpace(`
Print the document as nested Markdown bullets (two spaces per level).

--render formats the Markdown for the terminal; --to writes <doc-id>.md into a
directory instead of printing (derived artifact, not canonical).
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDoc(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			if strings.TrimSpace(toDir) != "" {
				res, err := publish.WriteDocument(doc, toDir, publish.WriteOptions{Scoped: scoped, Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}

			md := publish.RenderMarkdown(doc.State, publish.RenderOptions{Title: doc.Title, Scoped: scoped})
			if render {
				md = publish.RenderTerminal(md, width, style)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "Render for the terminal (glamour)")
	cmd.Flags().BoolVar(&scoped, "scoped", false, "Only export the subtree under the scope root")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	cmd.Flags().StringVar(&style, "style", envOr("BULLET_RENDER_STYLE", "dark"), "glamour style for --render (dark|light|notty|ascii)")
	cmd.Flags().StringVar(&toDir, "to", "", "Write <doc-id>.md into this directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing export with --to")
	return cmd
}
