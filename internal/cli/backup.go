package cli

import (
	"strings"

	"bullet-cli/internal/store"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore all documents as JSONL (one document per line)",
	}
	cmd.AddCommand(newBackupExportCmd(app))
	cmd.AddCommand(newBackupImportCmd(app))
	return cmd
}

func newBackupExportCmd(app *App) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "export --to <file.jsonl>",
		Short: "Write every document to a JSONL file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(to) == "" {
				return writeErr(cmd, errUsage("missing --to"))
			}
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			docs, err := s.ExportDocuments(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteDocumentsJSONL(to, docs); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": to, "documents": len(docs)}})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Destination file")
	return cmd
}

func newBackupImportCmd(app *App) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "import --from <file.jsonl>",
		Short: "Restore documents from a JSONL file (replaces documents with the same id)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(from) == "" {
				return writeErr(cmd, errUsage("missing --from"))
			}
			docs, err := store.ReadDocumentsJSONL(from)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.ImportDocuments(cmd.Context(), docs); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": from, "documents": len(docs)}})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source file")
	return cmd
}
