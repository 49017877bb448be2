package cli

import (
	"strings"
	"time"

	"bullet-cli/internal/model"
	"bullet-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type docSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	Current   bool      `json:"current,omitempty" yaml:"current,omitempty"`
}

func summarize(d model.Document, current string) docSummary {
	return docSummary{ID: d.ID, Title: d.Title, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt, Current: d.ID == current}
}

// resolveDocID expands an id or unique id prefix without loading the document.
func resolveDocID(cmd *cobra.Command, app *App, arg string) (string, store.Store, error) {
	s, err := openStore(app)
	if err != nil {
		return "", store.Store{}, err
	}
	id, err := s.ResolveDocumentID(cmd.Context(), arg)
	if err != nil {
		return "", s, err
	}
	return id, s, nil
}

func loadDoc(cmd *cobra.Command, app *App, arg string) (model.Document, store.Store, error) {
	id, s, err := resolveDocID(cmd, app, arg)
	if err != nil {
		return model.Document{}, s, err
	}
	doc, err := s.LoadDocument(cmd.Context(), id)
	if err != nil {
		return model.Document{}, s, err
	}
	return doc, s, nil
}

// useDocument records id as the document the bare `bullet` command opens.
func useDocument(app *App, id string) {
	cfg := app.config()
	if cfg.CurrentDocument == id {
		return
	}
	cfg.CurrentDocument = id
	if err := store.SaveConfig(cfg); err != nil {
		app.logger().Warn("could not record current document", zap.String("docID", id), zap.Error(err))
	}
}

func newNewCmd(app *App) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a document with a single empty bullet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			doc, err := s.CreateDocument(cmd.Context(), title)
			if err != nil {
				return writeErr(cmd, err)
			}
			if use {
				useDocument(app, doc.ID)
			}
			return writeOut(cmd, app, map[string]any{"data": doc})
		},
	}
	cmd.Flags().BoolVar(&use, "use", true, "Make the new document current")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents (most recently edited first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			docs, err := s.ListDocuments(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]docSummary, 0, len(docs))
			for _, d := range docs {
				out = append(out, summarize(d, app.config().CurrentDocument))
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <doc>",
		Short: "Show a document with its full tree state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDoc(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": doc})
		},
	}
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <doc> <title>",
		Short: "Rename a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, s, err := resolveDocID(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.RenameDocument(cmd.Context(), id, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "title": strings.TrimSpace(args[1])}})
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <doc>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, s, err := resolveDocID(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.DeleteDocument(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			if app.config().CurrentDocument == id {
				useDocument(app, "")
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
		},
	}
}
