package cli

import (
	"errors"
	"time"

	"bullet-cli/internal/model"
	"bullet-cli/internal/session"
	"bullet-cli/internal/store"
	"bullet-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <doc>",
		Short: "Open a document in the interactive editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app, args[0])
		},
	}
}

// runTUI edits docArg, or (when empty) the current document, the most recent one,
// or a new one, in that order.
func runTUI(cmd *cobra.Command, app *App, docArg string) error {
	s, err := openStore(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	doc, err := pickDocument(cmd, app, s, docArg)
	if err != nil {
		return writeErr(cmd, err)
	}
	useDocument(app, doc.ID)

	every := time.Duration(app.config().AutosaveSeconds()) * time.Second
	log := app.logger().With(zap.String("docID", doc.ID))
	sess := session.Open(doc.State,
		session.WithLogger(log),
		session.WithAutosave(s, doc.ID, every),
	)

	glyphs := ""
	if t := app.config().TUI; t != nil {
		glyphs = t.Glyphs
	}
	runErr := tui.Run(sess, tui.Options{Title: doc.Title, Glyphs: glyphs, Log: log})
	if err := sess.Close(); err != nil {
		return writeErr(cmd, err)
	}
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	return nil
}

func pickDocument(cmd *cobra.Command, app *App, s store.Store, docArg string) (model.Document, error) {
	ctx := cmd.Context()
	if docArg != "" {
		id, err := s.ResolveDocumentID(ctx, docArg)
		if err != nil {
			return model.Document{}, err
		}
		return s.LoadDocument(ctx, id)
	}

	if cur := app.config().CurrentDocument; cur != "" {
		doc, err := s.LoadDocument(ctx, cur)
		if err == nil {
			return doc, nil
		}
		var nf store.NotFoundError
		if !errors.As(err, &nf) {
			return model.Document{}, err
		}
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return model.Document{}, err
	}
	if len(docs) > 0 {
		return s.LoadDocument(ctx, docs[0].ID)
	}
	return s.CreateDocument(ctx, "")
}
