package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bullet-cli/internal/format"
	"bullet-cli/internal/logging"
	"bullet-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg *store.GlobalConfig
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "bullet",
		Short:        "Bullet outliner (local-first) CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Edit the most recent document
  bullet

  # Scriptable commands
  bullet new "Weekend"
  bullet apply doc-3f2a set-text --text "Groceries"
  bullet apply doc-3f2a split --caret 3
  bullet export doc-3f2a --render

  # Direct document lookup (shortcut for: bullet edit <doc-id>)
  bullet doc-3f2a
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if len(args) == 0 {
				return runTUI(cmd, app, "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("BULLET_DIR", ""), "Data directory holding bullet.sqlite (overrides config dataDir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("BULLET_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("BULLET_LOG_LEVEL", ""), "Log level (debug|info|warn|error); enables development logging when no log mode is configured")

	cmd.AddCommand(newNewCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newApplyCmd(app))
	cmd.AddCommand(newVisibleCmd(app))
	cmd.AddCommand(newAncestorsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newBackupCmd(app))

	return cmd
}

// init loads the global config and builds the logger for this invocation.
func (app *App) init(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, fmt.Errorf("load config: %w", err))
	}
	app.cfg = cfg

	lc := cfg.Log
	if lvl := strings.TrimSpace(app.LogLevel); lvl != "" {
		lc.Level = lvl
		if lc.Mode == "" || strings.EqualFold(lc.Mode, "off") {
			lc.Mode = "development"
		}
	}
	// The editor owns the terminal; send its logs to a file.
	if isEditorCommand(cmd) && lc.File == "" && lc.Mode != "" && !strings.EqualFold(lc.Mode, "off") {
		if dir, err := store.ConfigDir(); err == nil {
			if err := os.MkdirAll(dir, 0o755); err == nil {
				lc.File = filepath.Join(dir, "bullet.log")
			}
		}
	}
	l, err := logging.New(lc)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log = l.With(zap.String("cmd", cmd.CommandPath()))
	return nil
}

func isEditorCommand(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "edit"
}

func openStore(app *App) (store.Store, error) {
	return store.Open(app.Dir, app.logger())
}

func (app *App) logger() *zap.Logger {
	return logging.OrNop(app.log)
}

func (app *App) config() *store.GlobalConfig {
	if app.cfg == nil {
		return &store.GlobalConfig{}
	}
	return app.cfg
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
