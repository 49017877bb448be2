package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"bullet-cli/internal/model"
)

type WriteOptions struct {
	Scoped    bool
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written" yaml:"written"`
}

// WriteDocument exports doc as <toDir>/<doc id>.md.
func WriteDocument(doc model.Document, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	md := RenderMarkdown(doc.State, RenderOptions{Title: doc.Title, Scoped: opt.Scoped})
	outPath := filepath.Join(toDir, doc.ID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
