package store

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/model"

	"go.uber.org/zap"
)

// ExportDocuments returns every document with its full state, oldest first.
func (s Store) ExportDocuments(ctx context.Context) ([]model.Document, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		d, err := s.LoadDocument(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ImportDocuments inserts or replaces documents in one transaction. Every document
// is checked before anything is written.
func (s Store) ImportDocuments(ctx context.Context, docs []model.Document) error {
	raws := make([]string, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("document %d has no id", i+1)
		}
		if err := engine.CheckInvariants(d.State); err != nil {
			return fmt.Errorf("document %s is corrupt: %w", d.ID, err)
		}
		b, err := json.Marshal(d.State)
		if err != nil {
			return err
		}
		raws[i] = string(b)
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, d := range docs {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			title = "Untitled"
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO documents(id, title, state_json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			d.ID, title, raws[i], d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("import document %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log().Info("documents imported", zap.Int("count", len(docs)))
	return nil
}

// WriteDocumentsJSONL writes one document per line.
func WriteDocumentsJSONL(path string, docs []model.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func ReadDocumentsJSONL(path string) ([]model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []model.Document{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var d model.Document
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			return nil, fmt.Errorf("parse backup line %d: %w", line, err)
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
