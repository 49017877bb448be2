package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI autosave while a CLI command reads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			state_json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// CreateDocument stores a fresh single-bullet document and returns it.
func (s Store) CreateDocument(ctx context.Context, title string) (model.Document, error) {
	now := time.Now().UTC()
	doc := model.Document{
		ID:        "doc-" + uuid.NewString(),
		Title:     strings.TrimSpace(title),
		CreatedAt: now,
		UpdatedAt: now,
		State:     engine.InitialState(),
	}
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	raw, err := json.Marshal(doc.State)
	if err != nil {
		return model.Document{}, err
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Document{}, err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `INSERT INTO documents(id, title, state_json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, string(raw), now.UnixMilli(), now.UnixMilli()); err != nil {
		return model.Document{}, fmt.Errorf("insert document: %w", err)
	}
	s.log().Info("document created", zap.String("docID", doc.ID), zap.String("title", doc.Title))
	return doc, nil
}

// LoadDocument reads a document and rejects it if its tree is inconsistent.
func (s Store) LoadDocument(ctx context.Context, id string) (model.Document, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Document{}, err
	}
	defer db.Close()

	var (
		doc       model.Document
		raw       string
		createdMs int64
		updatedMs int64
	)
	err = db.QueryRowContext(ctx, `SELECT id, title, state_json, created_at_unixms, updated_at_unixms FROM documents WHERE id = ?`, strings.TrimSpace(id)).
		Scan(&doc.ID, &doc.Title, &raw, &createdMs, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return model.Document{}, err
	}
	if err := json.Unmarshal([]byte(raw), &doc.State); err != nil {
		return model.Document{}, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := engine.CheckInvariants(doc.State); err != nil {
		return model.Document{}, fmt.Errorf("document %s is corrupt: %w", doc.ID, err)
	}
	doc.CreatedAt = time.UnixMilli(createdMs).UTC()
	doc.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return doc, nil
}

// SaveDocument replaces the stored state of an existing document.
func (s Store) SaveDocument(ctx context.Context, id string, st model.State) error {
	if err := engine.CheckInvariants(st); err != nil {
		return fmt.Errorf("refusing to save inconsistent document %s: %w", id, err)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `UPDATE documents SET state_json = ?, updated_at_unixms = ? WHERE id = ?`,
		string(raw), time.Now().UTC().UnixMilli(), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "document", ID: id}
	}
	s.log().Debug("document saved", zap.String("docID", id), zap.Int("nodes", len(st.Nodes)))
	return nil
}

func (s Store) RenameDocument(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is empty")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `UPDATE documents SET title = ?, updated_at_unixms = ? WHERE id = ?`,
		title, time.Now().UTC().UnixMilli(), strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

func (s Store) DeleteDocument(ctx context.Context, id string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "document", ID: id}
	}
	s.log().Info("document deleted", zap.String("docID", id))
	return nil
}

// ListDocuments returns document metadata (without state), most recently updated first.
func (s Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, title, created_at_unixms, updated_at_unixms FROM documents ORDER BY updated_at_unixms DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		var (
			d                    model.Document
			createdMs, updatedMs int64
		)
		if err := rows.Scan(&d.ID, &d.Title, &createdMs, &updatedMs); err != nil {
			return nil, err
		}
		d.CreatedAt = time.UnixMilli(createdMs).UTC()
		d.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// ResolveDocumentID expands a unique id prefix (e.g. "doc-3f2a") into a full id.
func (s Store) ResolveDocumentID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("missing document id")
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, d := range docs {
		if d.ID == prefix {
			return d.ID, nil
		}
		if strings.HasPrefix(d.ID, prefix) || strings.HasPrefix(d.ID, "doc-"+prefix) {
			matches = append(matches, d.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", NotFoundError{Kind: "document", ID: prefix}
	case 1:
		return matches[0], nil
	default:
		return "", AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
}
