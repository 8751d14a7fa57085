package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkeeper/internal/storage"
)

func (s *Store) Create(ctx context.Context, col storage.CollectionPath, fields storage.Fields) (string, error) {
	if s.db == nil {
		return "", errClosed
	}
	body, err := encodeBody(fields)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	ts := now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		col.String(), id, body, ts, ts)
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", col, err)
	}
	s.changed()
	return id, nil
}

func (s *Store) Get(ctx context.Context, doc storage.DocumentPath) (storage.Fields, error) {
	if s.db == nil {
		return nil, errClosed
	}
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		doc.CollectionPath.String(), doc.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", doc, err)
	}
	m, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	return storage.Fields(m), nil
}

func (s *Store) List(ctx context.Context, col storage.CollectionPath) ([]storage.Document, error) {
	if s.db == nil {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ? ORDER BY id",
		col.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", col, err)
	}
	defer rows.Close()

	var docs []storage.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		m, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		docs = append(docs, storage.Document{ID: id, Fields: m})
	}
	return docs, rows.Err()
}

func (s *Store) UpdatePartial(ctx context.Context, doc storage.DocumentPath, updates map[string]any) error {
	if s.db == nil {
		return errClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	err = tx.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		doc.CollectionPath.String(), doc.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", doc, err)
	}

	m, err := decodeBody(body)
	if err != nil {
		return err
	}
	if err := storage.ApplyUpdates(m, updates); err != nil {
		return fmt.Errorf("failed to update %s: %w", doc, err)
	}
	next, err := encodeBody(m)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?",
		next, now(), doc.CollectionPath.String(), doc.ID); err != nil {
		return fmt.Errorf("failed to write %s: %w", doc, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", doc, err)
	}
	s.changed()
	return nil
}
