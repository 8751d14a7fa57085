package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkeeper/internal/storage"
)

var errClosed = errors.New("store is closed")

func (s *Store) Create(ctx context.Context, col storage.CollectionPath, fields storage.Fields) (string, error) {
	if s.db == nil {
		return "", errClosed
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)",
		col.String(), id, body); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", col, err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, doc storage.DocumentPath) (storage.Fields, error) {
	if s.db == nil {
		return nil, errClosed
	}
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = $1 AND id = $2",
		doc.CollectionPath.String(), doc.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", doc, err)
	}
	return decode(body)
}

func (s *Store) List(ctx context.Context, col storage.CollectionPath) ([]storage.Document, error) {
	if s.db == nil {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = $1 ORDER BY id",
		col.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", col, err)
	}
	defer rows.Close()

	var docs []storage.Document
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		f, err := decode(body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		docs = append(docs, storage.Document{ID: id, Fields: f})
	}
	return docs, rows.Err()
}

// UpdatePartial locks the row, applies the dotted paths and writes the body
// back in one transaction.
func (s *Store) UpdatePartial(ctx context.Context, doc storage.DocumentPath, updates map[string]any) error {
	if s.db == nil {
		return errClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body []byte
	err = tx.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE",
		doc.CollectionPath.String(), doc.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", doc, err)
	}

	f, err := decode(body)
	if err != nil {
		return err
	}
	if err := storage.ApplyUpdates(f, updates); err != nil {
		return fmt.Errorf("failed to update %s: %w", doc, err)
	}
	next, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET body = $1, updated_at = now() WHERE collection = $2 AND id = $3",
		next, doc.CollectionPath.String(), doc.ID); err != nil {
		return fmt.Errorf("failed to write %s: %w", doc, err)
	}
	return tx.Commit()
}

func decode(body []byte) (storage.Fields, error) {
	f := storage.Fields{}
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return f, nil
}
