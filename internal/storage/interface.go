package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/habitkeeper/internal/constants"
)

// ErrNotFound is returned by Get and UpdatePartial for a missing document.
var ErrNotFound = errors.New("document not found")

// Fields is the body of one stored document.
type Fields map[string]any

// CollectionPath names a per-user collection: users/{uid}/{collection}.
type CollectionPath struct {
	UID        string
	Collection string
}

func (c CollectionPath) String() string {
	return constants.UsersCollection + "/" + c.UID + "/" + c.Collection
}

// Doc addresses one document inside the collection.
func (c CollectionPath) Doc(id string) DocumentPath {
	return DocumentPath{CollectionPath: c, ID: id}
}

type DocumentPath struct {
	CollectionPath
	ID string
}

func (d DocumentPath) String() string {
	return d.CollectionPath.String() + "/" + d.ID
}

type Document struct {
	ID     string
	Fields Fields
}

// Provider is a document store scoped by owner collection paths.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	// Name identifies the backend in logs and metrics.
	Name() string

	// Documents
	Create(ctx context.Context, col CollectionPath, fields Fields) (string, error)
	Get(ctx context.Context, doc DocumentPath) (Fields, error)
	List(ctx context.Context, col CollectionPath) ([]Document, error)
	// UpdatePartial sets each dotted field path (e.g. "log.2026-10-14.streak")
	// without rewriting the rest of the document.
	UpdatePartial(ctx context.Context, doc DocumentPath, updates map[string]any) error

	// Subscribe calls onChange with the full collection once on start and
	// again after every change until the returned function is called or ctx ends.
	Subscribe(ctx context.Context, col CollectionPath, onChange func([]Document)) (func(), error)
}
