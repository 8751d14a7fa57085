// Package firestore keeps habits in Cloud Firestore under the same
// users/{uid}/{collection} layout the mobile app uses.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/julianstephens/habitkeeper/internal/constants"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/storage"
)

var errClosed = errors.New("store is closed")

type Store struct {
	app     *firebase.App
	client  *firestore.Client
	limiter *rate.Limiter
}

// New creates a store that opens its client from app on Init or Load.
func New(app *firebase.App) *Store {
	return &Store{
		app:     app,
		limiter: rate.NewLimiter(rate.Limit(constants.DefaultFirestoreWriteHz), constants.DefaultFirestoreBurst),
	}
}

// NewWithClient wraps an existing client, as used against the emulator.
func NewWithClient(client *firestore.Client, limiter *rate.Limiter) *Store {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Store{client: client, limiter: limiter}
}

// SetWriteRate caps writes per second. Zero removes the cap.
func (s *Store) SetWriteRate(hz float64) {
	if hz <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	s.limiter = rate.NewLimiter(rate.Limit(hz), constants.DefaultFirestoreBurst)
}

func (s *Store) Name() string { return "firestore" }

func (s *Store) Init(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) Load(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	if s.app == nil {
		return fmt.Errorf("firestore store has no firebase app")
	}
	client, err := s.app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("error getting firestore client: %w", err)
	}
	s.client = client
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

// wait throttles writes; Firestore sustains about one write per second per document.
func (s *Store) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("write throttled: %w", err)
	}
	return nil
}

func notFound(err error, doc storage.DocumentPath) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, col storage.CollectionPath, fields storage.Fields) (string, error) {
	if s.client == nil {
		return "", errClosed
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(col.String()).Add(ctx, map[string]any(fields))
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", col, err)
	}
	return ref.ID, nil
}

func (s *Store) Get(ctx context.Context, doc storage.DocumentPath) (storage.Fields, error) {
	if s.client == nil {
		return nil, errClosed
	}
	snap, err := s.client.Doc(doc.String()).Get(ctx)
	if err != nil {
		if nf := notFound(err, doc); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get %s: %w", doc, err)
	}
	return storage.Fields(snap.Data()), nil
}

func (s *Store) List(ctx context.Context, col storage.CollectionPath) ([]storage.Document, error) {
	if s.client == nil {
		return nil, errClosed
	}
	snaps, err := s.client.Collection(col.String()).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", col, err)
	}
	return toDocuments(snaps), nil
}

// UpdatePartial sends each dotted path as a FieldPath so date keys such as
// 2026-10-14 need no quoting.
func (s *Store) UpdatePartial(ctx context.Context, doc storage.DocumentPath, updates map[string]any) error {
	if s.client == nil {
		return errClosed
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	ups := make([]firestore.Update, 0, len(updates))
	for path, v := range updates {
		ups = append(ups, firestore.Update{FieldPath: firestore.FieldPath(storage.SplitPath(path)), Value: v})
	}
	if _, err := s.client.Doc(doc.String()).Update(ctx, ups); err != nil {
		if nf := notFound(err, doc); nf != nil {
			return nf
		}
		return fmt.Errorf("failed to update %s: %w", doc, err)
	}
	return nil
}

// Subscribe waits for the first snapshot before returning, then streams
// the rest from a goroutine.
func (s *Store) Subscribe(ctx context.Context, col storage.CollectionPath, onChange func([]storage.Document)) (func(), error) {
	if s.client == nil {
		return nil, errClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(col.String()).Snapshots(ctx)

	first, err := it.Next()
	if err != nil {
		cancel()
		it.Stop()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", col, err)
	}
	docs, err := first.Documents.GetAll()
	if err != nil {
		cancel()
		it.Stop()
		return nil, fmt.Errorf("failed to read snapshot of %s: %w", col, err)
	}
	onChange(toDocuments(docs))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					logger.Warn("Firestore subscription ended", "collection", col.String(), "error", err)
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				logger.Warn("Failed to read snapshot", "collection", col.String(), "error", err)
				continue
			}
			onChange(toDocuments(docs))
		}
	}()

	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		it.Stop()
		<-done
	}, nil
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []storage.Document {
	docs := make([]storage.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, storage.Document{ID: snap.Ref.ID, Fields: storage.Fields(snap.Data())})
	}
	return docs
}
