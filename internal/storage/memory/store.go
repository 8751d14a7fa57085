// Package memory is a process-local document store. Nothing survives the
// process; it backs tests and the --store memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkeeper/internal/storage"
)

type subscriber struct {
	id       int
	col      string
	onChange func([]storage.Document)
}

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]storage.Fields
	subs        map[int]subscriber
	nextSub     int
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]storage.Fields),
		subs:        make(map[int]subscriber),
	}
}

func (s *Store) Init(ctx context.Context) error { return nil }

func (s *Store) Load(ctx context.Context) error { return nil }

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[int]subscriber)
	return nil
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Create(ctx context.Context, col storage.CollectionPath, fields storage.Fields) (string, error) {
	body, err := storage.CloneFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()

	s.mu.Lock()
	key := col.String()
	if s.collections[key] == nil {
		s.collections[key] = make(map[string]storage.Fields)
	}
	s.collections[key][id] = body
	s.mu.Unlock()

	s.notify(key)
	return id, nil
}

func (s *Store) Get(ctx context.Context, doc storage.DocumentPath) (storage.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.collections[doc.CollectionPath.String()][doc.ID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	return storage.CloneFields(body)
}

func (s *Store) List(ctx context.Context, col storage.CollectionPath) ([]storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(col.String())
}

func (s *Store) UpdatePartial(ctx context.Context, doc storage.DocumentPath, updates map[string]any) error {
	key := doc.CollectionPath.String()

	s.mu.Lock()
	body, ok := s.collections[key][doc.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", doc, storage.ErrNotFound)
	}
	next, err := storage.CloneFields(body)
	if err == nil {
		err = storage.ApplyUpdates(next, updates)
	}
	if err == nil {
		// normalize values written by the caller the same way Create does
		next, err = storage.CloneFields(next)
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.collections[key][doc.ID] = next
	s.mu.Unlock()

	s.notify(key)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, col storage.CollectionPath, onChange func([]storage.Document)) (func(), error) {
	key := col.String()

	s.mu.Lock()
	docs, err := s.snapshot(key)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscriber{id: id, col: key, onChange: onChange}
	s.mu.Unlock()

	onChange(docs)

	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop, nil
}

// snapshot must be called with mu held.
func (s *Store) snapshot(key string) ([]storage.Document, error) {
	ids := make([]string, 0, len(s.collections[key]))
	for id := range s.collections[key] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]storage.Document, 0, len(ids))
	for _, id := range ids {
		body, err := storage.CloneFields(s.collections[key][id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, storage.Document{ID: id, Fields: body})
	}
	return docs, nil
}

// notify delivers the collection to its subscribers outside the lock, in
// subscription order.
func (s *Store) notify(key string) {
	s.mu.Lock()
	var targets []subscriber
	for _, sub := range s.subs {
		if sub.col == key {
			targets = append(targets, sub)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
	var docs []storage.Document
	var err error
	if len(targets) > 0 {
		docs, err = s.snapshot(key)
	}
	s.mu.Unlock()

	if err != nil {
		return
	}
	for _, sub := range targets {
		sub.onChange(docs)
	}
}
