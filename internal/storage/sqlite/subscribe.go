package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/storage"
)

// Subscribe delivers the collection after every local write and whenever
// PRAGMA data_version shows a commit from another connection or process.
func (s *Store) Subscribe(ctx context.Context, col storage.CollectionPath, onChange func([]storage.Document)) (func(), error) {
	if s.db == nil {
		return nil, errClosed
	}
	docs, err := s.List(ctx, col)
	if err != nil {
		return nil, err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open watch connection: %w", err)
	}
	version, err := dataVersion(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	ping := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ping
	s.mu.Unlock()

	onChange(docs)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer conn.Close()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		deliver := func() {
			docs, err := s.List(ctx, col)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("Failed to refresh subscription", "collection", col.String(), "error", err)
				}
				return
			}
			onChange(docs)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ping:
				if !ok {
					return
				}
				if v, err := dataVersion(ctx, conn); err == nil {
					version = v
				}
				deliver()
			case <-ticker.C:
				v, err := dataVersion(ctx, conn)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("Failed to poll data_version", "error", err)
					}
					continue
				}
				if v != version {
					version = v
					deliver()
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
			cancel()
			wg.Wait()
		})
	}
	return stop, nil
}

// changed wakes every local subscription without blocking the writer.
func (s *Store) changed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func dataVersion(ctx context.Context, conn *sql.Conn) (int64, error) {
	var v int64
	if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data_version: %w", err)
	}
	return v, nil
}
