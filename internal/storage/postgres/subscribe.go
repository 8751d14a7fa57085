package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitkeeper/internal/constants"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/storage"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Subscribe listens on the documents channel; the notify trigger sends the
// changed row's collection as payload. A reconnect delivers a fresh snapshot
// since notifications may have been missed while disconnected.
func (s *Store) Subscribe(ctx context.Context, col storage.CollectionPath, onChange func([]storage.Document)) (func(), error) {
	if s.db == nil {
		return nil, errClosed
	}

	listener := pq.NewListener(s.connStr, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("Postgres listener event", "event", ev, "error", err)
			}
		})
	if err := listener.Listen(constants.PostgresNotifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", constants.PostgresNotifyChannel, err)
	}

	docs, err := s.List(ctx, col)
	if err != nil {
		listener.Close()
		return nil, err
	}
	onChange(docs)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		want := col.String()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				if n != nil && n.Extra != want {
					continue
				}
				docs, err := s.List(ctx, col)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("Failed to refresh subscription", "collection", want, "error", err)
					}
					continue
				}
				onChange(docs)
			case <-time.After(listenerPingInterval):
				if err := listener.Ping(); err != nil {
					logger.Warn("Postgres listener ping failed", "error", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
			listener.Close()
		})
	}, nil
}
