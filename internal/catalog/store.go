// Package catalog persists the roster of pre-declared named channels.
// Only the roster survives restarts; every other piece of relay state
// is volatile and reconstructed from active connections.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chatrelay/internal/config"
	"chatrelay/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	name       TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store is a sqlite-backed channel roster. Writes funnel through a
// single goroutine; SQLite performs poorly under write contention.
type Store struct {
	db           *sql.DB
	timeout      time.Duration
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewStore opens the roster database, applies the schema, and seeds the
// given channels if they are not declared yet.
func NewStore(cfg *config.CatalogConfig, seed []string) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply catalog schema: %w", err)
	}

	s := &Store{
		db:           db,
		timeout:      cfg.Timeout,
		writeChannel: make(chan writeOperation, 16),
		shutdown:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	if err := s.seedChannels(seed); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) seedChannels(seed []string) error {
	for _, name := range seed {
		if err := s.Create(context.Background(), name); err != nil && err != ErrChannelExists {
			return fmt.Errorf("failed to seed channel %q: %w", name, err)
		}
	}
	return nil
}

// writeLoop processes all write operations in a single goroutine.
func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			op.result <- op.operation(s.db)

		case <-s.shutdown:
			return
		}
	}
}

func (s *Store) executeWrite(ctx context.Context, operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	op := writeOperation{
		operation: operation,
		result:    make(chan error, 1),
	}

	select {
	case s.writeChannel <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.shutdown:
		return ErrStoreClosed
	}

	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns channel names in declaration order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM channels ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read channel rows: %w", err)
	}

	return channels, nil
}

// Create declares a new named channel. Private-room identifiers are not
// channels and are rejected by name validation.
func (s *Store) Create(ctx context.Context, name string) error {
	if !types.IsValidChannelName(name) {
		return ErrInvalidChannelName
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.executeWrite(ctx, func(db *sql.DB) error {
		result, err := db.Exec(`INSERT OR IGNORE INTO channels (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("failed to create channel %q: %w", name, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to create channel %q: %w", name, err)
		}
		if affected == 0 {
			return ErrChannelExists
		}
		log.Printf("Channel created: name=%s", name)
		return nil
	})
}

// Close stops the writer goroutine and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	return s.db.Close()
}
