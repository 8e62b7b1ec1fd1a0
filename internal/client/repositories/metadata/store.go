package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/keylessvault/internal/dbx"
)

// SQLiteStore is a SQLiteRepository bound to a *sql.DB so multi-key writes
// can run in one transaction.
type SQLiteStore struct {
	*SQLiteRepository
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{SQLiteRepository: NewSQLiteRepository(db), db: db}
}

func (s *SQLiteStore) DeleteKeys(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, k := range keys {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetKeys writes every entry of values in one transaction. Keys are written
// in sorted order.
func (s *SQLiteStore) SetKeys(ctx context.Context, values map[string][]byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, k := range sortedKeys(values) {
			if err := repo.Set(ctx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func sortedKeys(values map[string][]byte) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MemoryStore keeps values in a map. Values are copied in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites and FailDeletes make writes or deletes return an error;
	// used to exercise storage failures.
	FailWrites  error
	FailDeletes error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, m.FailWrites)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) SetKeys(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return fmt.Errorf("failed to set metadata: %w", m.FailWrites)
	}
	for k, v := range values {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeletes != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, m.FailDeletes)
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) DeleteKeys(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeletes != nil {
		return fmt.Errorf("failed to delete metadata: %w", m.FailDeletes)
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}
