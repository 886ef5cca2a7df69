package testutil

import (
	"context"
	"testing"

	"github.com/nhle/mailrepl/internal/store"
)

// NewTestStore opens an in-memory id mapper database with all migrations
// applied. The store is closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestMapper returns the alias mapper of account backed by a fresh
// in-memory store.
func NewTestMapper(t *testing.T, account string) *store.AccountMapper {
	t.Helper()
	return NewTestStore(t).Mapper(account)
}

// SeedAliases allocates aliases for ids in folder, in order, and returns
// them.
func SeedAliases(t *testing.T, m *store.AccountMapper, folder string, ids ...string) []int {
	t.Helper()

	aliases := make([]int, 0, len(ids))
	for _, id := range ids {
		alias, err := m.Alias(context.Background(), folder, id)
		if err != nil {
			t.Fatalf("allocating alias of %s/%s: %v", folder, id, err)
		}
		aliases = append(aliases, alias)
	}
	return aliases
}
