package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailrepl/internal/store"
	"github.com/nhle/mailrepl/tests/testutil"
)

func TestAliasAllocatesPerFolder(t *testing.T) {
	ctx := context.Background()
	m := testutil.NewTestMapper(t, "work")

	a, err := m.Alias(ctx, "INBOX", "4021")
	require.NoError(t, err)
	assert.Equal(t, 1, a)

	a, err = m.Alias(ctx, "INBOX", "4022")
	require.NoError(t, err)
	assert.Equal(t, 2, a)

	a, err = m.Alias(ctx, "INBOX", "4021")
	require.NoError(t, err)
	assert.Equal(t, 1, a, "existing id keeps its alias")

	a, err = m.Alias(ctx, "Sent", "4021")
	require.NoError(t, err)
	assert.Equal(t, 1, a, "aliases are counted per folder")
}

func TestAliasesAreScopedPerAccount(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.Mapper("work").Aliases(ctx, "INBOX", []string{"10", "11"})
	require.NoError(t, err)

	got, err := s.Mapper("home").Aliases(ctx, "INBOX", []string{"11", "10"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"11": 1, "10": 2}, got)

	id, err := s.Mapper("work").ID(ctx, "INBOX", 1)
	require.NoError(t, err)
	assert.Equal(t, "10", id)
}

func TestIDNotFound(t *testing.T) {
	m := testutil.NewTestMapper(t, "work")
	_, err := m.ID(context.Background(), "INBOX", 7)
	assert.ErrorIs(t, err, store.ErrAliasNotFound)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	m := testutil.NewTestMapper(t, "work")

	assert.Equal(t, []int{1, 2, 3}, testutil.SeedAliases(t, m, "INBOX", "1", "2", "3"))
	require.NoError(t, m.Forget(ctx, "INBOX", []string{"1", "2"}))
	require.NoError(t, m.Forget(ctx, "INBOX", nil))

	_, err := m.ID(ctx, "INBOX", 1)
	assert.ErrorIs(t, err, store.ErrAliasNotFound)

	id, err := m.ID(ctx, "INBOX", 3)
	require.NoError(t, err)
	assert.Equal(t, "3", id)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "id-mapper.sqlite")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.Mapper("work").Alias(ctx, "INBOX", "99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	id, err := s.Mapper("work").ID(ctx, "INBOX", 1)
	require.NoError(t, err)
	assert.Equal(t, "99", id)
}
