package store

import (
	"context"
	"errors"
)

// ErrAliasNotFound is returned when an alias has no mapped id.
var ErrAliasNotFound = errors.New("alias not found")

// IDMapper maps backend message ids to short numeric aliases, scoped to
// one account. Aliases are allocated per folder as the highest alias
// plus one, starting at 1.
type IDMapper interface {
	// Alias returns the alias of id in folder, allocating one if needed.
	Alias(ctx context.Context, folder, id string) (int, error)

	// Aliases is Alias for a batch of ids, in one transaction.
	Aliases(ctx context.Context, folder string, ids []string) (map[string]int, error)

	// ID returns the backend id behind alias in folder.
	ID(ctx context.Context, folder string, alias int) (string, error)

	// Forget drops the aliases of ids in folder.
	Forget(ctx context.Context, folder string, ids []string) error
}
