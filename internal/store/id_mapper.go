package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AccountMapper is the IDMapper of one account.
type AccountMapper struct {
	db      *sqlx.DB
	account string
}

var _ IDMapper = (*AccountMapper)(nil)

// Mapper returns the id mapper scoped to account.
func (s *SQLiteStore) Mapper(account string) *AccountMapper {
	return &AccountMapper{db: s.db, account: account}
}

// Alias returns the alias of id in folder, allocating the next free one.
func (m *AccountMapper) Alias(ctx context.Context, folder, id string) (int, error) {
	aliases, err := m.Aliases(ctx, folder, []string{id})
	if err != nil {
		return 0, err
	}
	return aliases[id], nil
}

// Aliases allocates or looks up the aliases of ids in one transaction.
func (m *AccountMapper) Aliases(ctx context.Context, folder string, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		alias, err := m.aliasTx(ctx, tx, folder, id)
		if err != nil {
			return nil, err
		}
		out[id] = alias
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing aliases: %w", err)
	}
	return out, nil
}

func (m *AccountMapper) aliasTx(ctx context.Context, tx *sqlx.Tx, folder, id string) (int, error) {
	var alias int
	err := tx.GetContext(ctx, &alias, `
		SELECT alias FROM id_mapper
		WHERE account = ? AND folder = ? AND id = ?`,
		m.account, folder, id,
	)
	if err == nil {
		return alias, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up alias of %s: %w", id, err)
	}

	err = tx.GetContext(ctx, &alias, `
		SELECT COALESCE(MAX(alias), 0) + 1 FROM id_mapper
		WHERE account = ? AND folder = ?`,
		m.account, folder,
	)
	if err != nil {
		return 0, fmt.Errorf("allocating alias: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO id_mapper (account, folder, alias, id)
		VALUES (?, ?, ?, ?)`,
		m.account, folder, alias, id,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting alias of %s: %w", id, err)
	}
	return alias, nil
}

// ID returns the backend id mapped to alias.
func (m *AccountMapper) ID(ctx context.Context, folder string, alias int) (string, error) {
	var id string
	err := m.db.GetContext(ctx, &id, `
		SELECT id FROM id_mapper
		WHERE account = ? AND folder = ? AND alias = ?`,
		m.account, folder, alias,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%d in %s: %w", alias, folder, ErrAliasNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting id of alias %d: %w", alias, err)
	}
	return id, nil
}

// Forget removes the mappings of ids in folder.
func (m *AccountMapper) Forget(ctx context.Context, folder string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		DELETE FROM id_mapper
		WHERE account = ? AND folder = ? AND id IN (?)`,
		m.account, folder, ids,
	)
	if err != nil {
		return fmt.Errorf("building forget query: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, m.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("forgetting ids in %s: %w", folder, err)
	}
	return nil
}
