package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Get retrieves an account with its allowances. Returns ErrNotFound if not exists.
func (s *AccountStore) Get(ctx context.Context, addr domain.Address) (*domain.Account, error) {
	query := `
		SELECT address, balance, window_day, window_used, updated_at
		FROM accounts
		WHERE address = $1
	`

	var a domain.Account
	err := s.pool.QueryRow(ctx, query, string(addr)).Scan(
		&a.Address,
		&a.Balance,
		&a.WindowDay,
		&a.WindowUsed,
		&a.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	a.Allowances = make(map[domain.Address]uint64)
	rows, err := s.pool.Query(ctx,
		`SELECT spender_address, amount FROM allowances WHERE owner_address = $1`,
		string(addr),
	)
	if err != nil {
		return nil, fmt.Errorf("get allowances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var spender domain.Address
		var amount uint64
		if err := rows.Scan(&spender, &amount); err != nil {
			return nil, fmt.Errorf("scan allowance row: %w", err)
		}
		a.Allowances[spender] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowance rows: %w", err)
	}

	return &a, nil
}

// Save upserts all given accounts in a single transaction. The allowance
// set is replaced wholesale so deleted allowances do not linger.
func (s *AccountStore) Save(ctx context.Context, accounts ...*domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO accounts (address, balance, window_day, window_used, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			balance = EXCLUDED.balance,
			window_day = EXCLUDED.window_day,
			window_used = EXCLUDED.window_used,
			updated_at = EXCLUDED.updated_at
	`

	for _, a := range accounts {
		if a == nil || !a.Address.Valid() {
			return storage.ErrInvalidInput
		}

		_, err := tx.Exec(ctx, upsert,
			string(a.Address),
			a.Balance,
			a.WindowDay,
			a.WindowUsed,
			a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM allowances WHERE owner_address = $1`, string(a.Address),
		); err != nil {
			return fmt.Errorf("clear allowances: %w", err)
		}
		for spender, amount := range a.Allowances {
			if amount == 0 {
				continue
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO allowances (owner_address, spender_address, amount) VALUES ($1, $2, $3)`,
				string(a.Address), string(spender), amount,
			)
			if err != nil {
				return fmt.Errorf("insert allowance: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// List retrieves all accounts with allowances, ordered by address ASC.
func (s *AccountStore) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address, balance, window_day, window_used, updated_at
		FROM accounts
		ORDER BY address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, err
	}

	for _, a := range accounts {
		full, err := s.Get(ctx, a.Address)
		if err != nil {
			return nil, err
		}
		a.Allowances = full.Allowances
	}

	return accounts, nil
}

// scanAccounts scans multiple rows into a slice of Account.
func scanAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account

	for rows.Next() {
		var a domain.Account
		err := rows.Scan(
			&a.Address,
			&a.Balance,
			&a.WindowDay,
			&a.WindowUsed,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		a.Allowances = make(map[domain.Address]uint64)
		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	return accounts, nil
}
