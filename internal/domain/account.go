package domain

// Account is the per-address ledger record.
// Corresponds to accounts + allowances tables in PostgreSQL.
type Account struct {
	Address    Address            // PRIMARY KEY
	Balance    uint64             // base units
	Allowances map[Address]uint64 // spender -> remaining amount
	WindowDay  int64              // day index of last rate-limit window reset
	WindowUsed uint64             // cumulative amount transferred within the window
	UpdatedAt  int64              // Unix timestamp in milliseconds
}

// NewAccount creates a zero-balance account for an address.
func NewAccount(addr Address) *Account {
	return &Account{
		Address:    addr,
		Allowances: make(map[Address]uint64),
	}
}

// Clone returns a deep copy, including the allowance map.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Allowances = make(map[Address]uint64, len(a.Allowances))
	for spender, amount := range a.Allowances {
		cp.Allowances[spender] = amount
	}
	return &cp
}
