package domain

// PairLiquidityRecord tracks accumulated pool share per trading pair.
// Corresponds to pair_liquidity table in PostgreSQL.
type PairLiquidityRecord struct {
	Token        Address // pair key: token side
	CounterAsset Address // pair key: counter-asset side
	Units        uint64  // accumulated liquidity units
	UpdatedAt    int64   // Unix timestamp in milliseconds of the last deposit
}
