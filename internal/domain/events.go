package domain

// TransferEvent records a completed transfer.
// Corresponds to transfer_events table in PostgreSQL.
type TransferEvent struct {
	Seq       int64   // PRIMARY KEY, monotonically increasing
	From      Address // debited sender
	To        Address // recipient of the net amount
	Gross     uint64  // amount debited from the sender
	Net       uint64  // amount credited to the recipient
	Tax       uint64  // amount credited to the tax collector
	Timestamp int64   // Unix timestamp in milliseconds
}

// LiquidityEvent records a successful liquidity deposit.
// Corresponds to liquidity_events table in PostgreSQL.
type LiquidityEvent struct {
	Seq            int64   // PRIMARY KEY, shares the sequence with transfers
	Provider       Address // account whose tokens were deposited
	PairToken      Address // pair key: token side
	PairCounter    Address // pair key: counter-asset side
	TokenUsed      uint64  // token amount the pool consumed
	BaseUsed       uint64  // base-asset amount the pool consumed
	LiquidityUnits uint64  // pool share units minted
	TokenRefund    uint64  // offered token amount returned unused
	BaseRefund     uint64  // attached base amount returned unused
	Timestamp      int64   // Unix timestamp in milliseconds
}
