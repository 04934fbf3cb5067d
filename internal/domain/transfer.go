package domain

// TransferIntent is the ephemeral description of a requested transfer,
// produced at call entry and consumed within the same atomic operation.
// It is never persisted.
type TransferIntent struct {
	From  Address
	To    Address
	Gross uint64
}
