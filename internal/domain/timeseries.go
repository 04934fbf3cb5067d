package domain

// TransferVolumePoint is a per-day aggregate of transfer activity.
// Corresponds to transfer_volume_daily table in ClickHouse; rows with the
// same day are summed, so partial aggregates may be inserted additively.
type TransferVolumePoint struct {
	DayStartMs int64  // Unix timestamp in milliseconds of the day boundary
	Transfers  uint64 // number of transfers in the day
	Gross      uint64 // sum of gross amounts
	Net        uint64 // sum of net amounts
	Tax        uint64 // sum of tax amounts
}
