package state

// RentPolicy answers the minimum-retained-balance query: the smallest balance
// an account must hold to persist in storage without being reclaimed.
type RentPolicy struct {
	// LamportsPerByteYear is the storage price per byte-year.
	LamportsPerByteYear uint64
	// ExemptionThresholdYears is the number of byte-years an account must
	// cover up front to be exempt from collection.
	ExemptionThresholdYears uint64
	// AccountStorageOverhead is the metadata footprint charged to every
	// account on top of its data.
	AccountStorageOverhead uint64
}

// DefaultRentPolicy returns the reference schedule. A zero-data account works
// out to 890_880 lamports.
func DefaultRentPolicy() RentPolicy {
	return RentPolicy{
		LamportsPerByteYear:     3_480,
		ExemptionThresholdYears: 2,
		AccountStorageOverhead:  128,
	}
}

// MinimumBalance returns the retained-balance floor for an account with the
// given data size.
func (r RentPolicy) MinimumBalance(dataLen int) uint64 {
	if dataLen < 0 {
		dataLen = 0
	}
	return (r.AccountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionThresholdYears
}
