package types

// Account is a balance-holding ledger record. Balances are denominated in
// lamports, the smallest transferable unit, and are u64 end to end: the
// ledger's overflow ceiling is the type's ceiling.
type Account struct {
	Nonce   uint64 `json:"nonce"`
	Balance uint64 `json:"balance"`
}

// Clone returns a copy the caller can mutate freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{}
	}
	clone := *a
	return &clone
}
