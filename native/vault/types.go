package vault

import (
	"fmt"

	"lamvault/crypto"
)

// Derivation labels for the per-owner account pair.
const (
	StateLabel = "state"
	VaultLabel = "vault"
)

// VaultState is the per-owner ledger record. Its existence is the sole
// evidence a vault is initialized; all fields are immutable after creation.
// The bumps are the derivation salts needed to reconstruct the pair's
// addresses from the owner identity alone.
type VaultState struct {
	Owner     [20]byte
	StateBump uint8
	VaultBump uint8
}

// Clone returns a copy callers can hold without aliasing stored records.
func (v *VaultState) Clone() *VaultState {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

// Sanitize validates a record loaded from storage, re-deriving both addresses
// from the stored salts so a tampered or foreign record never passes.
func (v *VaultState) Sanitize() (*VaultState, error) {
	if v == nil {
		return nil, fmt.Errorf("vault: nil vault state")
	}
	owner := crypto.MustNewAddress(v.Owner[:])
	if _, err := crypto.DeriveAddress(StateLabel, owner, v.StateBump); err != nil {
		return nil, fmt.Errorf("vault: invalid state bump: %w", err)
	}
	if _, err := crypto.DeriveAddress(VaultLabel, owner, v.VaultBump); err != nil {
		return nil, fmt.Errorf("vault: invalid vault bump: %w", err)
	}
	return v.Clone(), nil
}
