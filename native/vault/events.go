package vault

import (
	"encoding/hex"
	"strconv"

	"lamvault/core/types"
)

const (
	EventTypeVaultInitialized = "vault.initialized"
	EventTypeFundsDeposited   = "vault.deposited"
	EventTypeFundsWithdrawn   = "vault.withdrawn"
	EventTypeVaultClosed      = "vault.closed"
)

// NewInitializedEvent returns the canonical payload emitted when a vault pair
// is created.
func NewInitializedEvent(state *VaultState, vaultAddr [20]byte) *types.Event {
	attrs := baseAttributes(state, vaultAddr)
	return &types.Event{Type: EventTypeVaultInitialized, Attributes: attrs}
}

// NewDepositedEvent returns the canonical payload emitted after a successful
// deposit.
func NewDepositedEvent(state *VaultState, vaultAddr [20]byte, amount uint64) *types.Event {
	attrs := baseAttributes(state, vaultAddr)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeFundsDeposited, Attributes: attrs}
}

// NewWithdrawnEvent returns the canonical payload emitted after a successful
// withdrawal.
func NewWithdrawnEvent(state *VaultState, vaultAddr [20]byte, amount uint64) *types.Event {
	attrs := baseAttributes(state, vaultAddr)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeFundsWithdrawn, Attributes: attrs}
}

// NewClosedEvent returns the canonical payload emitted when a vault pair is
// torn down, carrying the balance drained to the owner.
func NewClosedEvent(state *VaultState, vaultAddr [20]byte, finalBalance uint64) *types.Event {
	attrs := baseAttributes(state, vaultAddr)
	attrs["finalBalance"] = strconv.FormatUint(finalBalance, 10)
	return &types.Event{Type: EventTypeVaultClosed, Attributes: attrs}
}

func baseAttributes(state *VaultState, vaultAddr [20]byte) map[string]string {
	attrs := make(map[string]string)
	attrs["vault"] = hex.EncodeToString(vaultAddr[:])
	if state == nil {
		return attrs
	}
	attrs["owner"] = hex.EncodeToString(state.Owner[:])
	attrs["stateBump"] = strconv.FormatUint(uint64(state.StateBump), 10)
	attrs["vaultBump"] = strconv.FormatUint(uint64(state.VaultBump), 10)
	return attrs
}
