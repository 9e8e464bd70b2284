package vault

import (
	"errors"
	"fmt"

	"lamvault/core/events"
	"lamvault/core/types"
	"lamvault/crypto"
)

// Policy constants, denominated in lamports.
const (
	// MinDepositAmount is the smallest accepted deposit (0.000001 of the
	// whole unit).
	MinDepositAmount uint64 = 1000
	// MaxWithdrawalAmount is the fixed per-operation withdrawal ceiling.
	MaxWithdrawalAmount uint64 = 1_000_000_000_000
	// FundAccountSize is the data footprint of the fund account. It holds
	// only a balance, so the minimum retained balance is queried for zero
	// data bytes.
	FundAccountSize = 0
)

var errNilState = errors.New("vault engine: state not configured")

// ledgerState is the slice of the ledger runtime the engine depends on. All
// primitives apply atomically within the operation the runtime serializes.
type ledgerState interface {
	VaultStateGet(owner [20]byte) (*VaultState, bool, error)
	VaultStatePut(*VaultState) error
	VaultStateDelete(owner [20]byte) error
	CreateAccount(funder, addr [20]byte, balance uint64) error
	Transfer(from, to [20]byte, amount uint64) error
	CloseAccount(addr, recipient [20]byte) (uint64, error)
	Balance(addr [20]byte) (uint64, error)
	MinimumRetainedBalance(dataLen int) uint64
}

type vaultEvent struct {
	evt *types.Event
}

func (e vaultEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vaultEvent) Event() *types.Event { return e.evt }

// Engine implements the four vault operations over an external ledger state.
// The engine itself is stateless between calls; every precondition is
// evaluated before the first mutation, so a rejected operation leaves the
// ledger untouched.
type Engine struct {
	state   ledgerState
	emitter events.Emitter
}

// NewEngine creates a vault engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the ledger backend used by the engine.
func (e *Engine) SetState(state ledgerState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(vaultEvent{evt: event})
}

func (e *Engine) loadVault(owner [20]byte) (*VaultState, [20]byte, error) {
	if e == nil || e.state == nil {
		return nil, [20]byte{}, errNilState
	}
	state, ok, err := e.state.VaultStateGet(owner)
	if err != nil {
		return nil, [20]byte{}, err
	}
	if !ok {
		return nil, [20]byte{}, ErrVaultNotInitialized
	}
	if state.Owner != owner {
		return nil, [20]byte{}, ErrUnauthorized
	}
	vaultAddr, err := crypto.DeriveAddress(VaultLabel, crypto.MustNewAddress(owner[:]), state.VaultBump)
	if err != nil {
		return nil, [20]byte{}, fmt.Errorf("vault: rederive fund account: %w", err)
	}
	return state, vaultAddr.Bytes(), nil
}

// Initialize creates the ledger record and the fund account for the caller,
// funding the latter with exactly the minimum retained balance out of the
// caller's own balance. A live vault for the same owner rejects the call.
func (e *Engine) Initialize(owner [20]byte) (*VaultState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.VaultStateGet(owner); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	ownerAddr := crypto.MustNewAddress(owner[:])
	_, stateBump, err := crypto.FindDerivedAddress(StateLabel, ownerAddr)
	if err != nil {
		return nil, err
	}
	vaultAddr, vaultBump, err := crypto.FindDerivedAddress(VaultLabel, ownerAddr)
	if err != nil {
		return nil, err
	}
	rent := e.state.MinimumRetainedBalance(FundAccountSize)
	if err := e.state.CreateAccount(owner, vaultAddr.Bytes(), rent); err != nil {
		return nil, err
	}
	state := &VaultState{Owner: owner, StateBump: stateBump, VaultBump: vaultBump}
	if err := e.state.VaultStatePut(state); err != nil {
		return nil, err
	}
	e.emit(NewInitializedEvent(state, vaultAddr.Bytes()))
	return state.Clone(), nil
}

// Deposit moves amount from the owner into the fund account. Amounts below
// MinDepositAmount are rejected; there is no upper bound beyond the u64
// ceiling enforced by the ledger transfer.
func (e *Engine) Deposit(owner [20]byte, amount uint64) (uint64, error) {
	state, vaultAddr, err := e.loadVault(owner)
	if err != nil {
		return 0, err
	}
	if amount < MinDepositAmount {
		return 0, ErrInsufficientDepositAmount
	}
	if err := e.state.Transfer(owner, vaultAddr, amount); err != nil {
		return 0, err
	}
	balance, err := e.state.Balance(vaultAddr)
	if err != nil {
		return 0, err
	}
	e.emit(NewDepositedEvent(state, vaultAddr, amount))
	return balance, nil
}

// Withdraw moves amount from the fund account back to the owner. Checks apply
// in order: the amount must be positive, must not exceed MaxWithdrawalAmount,
// and must leave the fund account at or above its minimum retained balance.
func (e *Engine) Withdraw(owner [20]byte, amount uint64) (uint64, error) {
	state, vaultAddr, err := e.loadVault(owner)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrInvalidWithdrawAmount
	}
	if amount > MaxWithdrawalAmount {
		return 0, ErrExceedsMaxWithdrawal
	}
	balance, err := e.state.Balance(vaultAddr)
	if err != nil {
		return 0, err
	}
	rent := e.state.MinimumRetainedBalance(FundAccountSize)
	if amount > balance || balance-amount < rent {
		return 0, ErrInsufficientFundsAfterWithdrawal
	}
	if err := e.state.Transfer(vaultAddr, owner, amount); err != nil {
		return 0, err
	}
	e.emit(NewWithdrawnEvent(state, vaultAddr, amount))
	return balance - amount, nil
}

// Close drains the entire fund account balance to the owner, including the
// retained minimum, and deletes both records. The owner may initialize a
// fresh vault afterwards.
func (e *Engine) Close(owner [20]byte) (uint64, error) {
	state, vaultAddr, err := e.loadVault(owner)
	if err != nil {
		return 0, err
	}
	finalBalance, err := e.state.CloseAccount(vaultAddr, owner)
	if err != nil {
		return 0, err
	}
	if err := e.state.VaultStateDelete(owner); err != nil {
		return 0, err
	}
	e.emit(NewClosedEvent(state, vaultAddr, finalBalance))
	return finalBalance, nil
}

// Get returns the ledger record and current fund balance for an owner. It is
// a read-only query used by the RPC surface.
func (e *Engine) Get(owner [20]byte) (*VaultState, uint64, error) {
	state, vaultAddr, err := e.loadVault(owner)
	if err != nil {
		return nil, 0, err
	}
	balance, err := e.state.Balance(vaultAddr)
	if err != nil {
		return nil, 0, err
	}
	return state.Clone(), balance, nil
}
