package vault

import "errors"

// Every operation is validated in full before the first mutation; the errors
// below are the only rejection outcomes the engine produces.
var (
	// ErrVaultNotInitialized rejects deposit, withdraw and close when no
	// ledger record exists for the caller.
	ErrVaultNotInitialized = errors.New("vault: VaultNotInitialized: vault not initialized for owner")

	// ErrAlreadyInitialized rejects a second initialize while a vault is live.
	ErrAlreadyInitialized = errors.New("vault: AlreadyInitialized: vault already initialized for owner")

	// ErrInsufficientDepositAmount rejects deposits below MinDepositAmount.
	ErrInsufficientDepositAmount = errors.New("vault: InsufficientDepositAmount: deposit amount must be at least 1000 lamports")

	// ErrInvalidWithdrawAmount rejects zero-amount withdrawals.
	ErrInvalidWithdrawAmount = errors.New("vault: InvalidWithdrawAmount: withdrawal amount must be greater than 0")

	// ErrExceedsMaxWithdrawal rejects withdrawals above MaxWithdrawalAmount.
	// Checked before the retention invariant, so both limits stay
	// independently observable.
	ErrExceedsMaxWithdrawal = errors.New("vault: ExceedsMaxWithdrawal: withdrawal amount exceeds maximum allowed")

	// ErrInsufficientFundsAfterWithdrawal rejects withdrawals that would
	// leave the fund account below its minimum retained balance.
	ErrInsufficientFundsAfterWithdrawal = errors.New("vault: InsufficientFundsAfterWithdrawal: insufficient funds in vault after withdrawal to maintain rent exemption")

	// ErrUnauthorized signals a record whose bound owner does not match the
	// caller. Derivation makes this unreachable through the public surface;
	// it guards against corrupted state.
	ErrUnauthorized = errors.New("vault: Unauthorized: caller is not the vault owner")
)
