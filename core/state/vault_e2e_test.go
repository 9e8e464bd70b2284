package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lamvault/core/state"
	"lamvault/crypto"
	"lamvault/native/vault"
	"lamvault/storage"
)

func newTestEngine(t *testing.T) (*vault.Engine, *state.Manager) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	engine := vault.NewEngine()
	engine.SetState(manager)
	return engine, manager
}

func fundedOwner(t *testing.T, manager *state.Manager, fill byte, amount uint64) [20]byte {
	t.Helper()
	var owner [20]byte
	for i := range owner {
		owner[i] = fill
	}
	require.NoError(t, manager.Credit(owner, amount))
	return owner
}

// Runs the full lifecycle against the real ledger: initialize, two deposits,
// one withdrawal, close, and a fresh initialize afterwards.
func TestVaultLifecycleEndToEnd(t *testing.T) {
	engine, manager := newTestEngine(t)
	rent := manager.MinimumRetainedBalance(vault.FundAccountSize)
	owner := fundedOwner(t, manager, 0x01, 2_000_000_000)

	record, err := engine.Initialize(owner)
	require.NoError(t, err)

	_, balance, err := engine.Get(owner)
	require.NoError(t, err)
	require.Equal(t, rent, balance)

	balance, err = engine.Deposit(owner, 1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, rent+1_000_000_000, balance)

	balance, err = engine.Deposit(owner, 1_000)
	require.NoError(t, err)
	require.Equal(t, rent+1_000_001_000, balance)

	balance, err = engine.Withdraw(owner, 500_000_000)
	require.NoError(t, err)
	require.Equal(t, rent+1_000_001_000-500_000_000, balance)

	finalBalance, err := engine.Close(owner)
	require.NoError(t, err)
	require.Equal(t, rent+500_001_000, finalBalance)

	// Both records are gone.
	_, ok, err := manager.VaultStateGet(owner)
	require.NoError(t, err)
	require.False(t, ok)
	vaultAddr, err := crypto.DeriveAddress(vault.VaultLabel, crypto.MustNewAddress(owner[:]), record.VaultBump)
	require.NoError(t, err)
	_, err = manager.Balance(vaultAddr.Bytes())
	require.ErrorIs(t, err, state.ErrAccountNotFound)

	// The owner recovered every lamport they ever put in.
	ownerBalance, err := manager.Balance(owner)
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000_000), ownerBalance)

	// Re-initialization yields a fresh vault holding exactly the minimum,
	// independent of prior history.
	fresh, err := engine.Initialize(owner)
	require.NoError(t, err)
	require.Equal(t, record.VaultBump, fresh.VaultBump)
	_, balance, err = engine.Get(owner)
	require.NoError(t, err)
	require.Equal(t, rent, balance)
}

func TestVaultPairSurvivesRestart(t *testing.T) {
	db := storage.NewMemDB()
	manager := state.NewManager(db)
	engine := vault.NewEngine()
	engine.SetState(manager)

	owner := fundedOwner(t, manager, 0x02, 100_000_000)
	_, err := engine.Initialize(owner)
	require.NoError(t, err)
	_, err = engine.Deposit(owner, 42_000)
	require.NoError(t, err)

	// A new manager and engine over the same database sees the same pair.
	reopened := vault.NewEngine()
	reopened.SetState(state.NewManager(db))

	record, balance, err := reopened.Get(owner)
	require.NoError(t, err)
	require.Equal(t, owner, record.Owner)
	rent := manager.MinimumRetainedBalance(vault.FundAccountSize)
	require.Equal(t, rent+42_000, balance)
}

func TestInitializeRequiresFundedOwner(t *testing.T) {
	engine, manager := newTestEngine(t)
	var owner [20]byte
	owner[0] = 0x03
	require.NoError(t, manager.Credit(owner, 10)) // far below the rent floor

	_, err := engine.Initialize(owner)
	require.ErrorIs(t, err, state.ErrInsufficientFunds)

	// The rejected initialize left no record behind.
	_, ok, err := manager.VaultStateGet(owner)
	require.NoError(t, err)
	require.False(t, ok)
}
