package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"lamvault/core/types"
	"lamvault/native/vault"
	"lamvault/storage"
)

var (
	// ErrAccountNotFound is returned when a primitive references an address
	// with no live account.
	ErrAccountNotFound = errors.New("state: account not found")
	// ErrAccountExists is returned by CreateAccount for an occupied address.
	ErrAccountExists = errors.New("state: account already exists")
	// ErrInsufficientFunds is returned when a debit exceeds the account
	// balance.
	ErrInsufficientFunds = errors.New("state: insufficient funds")
	// ErrBalanceOverflow is returned when a credit would exceed the u64
	// ceiling.
	ErrBalanceOverflow = errors.New("state: balance overflow")
)

// Manager is the ledger runtime backing the vault engine: accounts keyed by
// address, vault records keyed by owner, both RLP-encoded in a flat KV store.
// Each primitive applies under the manager lock; callers composing several
// primitives into one operation serialize at the node boundary.
type Manager struct {
	mu   sync.Mutex
	db   storage.Database
	rent RentPolicy
}

// NewManager wraps a database with the default rent policy.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, rent: DefaultRentPolicy()}
}

// SetRentPolicy overrides the rent schedule. Intended for tests.
func (m *Manager) SetRentPolicy(policy RentPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rent = policy
}

// MinimumRetainedBalance returns the balance floor for an account of the
// given data size.
func (m *Manager) MinimumRetainedBalance(dataLen int) uint64 {
	return m.rent.MinimumBalance(dataLen)
}

func (m *Manager) getAccount(addr [20]byte) (*types.Account, bool, error) {
	data, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(data, account); err != nil {
		return nil, false, fmt.Errorf("state: decode account: %w", err)
	}
	return account, true, nil
}

func (m *Manager) putAccount(addr [20]byte, account *types.Account) error {
	encoded, err := rlp.EncodeToBytes(account)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountKey(addr), encoded)
}

// Balance returns the live balance for an address.
func (m *Manager) Balance(addr [20]byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok, err := m.getAccount(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrAccountNotFound
	}
	return account.Balance, nil
}

// Credit mints balance onto an address, creating the account if needed. This
// is the genesis/dev funding path; regular flows move funds with Transfer.
func (m *Manager) Credit(addr [20]byte, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok, err := m.getAccount(addr)
	if err != nil {
		return err
	}
	if !ok {
		account = &types.Account{}
	}
	if account.Balance+amount < account.Balance {
		return ErrBalanceOverflow
	}
	account.Balance += amount
	return m.putAccount(addr, account)
}

// CreateAccount allocates a new account at addr funded with balance debited
// from the funder. The address must be vacant.
func (m *Manager) CreateAccount(funder, addr [20]byte, balance uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok, err := m.getAccount(addr); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: create at occupied address", ErrAccountExists)
	}
	from, ok, err := m.getAccount(funder)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: funder", ErrAccountNotFound)
	}
	if from.Balance < balance {
		return ErrInsufficientFunds
	}
	from.Balance -= balance
	from.Nonce++
	if err := m.putAccount(funder, from); err != nil {
		return err
	}
	return m.putAccount(addr, &types.Account{Balance: balance})
}

// Transfer moves amount between two accounts. The sender must exist and cover
// the amount; the recipient is created on first credit, mirroring the way
// system accounts spring into existence on the source runtime.
func (m *Manager) Transfer(from, to [20]byte, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sender, ok, err := m.getAccount(from)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: sender", ErrAccountNotFound)
	}
	if sender.Balance < amount {
		return ErrInsufficientFunds
	}
	recipient, ok, err := m.getAccount(to)
	if err != nil {
		return err
	}
	if !ok {
		recipient = &types.Account{}
	}
	if recipient.Balance+amount < recipient.Balance {
		return ErrBalanceOverflow
	}
	sender.Balance -= amount
	sender.Nonce++
	recipient.Balance += amount
	if err := m.putAccount(from, sender); err != nil {
		return err
	}
	return m.putAccount(to, recipient)
}

// CloseAccount drains the entire balance at addr to the recipient and deletes
// the account, returning the drained amount.
func (m *Manager) CloseAccount(addr, recipient [20]byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok, err := m.getAccount(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrAccountNotFound
	}
	target, ok, err := m.getAccount(recipient)
	if err != nil {
		return 0, err
	}
	if !ok {
		target = &types.Account{}
	}
	if target.Balance+account.Balance < target.Balance {
		return 0, ErrBalanceOverflow
	}
	drained := account.Balance
	target.Balance += drained
	if err := m.putAccount(recipient, target); err != nil {
		return 0, err
	}
	if err := m.db.Delete(accountKey(addr)); err != nil {
		return 0, err
	}
	return drained, nil
}

// VaultStatePut persists the ledger record keyed by its owner. Records are
// sanitized on the way in so a corrupted salt never reaches storage.
func (m *Manager) VaultStatePut(state *vault.VaultState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sanitized, err := state.Sanitize()
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode vault record: %w", err)
	}
	return m.db.Put(vaultStateKey(sanitized.Owner), encoded)
}

// VaultStateGet loads the ledger record for an owner, reporting absence
// without error.
func (m *Manager) VaultStateGet(owner [20]byte) (*vault.VaultState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.db.Get(vaultStateKey(owner))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	record := new(vault.VaultState)
	if err := rlp.DecodeBytes(data, record); err != nil {
		return nil, false, fmt.Errorf("state: decode vault record: %w", err)
	}
	return record, true, nil
}

// VaultStateDelete removes the ledger record for an owner.
func (m *Manager) VaultStateDelete(owner [20]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(vaultStateKey(owner))
}
