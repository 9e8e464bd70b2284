package state

// Storage key prefixes. Accounts and vault records live in disjoint keyspaces
// so deleting one can never clobber the other.
const (
	accountPrefix    = "accounts/"
	vaultStatePrefix = "vault/state/"
)

func accountKey(addr [20]byte) []byte {
	key := make([]byte, 0, len(accountPrefix)+len(addr))
	key = append(key, accountPrefix...)
	key = append(key, addr[:]...)
	return key
}

func vaultStateKey(owner [20]byte) []byte {
	key := make([]byte, 0, len(vaultStatePrefix)+len(owner))
	key = append(key, vaultStatePrefix...)
	key = append(key, owner[:]...)
	return key
}
