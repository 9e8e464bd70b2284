package crypto

import (
	"errors"
	"testing"
)

func testAddress(t *testing.T, fill byte) Address {
	t.Helper()
	b := make([]byte, AddressLength)
	for i := range b {
		b[i] = fill
	}
	addr, err := NewAddress(b)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	return addr
}

func TestFindDerivedAddressDeterministic(t *testing.T) {
	owner := testAddress(t, 0x11)

	addr1, salt1, err := FindDerivedAddress("vault", owner)
	if err != nil {
		t.Fatalf("find derived: %v", err)
	}
	addr2, salt2, err := FindDerivedAddress("vault", owner)
	if err != nil {
		t.Fatalf("find derived again: %v", err)
	}
	if addr1 != addr2 || salt1 != salt2 {
		t.Fatalf("derivation not deterministic: (%s,%d) vs (%s,%d)", addr1, salt1, addr2, salt2)
	}

	rederived, err := DeriveAddress("vault", owner, salt1)
	if err != nil {
		t.Fatalf("rederive: %v", err)
	}
	if rederived != addr1 {
		t.Fatalf("rederived address mismatch")
	}
}

func TestDerivedAddressesDistinctAcrossLabelsAndOwners(t *testing.T) {
	ownerA := testAddress(t, 0x22)
	ownerB := testAddress(t, 0x33)

	stateA, _, err := FindDerivedAddress("state", ownerA)
	if err != nil {
		t.Fatalf("derive state A: %v", err)
	}
	vaultA, _, err := FindDerivedAddress("vault", ownerA)
	if err != nil {
		t.Fatalf("derive vault A: %v", err)
	}
	vaultB, _, err := FindDerivedAddress("vault", ownerB)
	if err != nil {
		t.Fatalf("derive vault B: %v", err)
	}

	if stateA == vaultA {
		t.Fatalf("labels collide for one owner")
	}
	if vaultA == vaultB {
		t.Fatalf("owners collide for one label")
	}
	if stateA == ownerA || vaultA == ownerA {
		t.Fatalf("derived address equals owner address")
	}
}

func TestDeriveAddressRejectsBadSalt(t *testing.T) {
	owner := testAddress(t, 0x44)
	_, salt, err := FindDerivedAddress("vault", owner)
	if err != nil {
		t.Fatalf("find derived: %v", err)
	}

	// Salts above the found one were all skipped as on-curve candidates, so
	// every one of them must be rejected on re-derivation.
	for probe := int(salt) + 1; probe <= 255; probe++ {
		if _, err := DeriveAddress("vault", owner, uint8(probe)); !errors.Is(err, ErrSaltMismatch) {
			t.Fatalf("salt %d err = %v, want ErrSaltMismatch", probe, err)
		}
	}
}
