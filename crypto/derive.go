package crypto

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Derived account addresses are reconstructed from an owner address, a fixed
// label and a one-byte salt. The search rejects any candidate preimage whose
// hash is a valid compressed secp256k1 point, so a derived address can never
// collide with one a private key signs for.

const derivationTag = "lamvault/derived/v1"

// ErrNoDerivedAddress is returned when every salt value yields a point on the
// curve. With 256 candidates this is not reachable in practice.
var ErrNoDerivedAddress = errors.New("crypto: no valid derived address for inputs")

// ErrSaltMismatch is returned when a stored salt does not re-derive to an
// off-curve candidate.
var ErrSaltMismatch = errors.New("crypto: salt does not re-derive a valid address")

func derivationPreimage(label string, owner Address, salt uint8) []byte {
	ownerBytes := owner.Bytes()
	buf := make([]byte, 0, len(derivationTag)+len(label)+AddressLength+1)
	buf = append(buf, derivationTag...)
	buf = append(buf, label...)
	buf = append(buf, ownerBytes[:]...)
	buf = append(buf, salt)
	return buf
}

// candidateOnCurve reports whether the hashed candidate parses as a compressed
// secp256k1 public key.
func candidateOnCurve(digest []byte) bool {
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, digest...)
	_, err := ethcrypto.DecompressPubkey(compressed)
	return err == nil
}

func addressFromDigest(digest []byte) Address {
	h := ethcrypto.Keccak256(digest)
	addr, err := NewAddress(h[len(h)-AddressLength:])
	if err != nil {
		panic(err)
	}
	return addr
}

// FindDerivedAddress searches salts from 255 downward and returns the first
// off-curve derived address together with the salt that produced it. The salt
// must be persisted by the caller for later re-derivation.
func FindDerivedAddress(label string, owner Address) (Address, uint8, error) {
	for salt := 255; salt >= 0; salt-- {
		digest := ethcrypto.Keccak256(derivationPreimage(label, owner, uint8(salt)))
		if candidateOnCurve(digest) {
			continue
		}
		return addressFromDigest(digest), uint8(salt), nil
	}
	return Address{}, 0, ErrNoDerivedAddress
}

// DeriveAddress reconstructs the address for a previously found salt. It fails
// if the salt does not produce an off-curve candidate, which signals a
// corrupted or foreign record.
func DeriveAddress(label string, owner Address, salt uint8) (Address, error) {
	digest := ethcrypto.Keccak256(derivationPreimage(label, owner, salt))
	if candidateOnCurve(digest) {
		return Address{}, fmt.Errorf("%w: label %q salt %d", ErrSaltMismatch, label, salt)
	}
	return addressFromDigest(digest), nil
}
