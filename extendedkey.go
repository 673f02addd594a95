// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package hdrescue

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// HardenedKeyStart is the first hardened child index (2^31). Indexes at or
// above this value require the parent private key to derive.
const HardenedKeyStart uint32 = 0x80000000

// masterKeyID is the fixed HMAC key used to split a seed into the master
// private key and chain code.
var masterKeyID = []byte("Bitcoin seed")

// masterAttempts bounds the fallback rounds in NewMaster. A single round is
// already astronomically unlikely to be needed.
const masterAttempts = 4

// minSeedLen is the smallest seed BIP32 accepts (128 bits). BIP39 seeds are
// always SeedLen bytes; the shorter range exists for raw BIP32 seeds.
const minSeedLen = 16

// ExtendedKey is an immutable BIP32 extended key: a private or public key
// bundled with its chain code and derivation metadata. Child derivation
// returns a brand-new key and never mutates the parent, so a single
// ExtendedKey may be shared freely across goroutines.
type ExtendedKey struct {
	key        []byte // 32-byte private key, or 33-byte compressed public key
	pubKey     []byte // cached compressed public key
	chainCode  []byte
	depth      uint8
	parentFP   [4]byte
	childIndex uint32
	private    bool
}

// NewMaster derives the BIP32 master key from a 64-byte seed.
//
// In the vanishingly rare case that the HMAC output is not a usable private
// key (zero, or not below the curve order), the HMAC is re-applied to its own
// output and the result is tried again. ErrInvalidMasterKey is returned only
// if every fallback round fails.
func NewMaster(seed []byte) (*ExtendedKey, error) {
	if len(seed) < minSeedLen || len(seed) > SeedLen {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSeedLen, len(seed))
	}

	data := seed
	for attempt := 0; attempt < masterAttempts; attempt++ {
		mac := hmac.New(sha512.New, masterKeyID)
		mac.Write(data)
		i := mac.Sum(nil)
		key, chainCode := i[:32], i[32:]

		var scalar btcec.ModNScalar
		overflow := scalar.SetByteSlice(key)
		zero := scalar.IsZero()
		scalar.Zero()
		if overflow || zero {
			data = i
			continue
		}

		master := &ExtendedKey{
			key:       key,
			chainCode: chainCode,
			private:   true,
		}
		master.pubKey = compressedPubKey(key)
		return master, nil
	}
	return nil, ErrInvalidMasterKey
}

// NewMasterFromMnemonic is a convenience that validates the mnemonic,
// derives the seed and returns the master key in one step.
func NewMasterFromMnemonic(mnemonic, passphrase string) (*ExtendedKey, error) {
	seed, err := ToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewMaster(seed)
}

// IsPrivate reports whether the extended key holds a private key.
func (k *ExtendedKey) IsPrivate() bool { return k.private }

// Depth returns the derivation depth, 0 for the master key.
func (k *ExtendedKey) Depth() uint8 { return k.depth }

// ChildIndex returns the index this key was derived at, with the top bit set
// for hardened children. The master key reports 0.
func (k *ExtendedKey) ChildIndex() uint32 { return k.childIndex }

// ParentFingerprint returns the first four bytes of HASH160 of the parent's
// compressed public key, zero for the master key.
func (k *ExtendedKey) ParentFingerprint() [4]byte { return k.parentFP }

// Fingerprint returns the first four bytes of HASH160 of this key's
// compressed public key.
func (k *ExtendedKey) Fingerprint() [4]byte {
	var fp [4]byte
	copy(fp[:], btcutil.Hash160(k.pubKeyBytes())[:4])
	return fp
}

// Neuter returns the public-only counterpart of the extended key. The result
// can keep deriving non-hardened children but cannot serve hardened
// derivation or private encodings.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	if !k.private {
		return k
	}
	return &ExtendedKey{
		key:        k.pubKeyBytes(),
		pubKey:     k.pubKeyBytes(),
		chainCode:  k.chainCode,
		depth:      k.depth,
		parentFP:   k.parentFP,
		childIndex: k.childIndex,
		private:    false,
	}
}

// Child derives the child key at the given index. index must be below
// HardenedKeyStart; hardening is requested explicitly and never inferred.
//
// Hardened derivation fails with ErrNoPrivateKey on a public-only key.
// ErrInvalidChildKey signals the BIP32 edge case where this index yields no
// usable key; callers should derive index+1 instead (DerivePath does so
// automatically).
func (k *ExtendedKey) Child(index uint32, hardened bool) (*ExtendedKey, error) {
	if index >= HardenedKeyStart {
		return nil, fmt.Errorf("%w: index %d is out of the 31-bit range", ErrUnsupportedPath, index)
	}
	effective := index
	if hardened {
		effective |= HardenedKeyStart
	}

	// Hardened children commit to the parent private key, normal children
	// to the parent public key.
	data := make([]byte, 0, 37)
	if hardened {
		if !k.private {
			return nil, ErrNoPrivateKey
		}
		data = append(data, 0x00)
		data = append(data, k.key...)
	} else {
		data = append(data, k.pubKeyBytes()...)
	}
	data = binary.BigEndian.AppendUint32(data, effective)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	i := mac.Sum(nil)
	il, childChainCode := i[:32], i[32:]

	var ilScalar btcec.ModNScalar
	if overflow := ilScalar.SetByteSlice(il); overflow {
		return nil, ErrInvalidChildKey
	}

	child := &ExtendedKey{
		chainCode:  childChainCode,
		depth:      k.depth + 1,
		parentFP:   k.Fingerprint(),
		childIndex: effective,
		private:    k.private,
	}

	if k.private {
		// childKey = (IL + parentKey) mod n
		var keyScalar btcec.ModNScalar
		keyScalar.SetByteSlice(k.key)
		ilScalar.Add(&keyScalar)
		keyScalar.Zero()
		if ilScalar.IsZero() {
			return nil, ErrInvalidChildKey
		}
		childKey := ilScalar.Bytes()
		ilScalar.Zero()
		child.key = childKey[:]
		child.pubKey = compressedPubKey(child.key)
		return child, nil
	}

	// childPoint = IL*G + parentPoint
	parentPub, err := btcec.ParsePubKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("could not parse parent public key: %w", err)
	}
	var parentJ, ilJ, childJ btcec.JacobianPoint
	parentPub.AsJacobian(&parentJ)
	btcec.ScalarBaseMultNonConst(&ilScalar, &ilJ)
	btcec.AddNonConst(&parentJ, &ilJ, &childJ)
	if childJ.Z.IsZero() {
		// Point at infinity, the public mirror of a zero child key.
		return nil, ErrInvalidChildKey
	}
	childJ.ToAffine()
	child.key = btcec.NewPublicKey(&childJ.X, &childJ.Y).SerializeCompressed()
	child.pubKey = child.key
	return child, nil
}

// DerivePath applies a full derivation path, left to right, starting from k.
//
// Per BIP32, an index that yields an invalid child is skipped in favor of the
// next one; any other error aborts the derivation immediately.
func (k *ExtendedKey) DerivePath(path DerivationPath) (*ExtendedKey, error) {
	current := k
	for _, elem := range path {
		index := elem.Index
		for {
			child, err := current.Child(index, elem.Hardened)
			if err == nil {
				current = child
				break
			}
			if !errors.Is(err, ErrInvalidChildKey) || index+1 >= HardenedKeyStart {
				return nil, fmt.Errorf("deriving %s: %w", path, err)
			}
			index++
		}
	}
	return current, nil
}

// pubKeyBytes returns the compressed public key. It is materialized at
// construction time, so extended keys stay read-only afterwards and can be
// shared across goroutines.
func (k *ExtendedKey) pubKeyBytes() []byte {
	return k.pubKey
}

func compressedPubKey(privKey []byte) []byte {
	_, pub := btcec.PrivKeyFromBytes(privKey)
	return pub.SerializeCompressed()
}
