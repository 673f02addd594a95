// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package hdrescue

import (
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// SeedLen is the length in bytes of a BIP39 seed.
const SeedLen = 64

const seedIterations = 2048

// ValidateMnemonic checks the word count, wordlist membership and checksum of
// a BIP39 mnemonic. The accepted word counts are 12, 15, 18, 21 and 24.
func ValidateMnemonic(mnemonic string) error {
	words := strings.Fields(mnemonic)
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return fmt.Errorf("%w: %d words (want 12, 15, 18, 21 or 24)", ErrInvalidMnemonic, len(words))
	}
	if !bip39.IsMnemonicValid(strings.Join(words, " ")) {
		return fmt.Errorf("%w: unknown word or bad checksum", ErrInvalidMnemonic)
	}
	return nil
}

// NewMnemonic generates a fresh mnemonic from system entropy. entropyBits
// must be a multiple of 32 in [128,256]; 0 means 256 bits (24 words).
func NewMnemonic(entropyBits int) (string, error) {
	if entropyBits == 0 {
		entropyBits = 256
	}
	if entropyBits < 128 || entropyBits > 256 || entropyBits%32 != 0 {
		return "", ErrInvalidEntropySize
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("could not gather entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("could not create a mnemonic set of words: %w", err)
	}
	return mnemonic, nil
}

// ToSeed converts a validated mnemonic and an optional passphrase to a
// 64-byte BIP39 seed.
//
// Both inputs are NFKD-normalized; the words are joined with single ASCII
// spaces, and the seed is PBKDF2-HMAC-SHA512 over 2048 iterations with the
// salt "mnemonic" + passphrase. The result is fully deterministic.
func ToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	sentence := norm.NFKD.String(strings.Join(strings.Fields(mnemonic), " "))
	salt := "mnemonic" + norm.NFKD.String(passphrase)
	return pbkdf2.Key([]byte(sentence), []byte(salt), seedIterations, SeedLen, sha512.New), nil
}
