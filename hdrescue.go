// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

// Package hdrescue derives Bitcoin private keys from a BIP39 mnemonic phrase
// and formats them for import into an external wallet over its RPC interface.
//
// The package implements the derivation pipeline end to end: mnemonic → seed
// (BIP39), seed → master extended key (BIP32), master → hardened/normal child
// keys along a derivation path, and finally WIF, extended-key and P2WPKH
// address encodings plus export records consumable by a wallet importer.
//
// Every derivation step is a pure function over immutable inputs. Child
// derivation never mutates the parent, so batches of sibling keys can be
// derived concurrently from a shared parent without synchronization.
//
// Mnemonics, passphrases and derived private keys are secrets. This package
// never logs them and never writes them anywhere on its own; encoding them
// into strings is always an explicit caller decision.
package hdrescue

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrInvalidMnemonic is returned when a mnemonic has a bad word count,
	// contains words outside the active wordlist, or fails its checksum.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidSeedLen is returned when a seed is outside the 16 to 64
	// byte range BIP32 accepts. BIP39 seeds are always 64 bytes.
	ErrInvalidSeedLen = errors.New("seed must be between 16 and 64 bytes")

	// ErrInvalidMasterKey is returned when the HMAC over the seed keeps
	// producing an unusable master key even after the fallback rounds.
	ErrInvalidMasterKey = errors.New("seed produces an invalid master key")

	// ErrInvalidChildKey is returned when child derivation hits the BIP32
	// edge case (IL ≥ n or a zero child key). The condition is retryable:
	// derive the next index instead, as DerivePath does automatically.
	ErrInvalidChildKey = errors.New("child index produces an invalid key, retry with the next index")

	// ErrNoPrivateKey is returned when hardened derivation is attempted on
	// a public-only extended key.
	ErrNoPrivateKey = errors.New("hardened derivation requires the parent private key")

	// ErrMissingPrivateKey is returned when a private encoding (WIF or an
	// extended private key) is requested from a public-only extended key.
	ErrMissingPrivateKey = errors.New("extended key has no private key")

	// ErrUnsupportedPath is returned for malformed derivation path strings.
	ErrUnsupportedPath = errors.New("unsupported derivation path")

	// ErrInvalidEntropySize is returned by NewMnemonic when the requested
	// entropy is not a multiple of 32 bits in the range [128,256].
	ErrInvalidEntropySize = errors.New("entropy size must be a multiple of 32 in the range [128,256]")
)

// Network selects the address and key encoding parameters.
//
// Signet has no encoding of its own: it reuses the testnet WIF and extended
// key version bytes, so NetworkSignet differs from NetworkTestnet only in the
// chain params handed to the RPC layer, never in how keys are serialized.
type Network int

const (
	// NetworkMainnet is the main Bitcoin network.
	NetworkMainnet Network = iota
	// NetworkTestnet is the test network (version 3).
	NetworkTestnet
	// NetworkSignet is the default signet.
	NetworkSignet
)

// ParseNetwork converts a network name to a Network value.
func ParseNetwork(name string) (Network, error) {
	switch name {
	case "mainnet", "main", "bitcoin":
		return NetworkMainnet, nil
	case "testnet", "test", "testnet3":
		return NetworkTestnet, nil
	case "signet":
		return NetworkSignet, nil
	default:
		return 0, fmt.Errorf("unknown network %q (use mainnet, testnet or signet)", name)
	}
}

// Params returns the chain parameters for the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case NetworkTestnet:
		return &chaincfg.TestNet3Params
	case NetworkSignet:
		return &chaincfg.SigNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// String returns the canonical network name.
func (n Network) String() string {
	switch n {
	case NetworkTestnet:
		return "testnet"
	case NetworkSignet:
		return "signet"
	default:
		return "mainnet"
	}
}
