// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package hdrescue

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/matryer/is"
)

// bip32Vector1Seed is the seed of test vector 1 from the BIP32 specification.
var bip32Vector1Seed, _ = hex.DecodeString("000102030405060708090a0b0c0d0e0f")

// TestDerivePath_BIP32Vector1 reproduces the published extended keys of BIP32
// test vector 1, private and public serializations alike.
func TestDerivePath_BIP32Vector1(t *testing.T) {
	cases := []struct {
		path string
		xprv string
		xpub string
	}{
		{
			"m",
			"xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
			"xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
		},
		{
			"m/0'",
			"xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
			"xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw",
		},
		{
			"m/0'/1",
			"xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
			"xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
		},
		{
			"m/0'/1/2'",
			"xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptWmT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM",
			"xpub6D4BDPcP2GT577Vvch3R8wDkScZWzQzMMUm3PWbmWvVJrZwQY4VUNgqFJPMM3No2dFDFGTsxxpG5uJh7n7epu4trkrX7x7DogT5Uv6fcLW5",
		},
		{
			"m/0'/1/2'/2",
			"xprvA2JDeKCSNNZky6uBCviVfJSKyQ1mDYahRjijr5idH2WwLsEd4Hsb2Tyh8RfQMuPh7f7RtyzTtdrbdqqsunu5Mm3wDvUAKRHSC34sJ7in334",
			"xpub6FHa3pjLCk84BayeJxFW2SP4XRrFd1JYnxeLeU8EqN3vDfZmbqBqaGJAyiLjTAwm6ZLRQUMv1ZACTj37sR62cfN7fe5JnJ7dh8zL4fiyLHV",
		},
		{
			"m/0'/1/2'/2/1000000000",
			"xprvA41z7zogVVwxVSgdKUHDy1SKmdb533PjDz7J6N6mV6uS3ze1ai8FHa8kmHScGpWmj4WggLyQjgPie1rFSruoUihUZREPSL39UNdE3BBDu76",
			"xpub6H1LXWLaKsWFhvm6RVpEL9P4KfRZSW7abD2ttkWP3SSQvnyA8FSVqNTEcYFgJS2UaFcxupHiYkro49S8yGasTvXEYBVPamhGW6cFJodrTHy",
		},
	}

	master, err := NewMaster(bip32Vector1Seed)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			is := is.New(t)

			path, err := ParsePath(tc.path)
			is.NoErr(err)
			key, err := master.DerivePath(path)
			is.NoErr(err)

			xprv, err := key.ExtendedPrivate(NetworkMainnet)
			is.NoErr(err)
			is.Equal(xprv, tc.xprv)
			is.Equal(key.ExtendedPublic(NetworkMainnet), tc.xpub)
		})
	}
}

// TestDerivePath_MatchesHdkeychain cross-checks the derivation against the
// btcsuite implementation.
func TestDerivePath_MatchesHdkeychain(t *testing.T) {
	is := is.New(t)

	seed, err := ToSeed(testMnemonic, "")
	is.NoErr(err)

	master, err := NewMaster(seed)
	is.NoErr(err)
	path, err := ParsePath("m/84'/1'/0'/0/0")
	is.NoErr(err)
	key, err := master.DerivePath(path)
	is.NoErr(err)

	refKey, err := hdkeychain.NewMaster(seed, &chaincfg.TestNet3Params)
	is.NoErr(err)
	for _, i := range []uint32{
		hdkeychain.HardenedKeyStart + 84,
		hdkeychain.HardenedKeyStart + 1,
		hdkeychain.HardenedKeyStart,
		0, 0,
	} {
		refKey, err = refKey.Derive(i)
		is.NoErr(err)
	}

	xprv, err := key.ExtendedPrivate(NetworkTestnet)
	is.NoErr(err)
	is.Equal(xprv, refKey.String())
}

// TestNewMaster_SeedLength rejects seeds outside the BIP32 range.
func TestNewMaster_SeedLength(t *testing.T) {
	for _, size := range []int{0, 15, 65, 128} {
		if _, err := NewMaster(make([]byte, size)); !errors.Is(err, ErrInvalidSeedLen) {
			t.Errorf("seed of %d bytes: got %v, want ErrInvalidSeedLen", size, err)
		}
	}
}

// TestChild_Metadata tracks depth, child index and parent fingerprint through
// a couple of derivation steps.
func TestChild_Metadata(t *testing.T) {
	is := is.New(t)

	master, err := NewMaster(bip32Vector1Seed)
	is.NoErr(err)
	is.Equal(master.Depth(), uint8(0))
	is.Equal(master.ChildIndex(), uint32(0))
	is.Equal(master.ParentFingerprint(), [4]byte{})
	masterFP := master.Fingerprint()
	is.Equal(hex.EncodeToString(masterFP[:]), "3442193e")

	hardened, err := master.Child(0, true)
	is.NoErr(err)
	is.Equal(hardened.Depth(), uint8(1))
	is.Equal(hardened.ChildIndex(), HardenedKeyStart)
	is.Equal(hardened.ParentFingerprint(), master.Fingerprint())

	normal, err := hardened.Child(7, false)
	is.NoErr(err)
	is.Equal(normal.Depth(), uint8(2))
	is.Equal(normal.ChildIndex(), uint32(7))
	is.Equal(normal.ParentFingerprint(), hardened.Fingerprint())
}

// TestChild_IndexRange rejects indexes with the hardened bit already set.
func TestChild_IndexRange(t *testing.T) {
	is := is.New(t)

	master, err := NewMaster(bip32Vector1Seed)
	is.NoErr(err)

	_, err = master.Child(HardenedKeyStart, false)
	is.True(errors.Is(err, ErrUnsupportedPath))
	_, err = master.Child(HardenedKeyStart+5, true)
	is.True(errors.Is(err, ErrUnsupportedPath))
}

// TestChild_HardenedFromNeutered fails with ErrNoPrivateKey for every index.
func TestChild_HardenedFromNeutered(t *testing.T) {
	is := is.New(t)

	master, err := NewMaster(bip32Vector1Seed)
	is.NoErr(err)
	neutered := master.Neuter()

	for _, index := range []uint32{0, 1, 84, HardenedKeyStart - 1} {
		_, err := neutered.Child(index, true)
		is.True(errors.Is(err, ErrNoPrivateKey))
	}
}

// TestChild_NeuterCommutes verifies that deriving a non-hardened child of the
// neutered master equals neutering the child of the private master.
func TestChild_NeuterCommutes(t *testing.T) {
	is := is.New(t)

	master, err := NewMaster(bip32Vector1Seed)
	is.NoErr(err)

	for _, index := range []uint32{0, 1, 1000} {
		fromPrivate, err := master.Child(index, false)
		is.NoErr(err)
		fromPublic, err := master.Neuter().Child(index, false)
		is.NoErr(err)

		is.True(!fromPublic.IsPrivate())
		is.True(bytes.Equal(fromPublic.CompressedPubKey(), fromPrivate.CompressedPubKey()))
		is.Equal(fromPublic.ExtendedPublic(NetworkMainnet), fromPrivate.Neuter().ExtendedPublic(NetworkMainnet))
	}

	// pinned value for m/0
	child, err := master.Child(0, false)
	is.NoErr(err)
	is.Equal(hex.EncodeToString(child.CompressedPubKey()),
		"027c4b09ffb985c298afe7e5813266cbfcb7780b480ac294b0b43dc21f2be3d13c")
}

// TestNeuter_Idempotent returns the same key for an already neutered key and
// keeps metadata intact.
func TestNeuter_Idempotent(t *testing.T) {
	is := is.New(t)

	master, err := NewMaster(bip32Vector1Seed)
	is.NoErr(err)
	key, err := master.Child(3, true)
	is.NoErr(err)

	neutered := key.Neuter()
	is.True(!neutered.IsPrivate())
	is.Equal(neutered.Neuter(), neutered)
	is.Equal(neutered.Depth(), key.Depth())
	is.Equal(neutered.ChildIndex(), key.ChildIndex())
	is.Equal(neutered.ParentFingerprint(), key.ParentFingerprint())
	is.Equal(neutered.Fingerprint(), key.Fingerprint())
}
