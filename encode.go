// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package hdrescue

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CompressedPubKey returns a copy of the 33-byte compressed SEC1 public key.
func (k *ExtendedKey) CompressedPubKey() []byte {
	pub := k.pubKeyBytes()
	out := make([]byte, len(pub))
	copy(out, pub)
	return out
}

// WIF encodes the private key in Wallet Import Format for the given network:
// Base58Check over the network's private key byte, the raw key, and an
// optional 0x01 compression flag.
func (k *ExtendedKey) WIF(net Network, compressed bool) (string, error) {
	if !k.private {
		return "", ErrMissingPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(k.key)
	wif, err := btcutil.NewWIF(priv, net.Params(), compressed)
	if err != nil {
		return "", fmt.Errorf("could not encode WIF: %w", err)
	}
	return wif.String(), nil
}

// ExtendedPrivate serializes the key in the xprv/tprv Base58Check format.
func (k *ExtendedKey) ExtendedPrivate(net Network) (string, error) {
	if !k.private {
		return "", ErrMissingPrivateKey
	}
	keyData := make([]byte, 0, 33)
	keyData = append(keyData, 0x00)
	keyData = append(keyData, k.key...)
	return k.serialize(net.Params().HDPrivateKeyID, keyData), nil
}

// ExtendedPublic serializes the key in the xpub/tpub Base58Check format.
func (k *ExtendedKey) ExtendedPublic(net Network) string {
	return k.serialize(net.Params().HDPublicKeyID, k.pubKeyBytes())
}

// serialize builds the 78-byte BIP32 payload (version, depth, parent
// fingerprint, child index, chain code, key data) and Base58Check-encodes it.
func (k *ExtendedKey) serialize(version [4]byte, keyData []byte) string {
	payload := make([]byte, 0, 82)
	payload = append(payload, version[:]...)
	payload = append(payload, k.depth)
	payload = append(payload, k.parentFP[:]...)
	payload = binary.BigEndian.AppendUint32(payload, k.childIndex)
	payload = append(payload, k.chainCode...)
	payload = append(payload, keyData...)
	payload = append(payload, chainhash.DoubleHashB(payload)[:4]...)
	return base58.Encode(payload)
}

// AddressP2WPKH returns the native segwit v0 address for the key: bech32 with
// the network's HRP over HASH160 of the compressed public key.
func (k *ExtendedKey) AddressP2WPKH(net Network) (string, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(k.pubKeyBytes()), net.Params(),
	)
	if err != nil {
		return "", fmt.Errorf("could not build p2wpkh address: %w", err)
	}
	return addr.EncodeAddress(), nil
}
