// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package hdrescue

import (
	"context"
	"encoding/hex"
	"fmt"
)

// Style selects how a derived private key is rendered in an export record.
type Style int

const (
	// StyleWIF exports the bare WIF string.
	StyleWIF Style = iota
	// StyleDescriptor wraps the WIF in a wpkh() output descriptor. The
	// descriptor checksum is intentionally left off; computing it is the
	// wallet's job (e.g. via getdescriptorinfo).
	StyleDescriptor
)

// ParseStyle converts a style name to a Style value.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "wif":
		return StyleWIF, nil
	case "descriptor", "desc":
		return StyleDescriptor, nil
	default:
		return 0, fmt.Errorf("unknown export style %q (use wif or descriptor)", name)
	}
}

// ExportRecord is the flat, per-key interchange record handed to a wallet
// importer. Exactly one of WIF and Descriptor is set, depending on the style.
type ExportRecord struct {
	Path       string `json:"path"`
	WIF        string `json:"privkey_wif,omitempty"`
	Descriptor string `json:"desc,omitempty"`
	PubKey     string `json:"pubkey"`
	Address    string `json:"address"`
	Label      string `json:"label"`
}

// ImportRequest is the shape Bitcoin Core's importdescriptors call expects
// for a single descriptor.
type ImportRequest struct {
	Desc      string `json:"desc"`
	Timestamp string `json:"timestamp"`
	Label     string `json:"label"`
	Active    bool   `json:"active"`
}

// WalletImporter is the external wallet collaborator: something that can take
// export records and import them into a wallet, typically over RPC. It owns
// descriptor checksums, the import calls themselves and any rescans.
type WalletImporter interface {
	ImportRecords(ctx context.Context, records []ExportRecord) error
}

// NewExportRecord encodes one derived key as an export record. path is only
// recorded for display; the key must already be derived along it.
func NewExportRecord(path DerivationPath, key *ExtendedKey, net Network, style Style, label string) (ExportRecord, error) {
	wif, err := key.WIF(net, true)
	if err != nil {
		return ExportRecord{}, err
	}
	addr, err := key.AddressP2WPKH(net)
	if err != nil {
		return ExportRecord{}, err
	}

	rec := ExportRecord{
		Path:    path.String(),
		PubKey:  hex.EncodeToString(key.CompressedPubKey()),
		Address: addr,
		Label:   label,
	}
	switch style {
	case StyleDescriptor:
		rec.Descriptor = fmt.Sprintf("wpkh(%s)", wif)
	default:
		rec.WIF = wif
	}
	return rec, nil
}

// ImportRequests converts descriptor-style records into importdescriptors
// request objects with timestamp "now".
func ImportRequests(records []ExportRecord) []ImportRequest {
	reqs := make([]ImportRequest, 0, len(records))
	for _, rec := range records {
		desc := rec.Descriptor
		if desc == "" {
			desc = fmt.Sprintf("wpkh(%s)", rec.WIF)
		}
		reqs = append(reqs, ImportRequest{
			Desc:      desc,
			Timestamp: "now",
			Label:     rec.Label,
			Active:    true,
		})
	}
	return reqs
}

// KeyRef pairs a derived key with the path it was derived along.
type KeyRef struct {
	Path DerivationPath
	Key  *ExtendedKey
}

// Format encodes a set of derived keys as export records labeled
// "<labelPrefix>_<position>". Unlike DeriveBatch it fails fast: the first key
// that cannot be encoded aborts the whole set.
func Format(keys []KeyRef, net Network, style Style, labelPrefix string) ([]ExportRecord, error) {
	records := make([]ExportRecord, 0, len(keys))
	for i, ref := range keys {
		rec, err := NewExportRecord(ref.Path, ref.Key, net, style, fmt.Sprintf("%s_%d", labelPrefix, i))
		if err != nil {
			return nil, fmt.Errorf("formatting %s: %w", ref.Path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// BatchResult is the outcome for a single leaf index of a batch derivation.
type BatchResult struct {
	Index  uint32
	Record ExportRecord
	Err    error
}

// DeriveBatch derives count sibling leaf keys at base/start..start+count-1
// and encodes them as export records labeled "<labelPrefix>_<index>".
//
// The shared parent at base is derived once; a failure there fails the whole
// batch. Failures of individual leaves do not: each leaf reports its own
// error in its BatchResult, and derivation continues with the next index.
func DeriveBatch(root *ExtendedKey, base DerivationPath, start, count uint32, net Network, style Style, labelPrefix string) ([]BatchResult, error) {
	parent, err := root.DerivePath(base)
	if err != nil {
		return nil, fmt.Errorf("deriving batch parent: %w", err)
	}

	results := make([]BatchResult, 0, count)
	for i := start; i < start+count; i++ {
		res := BatchResult{Index: i}
		leaf, err := parent.Child(i, false)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		label := fmt.Sprintf("%s_%d", labelPrefix, i)
		res.Record, res.Err = NewExportRecord(base.Extend(i), leaf, net, style, label)
		results = append(results, res)
	}
	return results, nil
}

// Records collects the successful records of a batch, preserving order.
func Records(results []BatchResult) []ExportRecord {
	records := make([]ExportRecord, 0, len(results))
	for _, res := range results {
		if res.Err == nil {
			records = append(records, res.Record)
		}
	}
	return records
}
