// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package hdrescue

import (
	"fmt"
	"strconv"
	"strings"
)

// PathElement is a single derivation step: a 31-bit child index and whether
// the step is hardened.
type PathElement struct {
	Index    uint32
	Hardened bool
}

// DerivationPath is an ordered sequence of derivation steps, applied left to
// right from a root extended key. Hardening is explicit per element; nothing
// is ever hardened implicitly.
type DerivationPath []PathElement

// ParsePath converts a path string in the conventional notation, such as
// "m/84'/1'/0'/0/0", to a DerivationPath. The leading "m/" is optional, and
// hardened steps may use either an apostrophe or a trailing "h".
func ParsePath(s string) (DerivationPath, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnsupportedPath)
	}
	if trimmed == "m" {
		return DerivationPath{}, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "m/")

	elems := strings.Split(trimmed, "/")
	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, fmt.Errorf("%w: empty element in %q", ErrUnsupportedPath, s)
		}

		var hardened bool
		if strings.HasSuffix(elem, "'") || strings.HasSuffix(elem, "h") || strings.HasSuffix(elem, "H") {
			hardened = true
			elem = elem[:len(elem)-1]
		}

		index, err := strconv.ParseUint(elem, 10, 32)
		if err != nil || index >= uint64(HardenedKeyStart) {
			return nil, fmt.Errorf("%w: element %q must be an integer in [0, %d]",
				ErrUnsupportedPath, elem, HardenedKeyStart-1)
		}

		path = append(path, PathElement{Index: uint32(index), Hardened: hardened})
	}
	return path, nil
}

// Extend returns a copy of the path with a non-hardened leaf index appended.
// The receiver is left untouched.
func (path DerivationPath) Extend(index uint32) DerivationPath {
	extended := make(DerivationPath, len(path), len(path)+1)
	copy(extended, path)
	return append(extended, PathElement{Index: index})
}

// String converts the path back to its canonical "m/..." notation with
// apostrophes for hardened steps.
func (path DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, elem := range path {
		fmt.Fprintf(&b, "/%d", elem.Index)
		if elem.Hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}
