////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package computation holds the identifiers and lifecycle shared by the
// client and the coordination layer for one confidential computation.
package computation

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// OffsetLen is the width of an Offset on the wire
const OffsetLen = 8

// Offset identifies one computation instance. It is random, and also seeds
// the address of the account that tracks the computation.
type Offset uint64

// Bytes returns the offset little endian encoded
func (o Offset) Bytes() []byte {
	b := make([]byte, OffsetLen)
	binary.LittleEndian.PutUint64(b, uint64(o))
	return b
}

// String returns the offset in base 10. This functions satisfies the
// fmt.Stringer interface.
func (o Offset) String() string {
	return strconv.FormatUint(uint64(o), 10)
}

// OffsetFromBytes decodes a little endian offset
func OffsetFromBytes(b []byte) (Offset, error) {
	if len(b) != OffsetLen {
		return 0, errors.Errorf("offset must be %d bytes, received %d",
			OffsetLen, len(b))
	}
	return Offset(binary.LittleEndian.Uint64(b)), nil
}

// Allocator hands out computation offsets. It does not track offsets in
// flight; a collision is reported by the coordination layer as
// ErrDuplicateComputation.
type Allocator struct {
	rng io.Reader
}

// NewAllocator creates an Allocator reading from rng, which must be a
// cryptographically secure source such as csprng.NewSystemRNG().
func NewAllocator(rng io.Reader) *Allocator {
	return &Allocator{rng: rng}
}

// Allocate draws a fresh offset
func (a *Allocator) Allocate() (Offset, error) {
	b := make([]byte, OffsetLen)
	if _, err := io.ReadFull(a.rng, b); err != nil {
		return 0, errors.Wrap(err, "failed to read computation offset")
	}
	return Offset(binary.LittleEndian.Uint64(b)), nil
}

// DefinitionOffset returns the offset of the computation definition with
// the passed name: the first four bytes of its SHA-256 read little endian.
func DefinitionOffset(name string) uint32 {
	h := sha256.Sum256([]byte(name))
	return binary.LittleEndian.Uint32(h[:4])
}
