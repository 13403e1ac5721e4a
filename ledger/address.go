////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package ledger

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// AddressLen is the width of an account or program address
const AddressLen = 32

// Address identifies an account or program on the ledger
type Address [AddressLen]byte

// Signature identifies a transaction accepted by the ledger
type Signature string

// ParseAddress decodes a base58 address
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := base58.Decode(s)
	if err != nil {
		return a, errors.Wrapf(err, "could not decode address %q", s)
	}
	if len(b) != AddressLen {
		return a, errors.Errorf("address %q decodes to %d bytes, "+
			"expected %d", s, len(b), AddressLen)
	}
	copy(a[:], b)
	return a, nil
}

// NewAddress copies b into an Address
func NewAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, errors.Errorf("address must be %d bytes, received %d",
			AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Bytes returns a copy of the address as a slice
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLen)
	copy(out, a[:])
	return out
}

// String returns the address base58 encoded. This functions satisfies the
// fmt.Stringer interface.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == Address{}
}
