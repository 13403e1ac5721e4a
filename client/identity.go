////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/xx_network/crypto/large"
)

// AddressToField encodes a 32-byte account address as a record field
func AddressToField(a ledger.Address) *large.Int {
	return large.NewIntFromBytes(a[:])
}

// FieldToAddress decodes a record field produced by AddressToField
func FieldToAddress(f *large.Int) (ledger.Address, error) {
	if f == nil {
		return ledger.Address{}, errors.New("no field")
	}
	if f.BitLen() > cryptops.BlockSize*8 {
		return ledger.Address{}, errors.Wrapf(cryptops.ErrFieldOverflow,
			"field of %d bits is not an address", f.BitLen())
	}
	return ledger.NewAddress(f.LeftpadBytes(ledger.AddressLen))
}
