////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package ledger

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/veil/computation"
)

// Seeds of the accounts a computation is routed through
var (
	SeedComputation = []byte("ComputationAccount")
	SeedDefinition  = []byte("ComputationDefinitionAccount")
	SeedMXE         = []byte("PersistentMXEAccount")
	SeedMempool     = []byte("Mempool")
	SeedExecPool    = []byte("Execpool")
	SeedCluster     = []byte("Cluster")
)

// shared are the program accounts every computation is routed through
var shared = map[string][]byte{
	AccountMXE:      SeedMXE,
	AccountMempool:  SeedMempool,
	AccountExecPool: SeedExecPool,
	AccountCluster:  SeedCluster,
}

// DefinitionSeed encodes a definition offset as it appears in seeds and
// arguments
func DefinitionSeed(definition uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, definition)
	return b
}

// ComputationAccounts derives every program account the computation at
// offset under definition touches. The payer is not included.
func ComputationAccounts(l Ledger, program Address, definition uint32,
	offset computation.Offset) (Accounts, error) {
	accounts := make(Accounts, len(shared)+2)
	var err error
	if accounts[AccountComputation], err = ComputationAddress(l, program,
		offset); err != nil {
		return nil, errors.WithMessagef(err, "could not derive %s",
			AccountComputation)
	}
	if accounts[AccountDefinition], err = DefinitionAddress(l, program,
		definition); err != nil {
		return nil, errors.WithMessagef(err, "could not derive %s",
			AccountDefinition)
	}
	for name, seed := range shared {
		if accounts[name], err = l.DeriveAddress(program, seed); err != nil {
			return nil, errors.WithMessagef(err, "could not derive %s", name)
		}
	}
	return accounts, nil
}

// MXEAddress derives the program's persistent engine account
func MXEAddress(l Ledger, program Address) (Address, error) {
	return l.DeriveAddress(program, SeedMXE)
}

// ComputationAddress derives the account tracking the computation at offset
func ComputationAddress(l Ledger, program Address,
	offset computation.Offset) (Address, error) {
	return l.DeriveAddress(program, SeedComputation, offset.Bytes())
}

// DefinitionAddress derives the account of a computation definition
func DefinitionAddress(l Ledger, program Address, definition uint32) (Address, error) {
	return l.DeriveAddress(program, SeedDefinition, DefinitionSeed(definition))
}
