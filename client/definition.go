////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/io"
	"gitlab.com/elixxir/veil/ledger"
)

// InitDefinition initializes and finalizes the computation definition
// called name so computations of its kind may be queued. An already
// initialized definition is not an error. Returns the definition offset.
func InitDefinition(ctx context.Context, l ledger.Ledger,
	program ledger.Address, name string, payer ledger.Address) (uint32, error) {
	def := computation.DefinitionOffset(name)
	routing, err := io.ResolveRouting(l, program, def, 0, payer)
	if err != nil {
		return 0, err
	}

	args := []ledger.Argument{{Kind: ledger.ArgDefinitionOffset,
		Value: ledger.DefinitionSeed(def)}}

	_, err = l.Call(ctx, ledger.MethodInitDefinition, args, routing.Accounts)
	if errors.Is(err, ledger.ErrDefinitionExists) {
		jww.INFO.Printf("Computation definition %s (%d) already "+
			"initialized", name, def)
		return def, nil
	} else if err != nil {
		return 0, errors.WithMessagef(err, "could not initialize "+
			"definition %s", name)
	}

	if _, err = l.Call(ctx, ledger.MethodFinalizeDefinition, args,
		routing.Accounts); err != nil {
		return 0, errors.WithMessagef(err, "could not finalize "+
			"definition %s", name)
	}

	jww.INFO.Printf("Computation definition %s (%d) initialized", name, def)
	return def, nil
}
