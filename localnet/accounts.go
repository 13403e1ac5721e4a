////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package localnet

import (
	"encoding/binary"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/elixxir/veil/storage"
)

// argReader walks a method's arguments in order, checking their kinds
type argReader struct {
	method string
	args   []ledger.Argument
	pos    int
}

func (r *argReader) next(kind ledger.ArgumentKind, size int) ([]byte, error) {
	if r.pos >= len(r.args) {
		return nil, errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: missing argument %d", r.method, r.pos)
	}
	a := r.args[r.pos]
	if a.Kind != kind {
		return nil, errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: argument %d has kind %d, expected %d", r.method, r.pos,
			a.Kind, kind)
	}
	if len(a.Value) != size {
		return nil, errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: argument %d is %d bytes, expected %d", r.method, r.pos,
			len(a.Value), size)
	}
	r.pos++
	return a.Value, nil
}

// peek reports the kind of the next argument
func (r *argReader) peek() (ledger.ArgumentKind, bool) {
	if r.pos >= len(r.args) {
		return 0, false
	}
	return r.args[r.pos].Kind, true
}

func (r *argReader) done() error {
	if r.pos != len(r.args) {
		return errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: %d trailing arguments", r.method, len(r.args)-r.pos)
	}
	return nil
}

func (r *argReader) definition() (uint32, error) {
	b, err := r.next(ledger.ArgDefinitionOffset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *argReader) publicKey() (cryptops.PublicKey, error) {
	b, err := r.next(ledger.ArgPublicKey, cryptops.KeySize)
	if err != nil {
		return cryptops.PublicKey{}, err
	}
	return cryptops.NewPublicKey(b)
}

func (r *argReader) nonce() (cryptops.Nonce, error) {
	var n cryptops.Nonce
	b, err := r.next(ledger.ArgNonce, cryptops.NonceSize)
	if err != nil {
		return n, err
	}
	copy(n[:], b)
	return n, nil
}

// expectAccount checks that the named account was routed to want
func expectAccount(method string, accounts ledger.Accounts, name string,
	want ledger.Address) error {
	if got := accounts[name]; got != want {
		return errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: account %s is %s, expected %s", method, name, got, want)
	}
	return nil
}

// initDefinition creates a computation definition account
func (c *Cluster) initDefinition(args []ledger.Argument,
	accounts ledger.Accounts) error {
	r := &argReader{method: ledger.MethodInitDefinition, args: args}
	def, err := r.definition()
	if err != nil {
		return err
	}
	if err = r.done(); err != nil {
		return err
	}
	defAddress, err := ledger.DefinitionAddress(c, c.program, def)
	if err != nil {
		return errors.Wrapf(computation.ErrSubmissionRejected, "%s: %s",
			r.method, err)
	}
	mxeAddress, err := ledger.MXEAddress(c, c.program)
	if err != nil {
		return errors.Wrapf(computation.ErrSubmissionRejected, "%s: %s",
			r.method, err)
	}
	if err = expectAccount(r.method, accounts, ledger.AccountDefinition,
		defAddress); err != nil {
		return err
	}
	if err = expectAccount(r.method, accounts, ledger.AccountMXE,
		mxeAddress); err != nil {
		return err
	}

	err = c.store.InsertDefinition(&storage.Definition{
		Offset: def,
		Name:   accounts[ledger.AccountDefinition].String(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return errors.Wrapf(ledger.ErrDefinitionExists, "definition %d", def)
	} else if err != nil {
		return err
	}

	jww.INFO.Printf("Initialized computation definition %d", def)
	return nil
}

// finalizeDefinition seals a definition so computations may be queued
func (c *Cluster) finalizeDefinition(args []ledger.Argument) error {
	r := &argReader{method: ledger.MethodFinalizeDefinition, args: args}
	def, err := r.definition()
	if err != nil {
		return err
	}
	if err = r.done(); err != nil {
		return err
	}

	err = c.store.FinalizeDefinition(def)
	if errors.Is(err, storage.ErrNotFound) {
		return errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: definition %d is not initialized", r.method, def)
	} else if err != nil {
		return err
	}

	jww.INFO.Printf("Finalized computation definition %d", def)
	return nil
}
