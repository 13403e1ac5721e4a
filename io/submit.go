////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package io moves confidential computations between a party and the
// coordination layer: submitting encrypted records, waiting for their
// computation to finalize, and routing result events back to the waiting
// party.
package io

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/ledger"
)

// Routing holds every account a queued computation touches
type Routing struct {
	Program    ledger.Address
	Definition uint32
	Accounts   ledger.Accounts
}

// Payload is the confidential content of a submission
type Payload struct {
	// Key and nonce the result is sealed for
	Receiver      cryptops.PublicKey
	ReceiverNonce cryptops.Nonce

	// Ephemeral key and nonce the record was sealed with
	Sender      cryptops.PublicKey
	SenderNonce cryptops.Nonce

	Record *cryptops.Ciphertext
}

// Receipt acknowledges a queued computation
type Receipt struct {
	Offset    computation.Offset
	Address   ledger.Address
	Signature ledger.Signature
}

// ResolveRouting derives the accounts of the computation at offset
func ResolveRouting(l ledger.Ledger, program ledger.Address,
	definition uint32, offset computation.Offset,
	payer ledger.Address) (*Routing, error) {
	if payer.IsZero() {
		return nil, errors.New("routing requires a payer")
	}

	accounts, err := ledger.ComputationAccounts(l, program, definition,
		offset)
	if err != nil {
		return nil, err
	}
	accounts[ledger.AccountPayer] = payer

	return &Routing{
		Program:    program,
		Definition: definition,
		Accounts:   accounts,
	}, nil
}

// Submitter queues encrypted records with the coordination layer
type Submitter struct {
	ledger ledger.Ledger
}

// NewSubmitter builds a Submitter over l
func NewSubmitter(l ledger.Ledger) *Submitter {
	return &Submitter{ledger: l}
}

// Submit queues one computation in a single atomic call. It does not
// retry: a rejected submission needs a fresh offset or payload.
func (s *Submitter) Submit(ctx context.Context, offset computation.Offset,
	payload *Payload, routing *Routing) (*Receipt, error) {
	if payload == nil || payload.Record == nil {
		return nil, errors.Wrap(computation.ErrSubmissionRejected,
			"empty payload")
	}
	if routing == nil {
		return nil, errors.Wrap(computation.ErrSubmissionRejected,
			"no routing")
	}

	args := make([]ledger.Argument, 0, 7+len(payload.Record.Blocks))
	args = append(args,
		ledger.Argument{Kind: ledger.ArgDefinitionOffset,
			Value: ledger.DefinitionSeed(routing.Definition)},
		ledger.Argument{Kind: ledger.ArgOffset, Value: offset.Bytes()},
		ledger.Argument{Kind: ledger.ArgPublicKey, Value: payload.Receiver.Bytes()},
		ledger.Argument{Kind: ledger.ArgNonce, Value: nonceBytes(payload.ReceiverNonce)},
		ledger.Argument{Kind: ledger.ArgPublicKey, Value: payload.Sender.Bytes()},
		ledger.Argument{Kind: ledger.ArgNonce, Value: nonceBytes(payload.SenderNonce)},
	)
	for i := range payload.Record.Blocks {
		block := make([]byte, cryptops.BlockSize)
		copy(block, payload.Record.Blocks[i][:])
		args = append(args, ledger.Argument{Kind: ledger.ArgCiphertext,
			Value: block})
	}
	tag := make([]byte, cryptops.TagSize)
	copy(tag, payload.Record.Tag[:])
	args = append(args, ledger.Argument{Kind: ledger.ArgTag, Value: tag})

	sig, err := s.ledger.Call(ctx, ledger.MethodQueueComputation, args,
		routing.Accounts)
	if err != nil {
		switch {
		case errors.Is(err, computation.ErrDuplicateComputation),
			errors.Is(err, computation.ErrSubmissionRejected):
			return nil, errors.WithMessagef(err, "computation %s", offset)
		default:
			return nil, errors.Wrapf(computation.ErrSubmissionRejected,
				"computation %s: %s", offset, err)
		}
	}

	jww.INFO.Printf("Submitted computation %s with signature %s", offset, sig)
	return &Receipt{
		Offset:    offset,
		Address:   routing.Accounts[ledger.AccountComputation],
		Signature: sig,
	}, nil
}

func nonceBytes(n cryptops.Nonce) []byte {
	b := make([]byte, cryptops.NonceSize)
	copy(b, n[:])
	return b
}
