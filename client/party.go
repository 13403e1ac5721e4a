////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package client runs the confidential share round trip for a party:
// records are sealed under a secret shared with the engine, queued with the
// coordination layer, and the result is opened once the computation
// finalizes.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/internal/measure"
	"gitlab.com/elixxir/veil/io"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
)

// ErrResultMismatch is returned when a result does not belong to the
// computation it was routed to
var ErrResultMismatch = errors.New("result does not match the computation")

// Params configures a Session
type Params struct {
	Program ledger.Address
	// Name of the computation definition
	Definition string
	// Name of the result event
	Event  string
	Waiter io.WaiterParams
}

// Session holds the pieces parties of one process share: the submitter,
// the finalization waiter and a single result subscription
type Session struct {
	ledger     ledger.Ledger
	program    ledger.Address
	definition uint32
	timeout    time.Duration

	submitter  *io.Submitter
	waiter     *io.Waiter
	dispatcher *io.Dispatcher
}

// NewSession subscribes to the result event. Close must be called to end
// the subscription.
func NewSession(ctx context.Context, l ledger.Ledger,
	params Params) (*Session, error) {
	if params.Event == "" {
		params.Event = ledger.EventShareResult
	}
	if params.Waiter.Timeout <= 0 {
		params.Waiter.Timeout = io.DefaultWaiterParams().Timeout
	}

	dispatcher, err := io.NewDispatcher(ctx, l, params.Event)
	if err != nil {
		return nil, err
	}

	return &Session{
		ledger:     l,
		program:    params.Program,
		definition: computation.DefinitionOffset(params.Definition),
		timeout:    params.Waiter.Timeout,
		submitter:  io.NewSubmitter(l),
		waiter:     io.NewWaiter(l, params.Program, params.Waiter),
		dispatcher: dispatcher,
	}, nil
}

// Close ends the result subscription
func (s *Session) Close() {
	s.dispatcher.Close()
}

// Party is one participant with a fresh key pair for the session
type Party struct {
	session   *Session
	payer     ledger.Address
	engine    cryptops.PublicKey
	keys      *cryptops.KeyPair
	cipher    *cryptops.Context
	allocator *computation.Allocator

	rng    csprng.Source
	rngMux sync.Mutex
}

// Result of one round trip
type Result struct {
	Offset    computation.Offset
	Signature ledger.Signature
	Fields    []*large.Int
	Metrics   *measure.Metrics
}

// NewParty generates a key pair and derives the secret shared with the
// engine at enginePub
func (s *Session) NewParty(enginePub cryptops.PublicKey,
	payer ledger.Address) (*Party, error) {
	rng := csprng.NewSystemRNG()
	keys, err := cryptops.GenerateKeyPair(rng)
	if err != nil {
		return nil, errors.WithMessage(err, "could not generate party keys")
	}
	secret, err := cryptops.DeriveSharedSecret(keys.Private, enginePub)
	if err != nil {
		keys.Destroy()
		return nil, errors.WithMessage(err, "could not exchange keys with "+
			"the engine")
	}

	return &Party{
		session:   s,
		payer:     payer,
		engine:    enginePub,
		keys:      keys,
		cipher:    cryptops.NewContext(secret),
		allocator: computation.NewAllocator(rng),
		rng:       rng,
	}, nil
}

// PublicKey of the party for this session
func (p *Party) PublicKey() cryptops.PublicKey {
	return p.keys.Public
}

// Destroy zeroes the party's private key
func (p *Party) Destroy() {
	p.keys.Destroy()
}

// Share submits fields for confidential computation and returns the
// decrypted result once the computation finalizes. The result is sealed to
// a receiver key generated for this call only.
func (p *Party) Share(ctx context.Context, fields []*large.Int) (*Result, error) {
	p.rngMux.Lock()
	receiver, err := cryptops.GenerateKeyPair(p.rng)
	p.rngMux.Unlock()
	if err != nil {
		return nil, errors.WithMessage(err, "could not generate receiver keys")
	}
	defer receiver.Destroy()
	return p.ShareWith(ctx, fields, receiver)
}

// ShareWith submits fields for confidential computation with the result
// sealed to receiver. The result is opened with the secret receiver shares
// with the engine, so only the holder of receiver's private key reads it.
func (p *Party) ShareWith(ctx context.Context, fields []*large.Int,
	receiver *cryptops.KeyPair) (*Result, error) {
	s := p.session
	metrics := new(measure.Metrics)

	secret, err := cryptops.DeriveSharedSecret(receiver.Private, p.engine)
	if err != nil {
		return nil, errors.WithMessage(err, "could not exchange receiver "+
			"keys with the engine")
	}
	defer secret.Destroy()
	opener := cryptops.NewContext(secret)

	p.rngMux.Lock()
	offset, err := p.allocator.Allocate()
	var nonce, receiverNonce cryptops.Nonce
	if err == nil {
		nonce, err = cryptops.NewNonce(p.rng)
	}
	if err == nil {
		receiverNonce, err = cryptops.NewNonce(p.rng)
	}
	p.rngMux.Unlock()
	if err != nil {
		return nil, err
	}

	record, err := p.cipher.Encrypt(fields, nonce)
	if err != nil {
		return nil, err
	}
	metrics.Measure(measure.TagEncrypt)
	routing, err := io.ResolveRouting(s.ledger, s.program, s.definition,
		offset, p.payer)
	if err != nil {
		return nil, err
	}

	exp, err := s.dispatcher.Expect(offset)
	if err != nil {
		return nil, err
	}
	defer exp.Cancel()

	payload := &io.Payload{
		Receiver:      receiver.Public,
		ReceiverNonce: receiverNonce,
		Sender:        p.keys.Public,
		SenderNonce:   nonce,
		Record:        record,
	}
	if _, err = s.submitter.Submit(ctx, offset, payload, routing); err != nil {
		return nil, err
	}
	metrics.Measure(measure.TagSubmit)

	outcome, err := s.waiter.AwaitFinalization(ctx, offset, s.timeout)
	if err != nil {
		return nil, err
	}
	metrics.Measure(measure.TagFinalized)
	ev, err := exp.Wait(ctx, s.timeout)
	if err != nil {
		return nil, err
	}
	metrics.Measure(measure.TagResult)

	if ev.Payer != p.payer {
		return nil, errors.Wrapf(ErrResultMismatch, "computation %s was "+
			"paid by %s, expected %s", offset, ev.Payer, p.payer)
	}
	if ev.Nonce != receiverNonce.Increment() {
		return nil, errors.Wrapf(ErrResultMismatch, "computation %s "+
			"result nonce %s, expected %s", offset, ev.Nonce,
			receiverNonce.Increment())
	}
	result, err := io.DecodeResult(ev, opener)
	if err != nil {
		return nil, err
	}
	metrics.Measure(measure.TagDecrypt)
	if len(result) != len(fields) {
		return nil, errors.Wrapf(ErrResultMismatch, "computation %s "+
			"returned %d fields, expected %d", offset, len(result),
			len(fields))
	}

	jww.INFO.Printf("Computation %s complete: %s", offset, metrics)
	return &Result{
		Offset:    offset,
		Signature: outcome.Signature,
		Fields:    result,
		Metrics:   metrics,
	}, nil
}
