////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package localnet

import (
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/internal/state"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/elixxir/veil/storage"
)

// job is one queued share computation
type job struct {
	address    ledger.Address
	offset     computation.Offset
	definition uint32
	payer      ledger.Address

	receiver      cryptops.PublicKey
	receiverNonce cryptops.Nonce
	sender        cryptops.PublicKey
	senderNonce   cryptops.Nonce
	input         cryptops.Ciphertext

	machine *state.Machine

	// persisted with the next transition
	reason    string
	signature ledger.Signature
}

// queue validates a share submission, records it as QUEUED and hands it to
// the mempool
func (c *Cluster) queue(args []ledger.Argument, accounts ledger.Accounts) error {
	j, err := c.parseJob(args, accounts)
	if err != nil {
		return err
	}

	def, err := c.store.GetDefinition(j.definition)
	if errors.Is(err, storage.ErrNotFound) {
		return errors.Wrapf(computation.ErrSubmissionRejected,
			"definition %d is not initialized", j.definition)
	} else if err != nil {
		return err
	}
	if !def.Finalized {
		return errors.Wrapf(computation.ErrSubmissionRejected,
			"definition %d is not finalized", j.definition)
	}

	err = c.store.InsertComputation(&storage.Computation{
		Address:    j.address.Bytes(),
		Offset:     uint64(j.offset),
		Definition: j.definition,
		Payer:      j.payer.Bytes(),
		Status:     uint32(computation.QUEUED),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return errors.Wrapf(computation.ErrDuplicateComputation,
			"offset %s", j.offset)
	} else if err != nil {
		return err
	}

	j.machine = state.NewMachine(func(_, to computation.Status) error {
		return c.store.UpdateComputation(j.address[:], uint32(to), j.reason,
			string(j.signature))
	})

	select {
	case c.mempool <- j:
	default:
		j.reason = "mempool full"
		if err = j.machine.Update(computation.ABORTED); err != nil {
			jww.ERROR.Printf("Could not abort computation %s: %+v",
				j.offset, err)
		}
		return errors.Wrapf(computation.ErrSubmissionRejected,
			"mempool is full, computation %s dropped", j.offset)
	}

	jww.INFO.Printf("Queued computation %s for payer %s", j.offset, j.payer)
	return nil
}

func (c *Cluster) parseJob(args []ledger.Argument,
	accounts ledger.Accounts) (*job, error) {
	r := &argReader{method: ledger.MethodQueueComputation, args: args}
	j := &job{payer: accounts[ledger.AccountPayer]}

	var err error
	if j.definition, err = r.definition(); err != nil {
		return nil, err
	}
	b, err := r.next(ledger.ArgOffset, computation.OffsetLen)
	if err != nil {
		return nil, err
	}
	if j.offset, err = computation.OffsetFromBytes(b); err != nil {
		return nil, errors.Wrap(computation.ErrSubmissionRejected, err.Error())
	}
	if j.receiver, err = r.publicKey(); err != nil {
		return nil, err
	}
	if j.receiverNonce, err = r.nonce(); err != nil {
		return nil, err
	}
	if j.sender, err = r.publicKey(); err != nil {
		return nil, err
	}
	if j.senderNonce, err = r.nonce(); err != nil {
		return nil, err
	}
	for {
		kind, ok := r.peek()
		if !ok || kind != ledger.ArgCiphertext {
			break
		}
		b, err = r.next(ledger.ArgCiphertext, cryptops.BlockSize)
		if err != nil {
			return nil, err
		}
		var block cryptops.Block
		copy(block[:], b)
		j.input.Blocks = append(j.input.Blocks, block)
	}
	if b, err = r.next(ledger.ArgTag, cryptops.TagSize); err != nil {
		return nil, err
	}
	copy(j.input.Tag[:], b)
	if err = r.done(); err != nil {
		return nil, err
	}

	want, err := ledger.ComputationAccounts(c, c.program, j.definition,
		j.offset)
	if err != nil {
		return nil, errors.Wrapf(computation.ErrSubmissionRejected, "%s: %s",
			r.method, err)
	}
	for name, address := range want {
		if err = expectAccount(r.method, accounts, name, address); err != nil {
			return nil, err
		}
	}
	j.address = accounts[ledger.AccountComputation]
	return j, nil
}

// execute is the loop of one engine worker
func (c *Cluster) execute(worker int) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case j := <-c.mempool:
			if err := c.limiter.Wait(c.ctx); err != nil {
				jww.DEBUG.Printf("Engine worker %d stopping with computation "+
					"%s queued: %s", worker, j.offset, err)
				return
			}
			c.run(worker, j)
		}
	}
}

func (c *Cluster) run(worker int, j *job) {
	if err := j.machine.Update(computation.EXECUTING); err != nil {
		jww.ERROR.Printf("Engine worker %d could not start computation %s: "+
			"%+v", worker, j.offset, err)
		return
	}
	jww.DEBUG.Printf("Engine worker %d executing computation %s", worker,
		j.offset)

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ev, err := c.circuit(j)
	if err != nil {
		c.abort(j, err)
		return
	}
	if j.signature, err = c.newSignature(); err != nil {
		c.abort(j, err)
		return
	}
	if err = j.machine.Update(computation.FINALIZED); err != nil {
		jww.ERROR.Printf("Could not finalize computation %s: %+v",
			j.offset, err)
		j.signature = ""
		c.abort(j, err)
		return
	}
	c.events.publish(*ev)
	jww.INFO.Printf("Computation %s finalized with signature %s", j.offset,
		j.signature)
}

// abort moves an executing job to ABORTED with err as the reason
func (c *Cluster) abort(j *job, err error) {
	j.reason = err.Error()
	jww.ERROR.Printf("Computation %s aborted while %s: %s", j.offset,
		j.machine.Get(), j.reason)
	if err = j.machine.Update(computation.ABORTED); err != nil {
		jww.ERROR.Printf("Could not abort computation %s: %+v",
			j.offset, err)
	}
}

// circuit runs the share computation: the input is opened under the
// sender's shared secret and sealed again for the receiver with the
// receiver's nonce advanced by one
func (c *Cluster) circuit(j *job) (*ledger.Event, error) {
	inSecret, err := cryptops.DeriveSharedSecret(c.engine.Private, j.sender)
	if err != nil {
		return nil, errors.WithMessage(err, "sender key rejected")
	}
	defer inSecret.Destroy()

	fields, err := cryptops.NewContext(inSecret).Decrypt(&j.input,
		j.senderNonce)
	if err != nil {
		return nil, errors.WithMessage(err, "input could not be decrypted")
	}

	outSecret, err := cryptops.DeriveSharedSecret(c.engine.Private, j.receiver)
	if err != nil {
		return nil, errors.WithMessage(err, "receiver key rejected")
	}
	defer outSecret.Destroy()

	nonce := j.receiverNonce.Increment()
	out, err := cryptops.NewContext(outSecret).Encrypt(fields, nonce)
	if err != nil {
		return nil, errors.WithMessage(err, "output could not be encrypted")
	}

	return &ledger.Event{
		Name:   ledger.EventShareResult,
		Offset: j.offset,
		Payer:  j.payer,
		Nonce:  nonce,
		Result: *out,
	}, nil
}
