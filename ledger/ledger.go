////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package ledger declares what the confidential computation client needs
// from the on-chain coordination layer. Implementations are injected; the
// localnet package provides an in-process one.
package ledger

import (
	"context"

	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
)

// Program methods called by the client
const (
	MethodInitDefinition     = "init_comp_def"
	MethodFinalizeDefinition = "finalize_comp_def"
	MethodQueueComputation   = "share_patient_data"
)

// Named accounts passed with a call
const (
	AccountPayer       = "payer"
	AccountComputation = "computationAccount"
	AccountDefinition  = "compDefAccount"
	AccountMXE         = "mxeAccount"
	AccountMempool     = "mempoolAccount"
	AccountExecPool    = "executingPool"
	AccountCluster     = "clusterAccount"
)

// Ledger is the RPC surface of the coordination layer. Implementations must
// be safe for concurrent use.
type Ledger interface {
	// Call submits one atomic method call and returns its signature
	Call(ctx context.Context, method string, args []Argument,
		accounts Accounts) (Signature, error)

	// DeriveAddress deterministically derives an address owned by program
	// from the seeds
	DeriveAddress(program Address, seeds ...[]byte) (Address, error)

	// Subscribe opens a subscription to the named event. The subscription
	// must be closed by the caller.
	Subscribe(ctx context.Context, event string) (Subscription, error)

	// GetComputation reads the account tracking a computation. It returns
	// ErrAccountNotFound if the account does not exist yet.
	GetComputation(ctx context.Context, address Address) (*ComputationAccount, error)
}

// Subscription delivers events of one name until closed
type Subscription interface {
	Events() <-chan Event
	Close()
}

// Accounts maps account names to addresses for a call
type Accounts map[string]Address

// ArgumentKind is the type of a call argument
type ArgumentKind uint8

const (
	ArgOffset ArgumentKind = iota
	ArgPublicKey
	ArgNonce
	ArgCiphertext
	ArgTag
	ArgDefinitionOffset
)

// Argument is one typed call argument
type Argument struct {
	Kind  ArgumentKind
	Value []byte
}

// ComputationAccount is the coordination layer's record of a computation
type ComputationAccount struct {
	Offset     computation.Offset
	Definition uint32
	Payer      Address
	Status     computation.Status
	// Reason is set when the computation aborted
	Reason string
	// Signature of the finalizing transaction, set when finalized
	Signature Signature
}

// Event is a result announced by the coordination layer. Offset and Payer
// tag the request it answers.
type Event struct {
	Name   string
	Offset computation.Offset
	Payer  Address
	Nonce  cryptops.Nonce
	Result cryptops.Ciphertext
}

// EventShareResult is the event announcing the result of a share
// computation
const EventShareResult = "bidDataEvent"
