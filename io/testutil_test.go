////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

import (
	"context"
	"testing"

	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/elixxir/veil/localnet"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
)

var (
	testProgram    = ledger.Address{1, 9, 8, 4}
	testPayer      = ledger.Address{4, 2}
	testDefinition = computation.DefinitionOffset("share_patient_data")
)

// newTestCluster runs a local cluster with the share definition finalized
func newTestCluster(t *testing.T, cfg localnet.Config) *localnet.Cluster {
	cfg.Program = testProgram
	c, err := localnet.New(cfg)
	if err != nil {
		t.Fatalf("Failed to build cluster: %+v", err)
	}
	c.Start()
	t.Cleanup(c.Stop)

	routing, err := ResolveRouting(c, testProgram, testDefinition, 0, testPayer)
	if err != nil {
		t.Fatalf("Failed to resolve routing: %+v", err)
	}
	args := []ledger.Argument{{Kind: ledger.ArgDefinitionOffset,
		Value: ledger.DefinitionSeed(testDefinition)}}
	for _, method := range []string{ledger.MethodInitDefinition,
		ledger.MethodFinalizeDefinition} {
		if _, err = c.Call(context.Background(), method, args,
			routing.Accounts); err != nil {
			t.Fatalf("Failed to call %s: %+v", method, err)
		}
	}
	return c
}

// newTestPayload encrypts fields for the cluster's engine and returns the
// payload with the context the result can be opened with
func newTestPayload(t *testing.T, c *localnet.Cluster,
	fields ...uint64) (*Payload, *cryptops.Context) {
	rng := csprng.NewSystemRNG()
	keys, err := cryptops.GenerateKeyPair(rng)
	if err != nil {
		t.Fatalf("Failed to generate keys: %+v", err)
	}
	secret, err := cryptops.DeriveSharedSecret(keys.Private,
		c.EnginePublicKey())
	if err != nil {
		t.Fatalf("Failed to derive secret: %+v", err)
	}
	nonce, err := cryptops.NewNonce(rng)
	if err != nil {
		t.Fatalf("Failed to generate nonce: %+v", err)
	}

	record := make([]*large.Int, len(fields))
	for i, f := range fields {
		record[i] = large.NewIntFromUInt(f)
	}
	cc := cryptops.NewContext(secret)
	ct, err := cc.Encrypt(record, nonce)
	if err != nil {
		t.Fatalf("Failed to encrypt: %+v", err)
	}

	return &Payload{
		Receiver:      keys.Public,
		ReceiverNonce: nonce,
		Sender:        keys.Public,
		SenderNonce:   nonce,
		Record:        ct,
	}, cc
}

// newTestReceiver returns a receiver key pair and the context its results
// open under
func newTestReceiver(t *testing.T, c *localnet.Cluster) (*cryptops.KeyPair,
	*cryptops.Context) {
	keys, err := cryptops.GenerateKeyPair(csprng.NewSystemRNG())
	if err != nil {
		t.Fatalf("Failed to generate keys: %+v", err)
	}
	secret, err := cryptops.DeriveSharedSecret(keys.Private,
		c.EnginePublicKey())
	if err != nil {
		t.Fatalf("Failed to derive secret: %+v", err)
	}
	return keys, cryptops.NewContext(secret)
}

func submitTest(t *testing.T, c *localnet.Cluster, offset computation.Offset,
	payload *Payload) (*Receipt, error) {
	routing, err := ResolveRouting(c, testProgram, testDefinition, offset,
		testPayer)
	if err != nil {
		t.Fatalf("Failed to resolve routing: %+v", err)
	}
	return NewSubmitter(c).Submit(context.Background(), offset, payload,
		routing)
}
