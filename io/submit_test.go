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

	"github.com/pkg/errors"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/elixxir/veil/localnet"
)

// Happy path
func TestResolveRouting(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	r1, err := ResolveRouting(c, testProgram, testDefinition, 17, testPayer)
	if err != nil {
		t.Fatalf("Failed to resolve: %+v", err)
	}
	r2, _ := ResolveRouting(c, testProgram, testDefinition, 17, testPayer)
	for name, a := range r1.Accounts {
		if r2.Accounts[name] != a {
			t.Errorf("Account %s is not deterministic", name)
		}
	}
	if len(r1.Accounts) != 7 {
		t.Errorf("Expected 7 accounts, have %d", len(r1.Accounts))
	}

	expected, _ := ledger.ComputationAddress(c, testProgram, 17)
	if r1.Accounts[ledger.AccountComputation] != expected {
		t.Errorf("Computation account %s, expected %s",
			r1.Accounts[ledger.AccountComputation], expected)
	}

	r3, _ := ResolveRouting(c, testProgram, testDefinition, 18, testPayer)
	if r3.Accounts[ledger.AccountComputation] == expected {
		t.Errorf("Different offsets share a computation account")
	}
}

// Error path
func TestResolveRouting_NoPayer(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	if _, err := ResolveRouting(c, testProgram, testDefinition, 1,
		ledger.Address{}); err == nil {
		t.Errorf("Expected error without a payer")
	}
}

// Happy path
func TestSubmitter_Submit(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	payload, _ := newTestPayload(t, c, 101, 1000000000)
	receipt, err := submitTest(t, c, 21, payload)
	if err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}
	if receipt.Offset != 21 || receipt.Signature == "" {
		t.Errorf("Unexpected receipt %+v", receipt)
	}

	acct, err := c.GetComputation(context.Background(), receipt.Address)
	if err != nil {
		t.Fatalf("Submitted computation has no account: %+v", err)
	}
	if acct.Payer != testPayer {
		t.Errorf("Payer %s, expected %s", acct.Payer, testPayer)
	}
}

// Error path
func TestSubmitter_Submit_Duplicate(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	payload, _ := newTestPayload(t, c, 1, 2)
	if _, err := submitTest(t, c, 22, payload); err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}
	_, err := submitTest(t, c, 22, payload)
	if !errors.Is(err, computation.ErrDuplicateComputation) {
		t.Errorf("Expected duplicate, received %+v", err)
	}
}

// Error path
func TestSubmitter_Submit_Rejected(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	payload, _ := newTestPayload(t, c, 1, 2)

	routing, err := ResolveRouting(c, testProgram, testDefinition, 23,
		testPayer)
	if err != nil {
		t.Fatalf("Failed to resolve routing: %+v", err)
	}
	_, err = NewSubmitter(c).Submit(context.Background(), 24, payload, routing)
	if !errors.Is(err, computation.ErrSubmissionRejected) {
		t.Errorf("Expected rejection for misrouted offset, received %+v", err)
	}

	_, err = NewSubmitter(c).Submit(context.Background(), 23, nil, routing)
	if !errors.Is(err, computation.ErrSubmissionRejected) {
		t.Errorf("Expected rejection for empty payload, received %+v", err)
	}

	wrongDef, _ := ResolveRouting(c, testProgram, testDefinition+1, 25,
		testPayer)
	_, err = NewSubmitter(c).Submit(context.Background(), 25, payload, wrongDef)
	if !errors.Is(err, computation.ErrSubmissionRejected) {
		t.Errorf("Expected rejection for unknown definition, received %+v", err)
	}
}
