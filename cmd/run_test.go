////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/elixxir/veil/cmd/conf"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/io"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/large"
)

func testParams(t *testing.T) *conf.Params {
	return &conf.Params{
		Program:    ledger.Address{5, 5},
		Definition: "share_patient_data",
		Event:      ledger.EventShareResult,
		Parties: []conf.Party{
			{Payer: ledger.Address{1}, Record: []*large.Int{
				large.NewIntFromUInt(101), large.NewIntFromUInt(1000000000)}},
			{Payer: ledger.Address{2}, Record: []*large.Int{
				large.NewIntFromUInt(102), large.NewIntFromUInt(2000000000)}},
		},
		Waiter: io.WaiterParams{
			PollInterval: 5 * time.Millisecond,
			Timeout:      10 * time.Second,
		},
		Engine:  conf.Engine{ExecDelay: 10 * time.Millisecond},
		DevMode: true,
	}
}

// Happy path
func TestRun(t *testing.T) {
	if err := Run(context.Background(), testParams(t)); err != nil {
		t.Errorf("Run failed: %+v", err)
	}
}

// Happy path: the engine key is read from disk
func TestRun_EngineKeyFile(t *testing.T) {
	params := testParams(t)
	params.EngineKeyPath = filepath.Join(t.TempDir(), "engine.yaml")
	kp, err := cryptops.GenerateKeyPair(csprng.NewSystemRNG())
	if err != nil {
		t.Fatalf("Failed to generate: %+v", err)
	}
	if err = conf.SaveKeyPair(params.EngineKeyPath, kp); err != nil {
		t.Fatalf("Failed to save: %+v", err)
	}

	loaded, err := loadEngineKey(params.EngineKeyPath)
	if err != nil {
		t.Fatalf("Failed to load: %+v", err)
	}
	if loaded.Public != kp.Public {
		t.Errorf("Loaded engine key %s, expected %s", loaded.Public,
			kp.Public)
	}
	if err = Run(context.Background(), params); err != nil {
		t.Errorf("Run failed: %+v", err)
	}
}

// Error path
func TestRun_NoDatabase(t *testing.T) {
	params := testParams(t)
	params.DevMode = false
	if err := Run(context.Background(), params); err == nil {
		t.Errorf("Expected error without a database outside dev mode")
	}
}
