////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/xx_network/crypto/csprng"
)

var (
	testProgram = ledger.Address{9, 9, 9}
	testPayer   = ledger.Address{1, 2}
)

func testConfig() string {
	return `
program: "` + testProgram.String() + `"
definition: "share_patient_data"
log: "/tmp/veil.log"
devMode: true
parties:
  - payer: "` + testPayer.String() + `"
    id: 101
    quantity: 1000000000
  - payer: "` + testPayer.String() + `"
    id: 102
    quantity: 2000000000
waiter:
  pollInterval: 10ms
  timeout: 30s
engine:
  execRate: 20
  burst: 2
  execDelay: 50ms
  workers: 3
database:
  name: "veil"
  username: "user"
  password: "pass"
  address: "127.0.0.1:5432"
`
}

func readParams(t *testing.T, config string) (*Params, error) {
	vip := viper.New()
	vip.SetConfigType("yaml")
	if err := vip.ReadConfig(bytes.NewBufferString(config)); err != nil {
		t.Fatalf("Failed to read config: %+v", err)
	}
	return NewParams(vip)
}

// Happy path
func TestNewParams(t *testing.T) {
	params, err := readParams(t, testConfig())
	if err != nil {
		t.Fatalf("Failed to build params: %+v", err)
	}

	if params.Program != testProgram {
		t.Errorf("Program %s, expected %s", params.Program, testProgram)
	}
	if params.Event != ledger.EventShareResult {
		t.Errorf("Event %s, expected default %s", params.Event,
			ledger.EventShareResult)
	}
	if len(params.Parties) != 2 {
		t.Fatalf("Expected 2 parties, have %d", len(params.Parties))
	}
	if params.Parties[1].Payer != testPayer ||
		params.Parties[1].Record[0].Uint64() != 102 ||
		params.Parties[1].Record[1].Uint64() != 2000000000 {
		t.Errorf("Unexpected party %+v", params.Parties[1])
	}

	if params.Waiter.PollInterval != 10*time.Millisecond ||
		params.Waiter.Timeout != 30*time.Second {
		t.Errorf("Unexpected waiter params %+v", params.Waiter)
	}

	expectedEngine := Engine{ExecRate: 20, Burst: 2,
		ExecDelay: 50 * time.Millisecond, Workers: 3}
	if !reflect.DeepEqual(expectedEngine, params.Engine) {
		t.Errorf("Engine %+v, expected %+v", params.Engine, expectedEngine)
	}

	expectedDatabase := Database{Name: "veil", Username: "user",
		Password: "pass", Address: "127.0.0.1", Port: "5432"}
	if !reflect.DeepEqual(expectedDatabase, params.Database) {
		t.Errorf("Database %+v, expected %+v", params.Database,
			expectedDatabase)
	}
	if !params.DevMode || params.LogPath != "/tmp/veil.log" {
		t.Errorf("Unexpected devMode %v or log %s", params.DevMode,
			params.LogPath)
	}
}

// Error path
func TestNewParams_Missing(t *testing.T) {
	if _, err := readParams(t, "definition: x\n"); err == nil {
		t.Errorf("Expected error without a program")
	}
	if _, err := readParams(t, "program: \""+testProgram.String()+"\"\n"); err == nil {
		t.Errorf("Expected error without parties")
	}
	if _, err := readParams(t, "program: \"0OIl\"\n"); err == nil {
		t.Errorf("Expected error for an invalid program")
	}
}

// Happy path
func TestKeyPair_SaveLoad(t *testing.T) {
	kp, err := cryptops.GenerateKeyPair(csprng.NewSystemRNG())
	if err != nil {
		t.Fatalf("Failed to generate: %+v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "engine.yaml")
	if err = SaveKeyPair(path, kp); err != nil {
		t.Fatalf("Failed to save: %+v", err)
	}
	loaded, err := LoadKeyPair(path)
	if err != nil {
		t.Fatalf("Failed to load: %+v", err)
	}
	if !reflect.DeepEqual(kp, loaded) {
		t.Errorf("Loaded key pair does not match the saved one")
	}
}

// Error path
func TestLoadKeyPair_Mismatch(t *testing.T) {
	a, _ := cryptops.GenerateKeyPair(csprng.NewSystemRNG())
	b, _ := cryptops.GenerateKeyPair(csprng.NewSystemRNG())
	a.Public = b.Public
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := SaveKeyPair(path, a); err != nil {
		t.Fatalf("Failed to save: %+v", err)
	}
	if _, err := LoadKeyPair(path); err == nil {
		t.Errorf("Expected error for a mismatched public key")
	}
	if _, err := LoadKeyPair(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Errorf("Expected error for a missing file")
	}
}
