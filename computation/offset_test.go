////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package computation

import (
	"bytes"
	"sync"
	"testing"

	"gitlab.com/xx_network/crypto/csprng"
)

// Tests that 1000 concurrently allocated offsets are distinct
func TestAllocator_Allocate_Unique(t *testing.T) {
	a := NewAllocator(csprng.NewSystemRNG())

	const trials = 1000
	offsets := make(chan Offset, trials)
	wg := sync.WaitGroup{}
	for i := 0; i < trials; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := a.Allocate()
			if err != nil {
				t.Errorf("Allocate returned an error: %+v", err)
				return
			}
			offsets <- o
		}()
	}
	wg.Wait()
	close(offsets)

	seen := make(map[Offset]struct{}, trials)
	for o := range offsets {
		if _, ok := seen[o]; ok {
			t.Errorf("Offset %s allocated twice", o)
		}
		seen[o] = struct{}{}
	}
	if len(seen) != trials {
		t.Errorf("Expected %d offsets, received %d", trials, len(seen))
	}
}

// Error path
func TestAllocator_Allocate_ShortRead(t *testing.T) {
	a := NewAllocator(bytes.NewReader([]byte{1, 2, 3}))
	if _, err := a.Allocate(); err == nil {
		t.Errorf("Expected an error on a short read")
	}
}

func TestOffset_Bytes(t *testing.T) {
	o := Offset(0x0102030405060708)
	expected := []byte{8, 7, 6, 5, 4, 3, 2, 1}
	if !bytes.Equal(o.Bytes(), expected) {
		t.Errorf("Offset encoded incorrectly\n\treceived: %v\n\texpected: %v",
			o.Bytes(), expected)
	}

	decoded, err := OffsetFromBytes(expected)
	if err != nil {
		t.Fatalf("OffsetFromBytes returned an error: %+v", err)
	}
	if decoded != o {
		t.Errorf("Decoded %s, expected %s", decoded, o)
	}

	if _, err = OffsetFromBytes(expected[:4]); err == nil {
		t.Errorf("Expected an error decoding a short offset")
	}
}

// Tests that definition offsets are stable and name dependent
func TestDefinitionOffset(t *testing.T) {
	a := DefinitionOffset("share_patient_data")
	if a != DefinitionOffset("share_patient_data") {
		t.Errorf("DefinitionOffset is not deterministic")
	}
	if a == DefinitionOffset("share_bid_data") {
		t.Errorf("Different names should give different offsets")
	}
}

func TestStatus_String(t *testing.T) {
	expected := []string{"QUEUED", "EXECUTING", "FINALIZED", "ABORTED"}
	for s := QUEUED; s < NUM_STATUS; s++ {
		if s.String() != expected[s] {
			t.Errorf("Status %d printed as %s, expected %s", s, s, expected[s])
		}
	}
	if !FINALIZED.IsTerminal() || !ABORTED.IsTerminal() || QUEUED.IsTerminal() {
		t.Errorf("IsTerminal is incorrect")
	}
}
