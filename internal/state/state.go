////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package state holds the lifecycle state machine of one computation. It
// defines which status transitions are allowable and persists each one
// through a change hook.
//
//	QUEUED -> EXECUTING -> FINALIZED
//	   |          |
//	   +----------+-----> ABORTED
package state

import (
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
)

// Change is called with the previous status before every transition is
// committed, under the machine's lock. An error refuses the transition. It
// must operate quickly and cannot update the machine itself without
// deadlocking.
type Change func(from, to computation.Status) error

// Machine is the core state machine object
type Machine struct {
	status computation.Status
	mux    sync.RWMutex

	// holds valid status transitions
	stateMap [][]bool

	onChange Change
}

// NewMachine builds a machine in the QUEUED status. onChange may be nil.
func NewMachine(onChange Change) *Machine {
	m := &Machine{
		status:   computation.QUEUED,
		stateMap: make([][]bool, computation.NUM_STATUS),
		onChange: onChange,
	}

	for i := 0; i < int(computation.NUM_STATUS); i++ {
		m.stateMap[i] = make([]bool, computation.NUM_STATUS)
	}

	m.addStateTransition(computation.QUEUED, computation.EXECUTING, computation.ABORTED)
	m.addStateTransition(computation.EXECUTING, computation.FINALIZED, computation.ABORTED)

	return m
}

// adds a state transition to the state object
func (m *Machine) addStateTransition(from computation.Status, to ...computation.Status) {
	for _, t := range to {
		m.stateMap[from][t] = true
	}
}

// Update moves to next if the transition is valid from the current status
// and the change hook accepts it. Returns an error explaining why the update
// could not be done, in which case the status is unchanged.
func (m *Machine) Update(next computation.Status) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if !m.stateMap[m.status][next] {
		return errors.Errorf("not a valid status change from %s to %s",
			m.status, next)
	}

	from := m.status
	if m.onChange != nil {
		if err := m.onChange(from, next); err != nil {
			return errors.WithMessagef(err, "status change from %s to %s "+
				"failed", from, next)
		}
	}
	m.status = next
	jww.DEBUG.Printf("Computation status updated from %s to %s", from, next)
	return nil
}

// Get returns the current status under a read lock
func (m *Machine) Get() computation.Status {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.status
}
