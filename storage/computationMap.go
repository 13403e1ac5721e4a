////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

// Handles the Map backend for computation storage

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// InsertComputation inserts a copy of the record, or returns ErrDuplicate
// if a record with the same address exists
func (m *MapImpl) InsertComputation(c *Computation) error {
	m.Lock()
	defer m.Unlock()

	key := string(c.Address)
	if _, ok := m.computations[key]; ok {
		return errors.Wrapf(ErrDuplicate, "computation at offset %d", c.Offset)
	}

	stored := &Computation{}
	err := copier.CopyWithOption(stored, c, copier.Option{DeepCopy: true})
	if err != nil {
		return errors.Wrap(err, "could not copy computation")
	}
	now := time.Now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.computations[key] = stored
	return nil
}

// GetComputation returns a copy of the record at address or ErrNotFound
func (m *MapImpl) GetComputation(address []byte) (*Computation, error) {
	m.RLock()
	defer m.RUnlock()

	val, ok := m.computations[string(address)]
	if !ok {
		return nil, ErrNotFound
	}
	out := &Computation{}
	err := copier.CopyWithOption(out, val, copier.Option{DeepCopy: true})
	if err != nil {
		return nil, errors.Wrap(err, "could not copy computation")
	}
	return out, nil
}

// UpdateComputation sets the status fields of the record at address
func (m *MapImpl) UpdateComputation(address []byte, status uint32,
	reason, signature string) error {
	m.Lock()
	defer m.Unlock()

	val, ok := m.computations[string(address)]
	if !ok {
		return ErrNotFound
	}
	val.Status = status
	val.Reason = reason
	val.Signature = signature
	val.UpdatedAt = time.Now()
	return nil
}

// InsertDefinition inserts the definition, or returns ErrDuplicate if it
// already exists
func (m *MapImpl) InsertDefinition(d *Definition) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.definitions[d.Offset]; ok {
		return errors.Wrapf(ErrDuplicate, "definition %d", d.Offset)
	}
	stored := *d
	m.definitions[d.Offset] = &stored
	return nil
}

// GetDefinition returns a copy of the definition at offset or ErrNotFound
func (m *MapImpl) GetDefinition(offset uint32) (*Definition, error) {
	m.RLock()
	defer m.RUnlock()

	val, ok := m.definitions[offset]
	if !ok {
		return nil, ErrNotFound
	}
	out := *val
	return &out, nil
}

// FinalizeDefinition marks the definition at offset as finalized
func (m *MapImpl) FinalizeDefinition(offset uint32) error {
	m.Lock()
	defer m.Unlock()

	val, ok := m.definitions[offset]
	if !ok {
		return ErrNotFound
	}
	val.Finalized = true
	return nil
}
