////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package storage handles persistence of the coordination layer's accounts:
// computation records and computation definitions. It merges the business
// logic layer and the database layer.
package storage

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/veil/computation"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a record with the same key already exists
var ErrDuplicate = errors.New("record already exists")

// Storage API for the storage layer
type Storage struct {
	// Stored database interface
	database
}

// NewStorage creates a new Storage object wrapping a database interface.
// Without connection information, and in dev mode only, it falls back to
// an in-memory map.
func NewStorage(username, password, dbName, address, port string,
	devMode bool) (*Storage, error) {
	db, err := newDatabase(username, password, dbName, address, port, devMode)
	storage := &Storage{db}
	return storage, err
}

// NewMapStorage creates a Storage backed only by memory
func NewMapStorage() *Storage {
	return &Storage{newMapImpl()}
}

// GetStatus returns the record's status as a computation.Status
func (c *Computation) GetStatus() computation.Status {
	return computation.Status(c.Status)
}

// GetOffset returns the record's offset as a computation.Offset
func (c *Computation) GetOffset() computation.Offset {
	return computation.Offset(c.Offset)
}
