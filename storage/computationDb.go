////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

// Handles the database ORM for computations and definitions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/gorm"
)

// Helper for forcing panics in the event of a CDE, otherwise acts as a pass-through
func catchCde(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		jww.FATAL.Panicf("Database call timed out: %+v", err.Error())
	}
	return err
}

// InsertComputation inserts the record, or returns ErrDuplicate if a record
// with the same address exists
func (d *DatabaseImpl) InsertComputation(c *Computation) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	query := d.db.WithContext(ctx).
		Where(&Computation{Address: c.Address}).
		FirstOrCreate(c)
	if query.Error != nil {
		return catchCde(query.Error)
	}
	if query.RowsAffected == 0 {
		return errors.Wrapf(ErrDuplicate, "computation at offset %d", c.Offset)
	}
	return nil
}

// GetComputation returns the record at address or ErrNotFound
func (d *DatabaseImpl) GetComputation(address []byte) (*Computation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	result := &Computation{}
	err := d.db.WithContext(ctx).Where("address = ?", address).Take(result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return result, catchCde(err)
}

// UpdateComputation sets the status fields of the record at address
func (d *DatabaseImpl) UpdateComputation(address []byte, status uint32,
	reason, signature string) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	query := d.db.WithContext(ctx).Model(&Computation{}).
		Where("address = ?", address).
		Updates(map[string]interface{}{
			"status":    status,
			"reason":    reason,
			"signature": signature,
		})
	if query.Error != nil {
		return catchCde(query.Error)
	}
	if query.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertDefinition inserts the definition, or returns ErrDuplicate if it
// already exists
func (d *DatabaseImpl) InsertDefinition(def *Definition) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	query := d.db.WithContext(ctx).
		Where(&Definition{Offset: def.Offset}).
		FirstOrCreate(def)
	if query.Error != nil {
		return catchCde(query.Error)
	}
	if query.RowsAffected == 0 {
		return errors.Wrapf(ErrDuplicate, "definition %d", def.Offset)
	}
	return nil
}

// GetDefinition returns the definition at offset or ErrNotFound
func (d *DatabaseImpl) GetDefinition(offset uint32) (*Definition, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	result := &Definition{}
	err := d.db.WithContext(ctx).Where("definition_offset = ?", offset).Take(result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return result, catchCde(err)
}

// FinalizeDefinition marks the definition at offset as finalized
func (d *DatabaseImpl) FinalizeDefinition(offset uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	query := d.db.WithContext(ctx).Model(&Definition{}).
		Where("definition_offset = ?", offset).
		Update("finalized", true)
	if query.Error != nil {
		return catchCde(query.Error)
	}
	if query.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
