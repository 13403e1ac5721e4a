////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

// Handles low level database control and interfaces

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DbTimeout determines maximum runtime (in seconds) of specific DB queries
const DbTimeout = 1

// Interface declaration for storage methods
type database interface {
	InsertComputation(c *Computation) error
	GetComputation(address []byte) (*Computation, error)
	UpdateComputation(address []byte, status uint32, reason, signature string) error

	InsertDefinition(d *Definition) error
	GetDefinition(offset uint32) (*Definition, error)
	FinalizeDefinition(offset uint32) error
}

// DatabaseImpl Struct implementing the database Interface with an underlying DB
type DatabaseImpl struct {
	db *gorm.DB // Stored database connection
}

// MapImpl Struct implementing the database Interface with an underlying Map
type MapImpl struct {
	computations map[string]*Computation
	definitions  map[uint32]*Definition
	sync.RWMutex
}

// Computation is the coordination layer's record of one computation,
// keyed by the address derived from its offset
type Computation struct {
	Address    []byte `gorm:"primaryKey"`
	Offset     uint64 `gorm:"column:computation_offset;not null;index"`
	Definition uint32 `gorm:"not null"`
	Payer      []byte `gorm:"not null"`
	Status     uint32 `gorm:"not null"`

	// Set when the computation aborted
	Reason string
	// Signature of the finalizing transaction
	Signature string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Definition is a computation definition account. It must be finalized
// before computations of its kind are queued.
type Definition struct {
	Offset    uint32 `gorm:"column:definition_offset;primaryKey;autoIncrement:false"`
	Name      string `gorm:"not null"`
	Finalized bool   `gorm:"not null"`
}

func newMapImpl() *MapImpl {
	return &MapImpl{
		computations: make(map[string]*Computation),
		definitions:  make(map[uint32]*Definition),
	}
}

// Initialize the database interface with database backend
// Returns a database interface and error
func newDatabase(username, password, dbName, address, port string,
	devMode bool) (database, error) {
	var err error
	var db *gorm.DB

	// Connect to the database if the correct information is provided
	if address != "" && port != "" {
		// Create the database connection
		connectString := fmt.Sprintf(
			"host=%s port=%s user=%s dbname=%s sslmode=disable",
			address, port, username, dbName)
		// Handle empty database password
		if len(password) > 0 {
			connectString += fmt.Sprintf(" password=%s", password)
		}
		db, err = gorm.Open(postgres.Open(connectString), &gorm.Config{
			Logger: logger.New(jww.TRACE, logger.Config{LogLevel: logger.Info}),
		})
	}

	// Return the map-backend interface
	// in the event there is a database error or information is not provided
	if (address == "" || port == "") || err != nil {

		var failReason string
		if err != nil {
			failReason = fmt.Sprintf("Unable to initialize database backend: %+v", err)
			jww.WARN.Printf(failReason)
		} else {
			failReason = "Database backend connection information not provided"
			jww.WARN.Printf(failReason)
		}

		if !devMode {
			return nil, errors.Errorf("Cannot run in production "+
				"without a database: %s", failReason)
		}

		defer jww.INFO.Println("Map backend initialized successfully!")
		return database(newMapImpl()), nil
	}

	// Get and configure the internal database ConnPool
	sqlDb, err := db.DB()
	if err != nil {
		return nil, errors.Errorf("Unable to configure database connection pool: %+v", err)
	}
	sqlDb.SetMaxIdleConns(10)
	sqlDb.SetMaxOpenConns(100)
	sqlDb.SetConnMaxLifetime(24 * time.Hour)

	// Initialize the database schema
	// WARNING: Order is important. Do not change without database testing
	models := []interface{}{&Definition{}, &Computation{}}
	for _, model := range models {
		err = db.AutoMigrate(model)
		if err != nil {
			return nil, err
		}
	}

	jww.INFO.Println("Database backend initialized successfully!")
	return database(&DatabaseImpl{db: db}), nil
}
