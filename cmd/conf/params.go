////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/veil/io"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/xx_network/crypto/large"
)

const (
	defaultDefinition = "share_patient_data"
	defaultLogPath    = "./veil.log"
)

// Params holds the configuration of a veil run.
// It should be constructed using a viper object
type Params struct {
	Program       ledger.Address
	Definition    string
	Event         string
	EngineKeyPath string

	Parties  []Party
	Waiter   io.WaiterParams
	Engine   Engine
	Database Database

	LogPath string
	DevMode bool
}

// Party is one participant and the record it shares
type Party struct {
	Payer  ledger.Address
	Record []*large.Int
}

// Database holds the connection of the computation store. An empty address
// keeps records in memory in dev mode.
type Database struct {
	Name     string
	Username string
	Password string
	Address  string
	Port     string
}

// Engine configures the local engine
type Engine struct {
	ExecRate  float64
	Burst     int
	ExecDelay time.Duration
	Workers   int
}

type partyConfig struct {
	Payer    string
	ID       uint64
	Quantity uint64
}

// NewParams gets elements of the viper object and builds the params
// object. It returns an error if a required key is missing or malformed.
func NewParams(vip *viper.Viper) (*Params, error) {
	var err error
	params := Params{}

	program := vip.GetString("program")
	if program == "" {
		return nil, errors.New("program must be set in params")
	}
	if params.Program, err = ledger.ParseAddress(program); err != nil {
		return nil, errors.WithMessage(err, "invalid program")
	}

	params.Definition = vip.GetString("definition")
	if params.Definition == "" {
		params.Definition = defaultDefinition
	}
	params.Event = vip.GetString("event")
	if params.Event == "" {
		params.Event = ledger.EventShareResult
	}
	params.EngineKeyPath = vip.GetString("engine.keyPath")

	var parties []partyConfig
	if err = vip.UnmarshalKey("parties", &parties); err != nil {
		return nil, errors.Wrap(err, "could not parse parties")
	}
	if len(parties) == 0 {
		return nil, errors.New("at least one party must be set in params")
	}
	for i, p := range parties {
		payer, err := ledger.ParseAddress(p.Payer)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid payer of party %d", i)
		}
		params.Parties = append(params.Parties, Party{
			Payer: payer,
			Record: []*large.Int{large.NewIntFromUInt(p.ID),
				large.NewIntFromUInt(p.Quantity)},
		})
	}

	params.Waiter = io.DefaultWaiterParams()
	if d := vip.GetDuration("waiter.pollInterval"); d > 0 {
		params.Waiter.PollInterval = d
	}
	if d := vip.GetDuration("waiter.timeout"); d > 0 {
		params.Waiter.Timeout = d
	}
	if d := vip.GetDuration("waiter.maxBackoff"); d > 0 {
		params.Waiter.MaxBackoff = d
	}

	params.Engine.ExecRate = vip.GetFloat64("engine.execRate")
	params.Engine.Burst = vip.GetInt("engine.burst")
	params.Engine.ExecDelay = vip.GetDuration("engine.execDelay")
	params.Engine.Workers = vip.GetInt("engine.workers")

	// Obtain database connection info
	rawAddr := vip.GetString("database.address")
	var addr, port string
	if rawAddr != "" {
		addr, port, err = net.SplitHostPort(rawAddr)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to get database port "+
				"from %s", rawAddr)
		}
	}
	params.Database.Name = vip.GetString("database.name")
	params.Database.Username = vip.GetString("database.username")
	params.Database.Password = vip.GetString("database.password")
	params.Database.Address = addr
	params.Database.Port = port

	params.LogPath = vip.GetString("log")
	if params.LogPath == "" {
		params.LogPath = defaultLogPath
	}
	params.DevMode = vip.GetBool("devMode")

	return &params, nil
}
