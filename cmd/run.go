////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/client"
	"gitlab.com/elixxir/veil/cmd/conf"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/internal/measure"
	"gitlab.com/elixxir/veil/localnet"
	"gitlab.com/elixxir/veil/storage"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/primitives/utils"
	"golang.org/x/sync/errgroup"
)

// Run starts a local cluster, shares every configured party's record
// concurrently and logs the opened results
func Run(ctx context.Context, params *conf.Params) error {
	store, err := storage.NewStorage(params.Database.Username,
		params.Database.Password, params.Database.Name,
		params.Database.Address, params.Database.Port, params.DevMode)
	if err != nil {
		return errors.WithMessage(err, "could not open storage")
	}

	engineKey, err := loadEngineKey(params.EngineKeyPath)
	if err != nil {
		return err
	}

	cluster, err := localnet.New(localnet.Config{
		Program:   params.Program,
		EngineKey: engineKey,
		ExecRate:  params.Engine.ExecRate,
		Burst:     params.Engine.Burst,
		ExecDelay: params.Engine.ExecDelay,
		Workers:   params.Engine.Workers,
		Storage:   store,
	})
	if err != nil {
		return err
	}
	cluster.Start()
	defer cluster.Stop()

	if _, err = client.InitDefinition(ctx, cluster, params.Program,
		params.Definition, params.Parties[0].Payer); err != nil {
		return err
	}

	session, err := client.NewSession(ctx, cluster, client.Params{
		Program:    params.Program,
		Definition: params.Definition,
		Event:      params.Event,
		Waiter:     params.Waiter,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	g, gctx := errgroup.WithContext(ctx)
	for i, party := range params.Parties {
		i, party := i, party
		g.Go(func() error {
			p, err := session.NewParty(cluster.EnginePublicKey(), party.Payer)
			if err != nil {
				return errors.WithMessagef(err, "party %d", i)
			}
			defer p.Destroy()

			result, err := p.Share(gctx, party.Record)
			if err != nil {
				return errors.WithMessagef(err, "party %d", i)
			}

			jww.INFO.Printf("Party %d result of computation %s (signature "+
				"%s):", i, result.Offset, result.Signature)
			for j, f := range result.Fields {
				jww.INFO.Printf("\tfield %d: %s", j, f.Text(10))
			}
			if d, ok := result.Metrics.Elapsed(measure.TagSubmit,
				measure.TagFinalized); ok {
				jww.INFO.Printf("Party %d computation finalized %s after "+
					"submission", i, d)
			}
			return nil
		})
	}
	return g.Wait()
}

// loadEngineKey reads the engine key pair at path, or generates a fresh one
// when no path is configured or the file does not exist
func loadEngineKey(path string) (*cryptops.KeyPair, error) {
	if path != "" && utils.Exists(path) {
		jww.INFO.Printf("Loading engine key from %s", path)
		return conf.LoadKeyPair(path)
	}
	jww.INFO.Printf("Generating an engine key for this run")
	return cryptops.GenerateKeyPair(csprng.NewSystemRNG())
}
