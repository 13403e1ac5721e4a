////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package localnet is an in-process coordination layer. It implements
// ledger.Ledger over the storage package and simulates the MPC engine that
// executes queued share computations, so the client can be run and tested
// without a chain.
package localnet

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/elixxir/veil/storage"
	"gitlab.com/xx_network/crypto/csprng"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"
)

const signatureLen = 64

var pdaMarker = []byte("ProgramDerivedAddress")

// Config configures a Cluster. Zero values select defaults.
type Config struct {
	// Program owning every derived account
	Program ledger.Address
	// Key pair of the engine; generated when nil
	EngineKey *cryptops.KeyPair
	// Executions per second; unlimited when zero
	ExecRate float64
	// Burst of the execution rate limiter
	Burst int
	// Simulated computation latency
	ExecDelay time.Duration
	// Number of engine workers
	Workers int
	// Capacity of the mempool
	MempoolSize int
	// Capacity of each event subscription
	EventBuffer int
	// Backend for accounts; in-memory when nil
	Storage *storage.Storage
	// Randomness for keys and signatures; the system CSPRNG when nil
	RNG csprng.Source
}

// Cluster is the in-process coordination layer
type Cluster struct {
	program ledger.Address
	engine  *cryptops.KeyPair
	store   *storage.Storage
	rng     csprng.Source
	rngMux  sync.Mutex
	limiter *rate.Limiter
	delay   time.Duration
	workers int

	events  *eventBus
	mempool chan *job

	// number of upcoming GetComputation calls to fail
	failReads int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Cluster. Call Start to run the engine.
func New(cfg Config) (*Cluster, error) {
	if cfg.RNG == nil {
		cfg.RNG = csprng.NewSystemRNG()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MempoolSize <= 0 {
		cfg.MempoolSize = 256
	}
	if cfg.Storage == nil {
		cfg.Storage = storage.NewMapStorage()
	}

	limit := rate.Inf
	if cfg.ExecRate > 0 {
		limit = rate.Limit(cfg.ExecRate)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	engine := cfg.EngineKey
	if engine == nil {
		var err error
		engine, err = cryptops.GenerateKeyPair(cfg.RNG)
		if err != nil {
			return nil, errors.WithMessage(err, "could not generate engine key")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cluster{
		program: cfg.Program,
		engine:  engine,
		store:   cfg.Storage,
		rng:     cfg.RNG,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		delay:   cfg.ExecDelay,
		workers: cfg.Workers,
		events:  newEventBus(cfg.EventBuffer),
		mempool: make(chan *job, cfg.MempoolSize),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start runs the engine workers
func (c *Cluster) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.execute(i)
	}
	jww.INFO.Printf("Local cluster started with %d engine workers, engine "+
		"key %s", c.workers, c.engine.Public)
}

// Stop halts the engine workers and waits for them to exit. Queued
// computations are left in place.
func (c *Cluster) Stop() {
	c.cancel()
	c.wg.Wait()
	jww.INFO.Printf("Local cluster stopped")
}

// EnginePublicKey is the known public point clients exchange keys with
func (c *Cluster) EnginePublicKey() cryptops.PublicKey {
	return c.engine.Public
}

// FailReads makes the next n GetComputation calls fail as a flaky RPC
// endpoint would
func (c *Cluster) FailReads(n int32) {
	atomic.StoreInt32(&c.failReads, n)
}

// Call dispatches a program method
func (c *Cluster) Call(ctx context.Context, method string,
	args []ledger.Argument, accounts ledger.Accounts) (ledger.Signature, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if accounts[ledger.AccountPayer].IsZero() {
		return "", errors.Wrapf(computation.ErrSubmissionRejected,
			"%s: missing payer signature", method)
	}

	var err error
	switch method {
	case ledger.MethodInitDefinition:
		err = c.initDefinition(args, accounts)
	case ledger.MethodFinalizeDefinition:
		err = c.finalizeDefinition(args)
	case ledger.MethodQueueComputation:
		err = c.queue(args, accounts)
	default:
		err = errors.Wrapf(computation.ErrSubmissionRejected,
			"unknown method %q", method)
	}
	if err != nil {
		return "", err
	}
	return c.newSignature()
}

// DeriveAddress hashes the seeds with the program into an address
func (c *Cluster) DeriveAddress(program ledger.Address,
	seeds ...[]byte) (ledger.Address, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return ledger.Address{}, errors.Wrap(err, "could not build hash")
	}
	for _, s := range seeds {
		if len(s) > ledger.AddressLen {
			return ledger.Address{}, errors.Errorf("seed of %d bytes exceeds "+
				"the maximum of %d", len(s), ledger.AddressLen)
		}
		h.Write(s)
	}
	h.Write(program[:])
	h.Write(pdaMarker)

	return ledger.NewAddress(h.Sum(nil))
}

// Subscribe opens a subscription to the named event
func (c *Cluster) Subscribe(ctx context.Context,
	event string) (ledger.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.events.subscribe(ctx, event), nil
}

// GetComputation reads the computation account at address
func (c *Cluster) GetComputation(ctx context.Context,
	address ledger.Address) (*ledger.ComputationAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for {
		n := atomic.LoadInt32(&c.failReads)
		if n <= 0 {
			break
		}
		if atomic.CompareAndSwapInt32(&c.failReads, n, n-1) {
			return nil, errors.New("connection reset by peer")
		}
	}

	record, err := c.store.GetComputation(address[:])
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errors.Wrapf(ledger.ErrAccountNotFound, "%s", address)
	} else if err != nil {
		return nil, err
	}

	payer, err := ledger.NewAddress(record.Payer)
	if err != nil {
		return nil, errors.WithMessage(err, "stored payer is corrupt")
	}
	return &ledger.ComputationAccount{
		Offset:     record.GetOffset(),
		Definition: record.Definition,
		Payer:      payer,
		Status:     record.GetStatus(),
		Reason:     record.Reason,
		Signature:  ledger.Signature(record.Signature),
	}, nil
}

func (c *Cluster) newSignature() (ledger.Signature, error) {
	b := make([]byte, signatureLen)
	c.rngMux.Lock()
	_, err := c.rng.Read(b)
	c.rngMux.Unlock()
	if err != nil {
		return "", errors.Wrap(err, "could not generate signature")
	}
	return ledger.Signature(base58.Encode(b)), nil
}
