// Package session implements the controller that orchestrates wallet
// detection, connection and synchronization of the shared gif list.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/AlexZinkM/emotes-portal/internal/client"
	"github.com/AlexZinkM/emotes-portal/internal/keys"
	"github.com/AlexZinkM/emotes-portal/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	opStart      = "start"
	opConnect    = "connect"
	opBuild      = "build client"
	opFetch      = "fetch"
	opSubmit     = "submit"
	opInitialize = "initialize"
)

// Wallet is what the controller needs from the wallet adapter
type Wallet interface {
	Probe() bool
	SilentConnect(ctx context.Context) (solana.PublicKey, bool, error)
	Connect(ctx context.Context) (solana.PublicKey, error)
}

// AccountClient is the remote account client bound to a connected session
type AccountClient interface {
	InitializeAccount(ctx context.Context, base keys.BaseAccount) error
	FetchAccount(ctx context.Context, base keys.BaseAccount) ([]string, error)
	AppendEntry(ctx context.Context, base keys.BaseAccount, value string) error
}

// ClientBuilder derives an AccountClient from a connected session
type ClientBuilder func(session wallet.Session) (AccountClient, error)

// Option customizes a Controller
type Option func(*Controller)

// WithFixture replaces the static list shown before any remote state exists.
func WithFixture(gifs []string) Option {
	return func(c *Controller) { c.fixture = slices.Clone(gifs) }
}

// Controller owns the wallet session, the gif list and the input buffer.
// State changes only through its methods; fetch results are applied only
// if no newer fetch was triggered in the meantime.
type Controller struct {
	wallet  Wallet
	build   ClientBuilder
	base    keys.BaseAccount
	fixture []string
	log     *zap.Logger

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu          sync.Mutex
	state       State
	client      AccountClient
	fetchGen    uint64
	cancelFetch context.CancelFunc
}

// New creates a controller for the given base account.
func New(w Wallet, build ClientBuilder, base keys.BaseAccount, logger *zap.Logger, opts ...Option) *Controller {
	root, stop := context.WithCancel(context.Background())
	c := &Controller{
		wallet:  w,
		build:   build,
		base:    base,
		fixture: TestGifs,
		log:     logger.Named("session"),
		root:    root,
		stop:    stop,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state = State{
		Phase:      PhaseUnknown,
		ListStatus: ListIdle,
		ListSource: SourceFixture,
		Gifs:       slices.Clone(c.fixture),
	}
	return c
}

// BaseAccount returns the address of the shared on-chain account.
func (c *Controller) BaseAccount() solana.PublicKey {
	return c.base.PublicKey()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Start runs the startup sequence once: probe the wallet, then try a silent
// connect. Failures are recorded in the state; the returned error only
// reports misuse.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Phase != PhaseUnknown {
		c.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	if !c.wallet.Probe() {
		c.state.Phase = PhaseNoWallet
		c.mu.Unlock()
		c.log.Info("no wallet provider detected")
		return nil
	}
	c.state.Phase = PhaseWalletDetected
	c.state.Wallet.Presence = true
	c.mu.Unlock()

	identity, connected, err := c.wallet.SilentConnect(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	// An explicit Connect may have finished while the silent attempt was pending
	if c.state.Phase != PhaseWalletDetected {
		c.log.Debug("dropping silent connect result", zap.String("phase", string(c.state.Phase)))
		return nil
	}
	if err != nil {
		c.setFailureLocked(opStart, FailureWalletFault, err)
		return nil
	}
	if !connected {
		c.state.Phase = PhaseUntrusted
		c.log.Info("wallet does not trust this origin yet")
		return nil
	}
	c.enterConnectedLocked(identity)
	return nil
}

// Connect performs an explicit connection. On rejection the phase is left
// unchanged and the error is returned and recorded. Calling it while
// connected reconnects and triggers a fresh fetch.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	phase := c.state.Phase
	c.mu.Unlock()

	if phase == PhaseUnknown || phase == PhaseNoWallet {
		return c.fail(opConnect, wallet.ErrProviderAbsent)
	}

	identity, err := c.wallet.Connect(ctx)
	if err != nil {
		return c.fail(opConnect, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Failure = nil
	c.enterConnectedLocked(identity)
	return nil
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Input = value
}

// Submit appends the input buffer to the remote list and then refetches.
// The local list is never edited ahead of the remote result, and the input
// buffer is left as is.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	value := c.state.Input
	accountClient := c.client
	connected := c.state.Phase == PhaseConnected
	c.mu.Unlock()

	if strings.TrimSpace(value) == "" {
		return c.fail(opSubmit, fmt.Errorf("%w: gif link is empty", ErrValidation))
	}
	if !connected || accountClient == nil {
		return c.fail(opSubmit, wallet.ErrNotConnected)
	}

	if err := accountClient.AppendEntry(ctx, c.base, value); err != nil {
		return c.fail(opSubmit, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Failure = nil
	c.triggerFetchLocked()
	return nil
}

// Initialize creates the base account and refetches. An account that
// already exists is reported but still refetched.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	accountClient := c.client
	connected := c.state.Phase == PhaseConnected
	c.mu.Unlock()

	if !connected || accountClient == nil {
		return c.fail(opInitialize, wallet.ErrNotConnected)
	}

	err := accountClient.InitializeAccount(ctx, c.base)
	if err != nil && !errors.Is(err, client.ErrAlreadyExists) {
		return c.fail(opInitialize, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setFailureLocked(opInitialize, KindOf(err), err)
	} else {
		c.state.Failure = nil
	}
	c.triggerFetchLocked()
	return err
}

// Wait blocks until in-flight fetches have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight fetches and waits for them.
func (c *Controller) Close() {
	c.stop()
	c.wg.Wait()
}

func (c *Controller) enterConnectedLocked(identity solana.PublicKey) {
	c.state.Phase = PhaseConnected
	c.state.Wallet.Trusted = true
	c.state.Wallet.PublicKey = &identity
	if c.state.Failure != nil && c.state.Failure.Op == opStart {
		c.state.Failure = nil
	}
	c.log.Info("wallet session connected", zap.Stringer("publicKey", identity))

	accountClient, err := c.build(c.state.Wallet)
	if err != nil {
		c.client = nil
		c.invalidateFetchLocked()
		c.state.ListStatus = ListUnavailable
		c.state.ListSource = SourceNone
		c.state.Gifs = []string{}
		c.setFailureLocked(opBuild, KindOf(err), err)
		return
	}
	c.client = accountClient
	c.triggerFetchLocked()
}

// invalidateFetchLocked makes any in-flight fetch stale
func (c *Controller) invalidateFetchLocked() uint64 {
	c.fetchGen++
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	return c.fetchGen
}

// triggerFetchLocked starts exactly one fetch and supersedes the previous one.
func (c *Controller) triggerFetchLocked() {
	gen := c.invalidateFetchLocked()
	ctx, cancel := context.WithCancel(c.root)
	c.cancelFetch = cancel
	c.state.ListStatus = ListLoading

	accountClient := c.client
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		links, err := accountClient.FetchAccount(ctx, c.base)
		c.applyFetch(gen, links, err)
	}()
}

func (c *Controller) applyFetch(gen uint64, links []string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.fetchGen {
		c.log.Debug("discarding stale fetch result", zap.Uint64("generation", gen), zap.Uint64("current", c.fetchGen))
		return
	}
	c.cancelFetch = nil

	if err != nil {
		c.state.ListStatus = ListUnavailable
		c.state.ListSource = SourceNone
		c.state.Gifs = []string{}
		c.setFailureLocked(opFetch, KindOf(err), err)
		return
	}

	c.state.ListStatus = ListReady
	c.state.ListSource = SourceRemote
	c.state.Gifs = slices.Clone(links)
	if c.state.Gifs == nil {
		c.state.Gifs = []string{}
	}
	if c.state.Failure != nil && c.state.Failure.Op == opFetch {
		c.state.Failure = nil
	}
	c.log.Info("gif list loaded", zap.Int("count", len(links)))
}

func (c *Controller) fail(op string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFailureLocked(op, KindOf(err), err)
	return err
}

func (c *Controller) setFailureLocked(op string, kind FailureKind, err error) {
	c.state.Failure = &Failure{Op: op, Kind: kind, Err: err}
	c.log.Warn("session operation failed", zap.String("op", op), zap.String("kind", string(kind)), zap.Error(err))
}
