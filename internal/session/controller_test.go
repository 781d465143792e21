package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AlexZinkM/emotes-portal/internal/client"
	"github.com/AlexZinkM/emotes-portal/internal/keys"
	"github.com/AlexZinkM/emotes-portal/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Identities used by the scenarios. Any 32 bytes make a valid public key.
var (
	pub123 = namedKey("Pub123")
	pub456 = namedKey("Pub456")
)

func namedKey(name string) solana.PublicKey {
	var b [32]byte
	copy(b[:], name)
	return solana.PublicKeyFromBytes(b[:])
}

type fakeWallet struct {
	present    bool
	trusted    bool
	identity   solana.PublicKey
	silentErr  error
	connectErr error
	connects   int

	// when set, SilentConnect signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeWallet) Probe() bool { return f.present }

func (f *fakeWallet) SilentConnect(context.Context) (solana.PublicKey, bool, error) {
	if f.release != nil {
		close(f.entered)
		<-f.release
	}
	if f.silentErr != nil {
		return solana.PublicKey{}, false, f.silentErr
	}
	if !f.trusted {
		return solana.PublicKey{}, false, nil
	}
	return f.identity, true, nil
}

func (f *fakeWallet) Connect(context.Context) (solana.PublicKey, error) {
	f.connects++
	if f.connectErr != nil {
		return solana.PublicKey{}, f.connectErr
	}
	return f.identity, nil
}

type fetchResult struct {
	links []string
	err   error
}

// fakeAccounts answers fetches from a queue; a nil gate answers immediately.
type fakeAccounts struct {
	mu       sync.Mutex
	fetches  int
	appends  []string
	inits    int
	results  []fetchResult
	gates    []chan struct{}
	initErr  error
	appendEr error
}

func (f *fakeAccounts) InitializeAccount(context.Context, keys.BaseAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return f.initErr
}

func (f *fakeAccounts) FetchAccount(ctx context.Context, _ keys.BaseAccount) ([]string, error) {
	f.mu.Lock()
	i := f.fetches
	f.fetches++
	var gate chan struct{}
	if i < len(f.gates) {
		gate = f.gates[i]
	}
	res := fetchResult{links: []string{}}
	if i < len(f.results) {
		res = f.results[i]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return res.links, res.err
}

func (f *fakeAccounts) AppendEntry(_ context.Context, _ keys.BaseAccount, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendEr != nil {
		return f.appendEr
	}
	f.appends = append(f.appends, value)
	return nil
}

func (f *fakeAccounts) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newController(t *testing.T, w *fakeWallet, accounts *fakeAccounts) *Controller {
	t.Helper()
	build := func(s wallet.Session) (AccountClient, error) {
		require.True(t, s.Connected())
		return accounts, nil
	}
	c := New(w, build, keys.BaseAccount{PrivateKey: solana.NewWallet().PrivateKey}, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func TestInitialStateShowsFixture(t *testing.T) {
	c := newController(t, &fakeWallet{}, &fakeAccounts{})
	s := c.Snapshot()
	assert.Equal(t, PhaseUnknown, s.Phase)
	assert.Equal(t, SourceFixture, s.ListSource)
	assert.Equal(t, TestGifs, s.Gifs)
}

func TestProviderAbsentSettlesAtNoWallet(t *testing.T) {
	w := &fakeWallet{}
	accounts := &fakeAccounts{}
	c := newController(t, w, accounts)

	require.NoError(t, c.Start(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, PhaseNoWallet, s.Phase)
	assert.False(t, s.Wallet.Presence)

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, wallet.ErrProviderAbsent)
	assert.Zero(t, w.connects)
	s = c.Snapshot()
	assert.Equal(t, PhaseNoWallet, s.Phase)
	require.NotNil(t, s.Failure)
	assert.Equal(t, FailureProviderAbsent, s.Failure.Kind)
	assert.Zero(t, accounts.fetchCount())
}

func TestTrustedWalletConnectsAndLoadsList(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{results: []fetchResult{{links: []string{"gifA.gif", "gifB.gif"}}}}
	c := newController(t, w, accounts)

	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, PhaseConnected, s.Phase)
	require.NotNil(t, s.Wallet.PublicKey)
	assert.Equal(t, pub123, *s.Wallet.PublicKey)
	assert.Equal(t, ListReady, s.ListStatus)
	assert.Equal(t, SourceRemote, s.ListSource)
	assert.Equal(t, []string{"gifA.gif", "gifB.gif"}, s.Gifs)
	assert.Nil(t, s.Failure)
	assert.Equal(t, 1, accounts.fetchCount())
	assert.Zero(t, w.connects)
}

func TestUntrustedWalletExplicitConnect(t *testing.T) {
	w := &fakeWallet{present: true, identity: pub456}
	accounts := &fakeAccounts{}
	c := newController(t, w, accounts)

	require.NoError(t, c.Start(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, PhaseUntrusted, s.Phase)
	assert.True(t, s.Wallet.Presence)
	assert.Nil(t, s.Wallet.PublicKey)
	assert.Zero(t, accounts.fetchCount())

	require.NoError(t, c.Connect(context.Background()))
	c.Wait()

	s = c.Snapshot()
	assert.Equal(t, PhaseConnected, s.Phase)
	assert.Equal(t, pub456, *s.Wallet.PublicKey)
	assert.True(t, s.Wallet.Trusted)
	assert.Equal(t, 1, accounts.fetchCount())
}

func TestConnectRejectedKeepsPhase(t *testing.T) {
	rejected := errors.Join(wallet.ErrConnectRejected, wallet.ErrUserRejected)
	w := &fakeWallet{present: true, connectErr: rejected}
	c := newController(t, w, &fakeAccounts{})

	require.NoError(t, c.Start(context.Background()))
	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, wallet.ErrConnectRejected)

	s := c.Snapshot()
	assert.Equal(t, PhaseUntrusted, s.Phase)
	require.NotNil(t, s.Failure)
	assert.Equal(t, FailureConnectRejected, s.Failure.Kind)
}

func TestSilentConnectFaultStaysDetected(t *testing.T) {
	w := &fakeWallet{present: true, identity: pub123, silentErr: errors.New("extension crashed")}
	c := newController(t, w, &fakeAccounts{})

	require.NoError(t, c.Start(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, PhaseWalletDetected, s.Phase)
	require.NotNil(t, s.Failure)
	assert.Equal(t, FailureWalletFault, s.Failure.Kind)

	// the user can still connect explicitly
	require.NoError(t, c.Connect(context.Background()))
	c.Wait()
	assert.Equal(t, PhaseConnected, c.Snapshot().Phase)
}

func TestLateSilentDeclineKeepsExplicitConnection(t *testing.T) {
	w := &fakeWallet{
		present:  true,
		identity: pub123,
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	accounts := &fakeAccounts{results: []fetchResult{{links: []string{"gifA.gif"}}}}
	c := newController(t, w, accounts)

	started := make(chan error, 1)
	go func() { started <- c.Start(context.Background()) }()
	<-w.entered

	require.NoError(t, c.Connect(context.Background()))
	c.Wait()
	require.Equal(t, PhaseConnected, c.Snapshot().Phase)

	// silent attempt declines after the user already connected
	close(w.release)
	require.NoError(t, <-started)

	s := c.Snapshot()
	assert.Equal(t, PhaseConnected, s.Phase)
	require.NotNil(t, s.Wallet.PublicKey)
	assert.Equal(t, pub123, *s.Wallet.PublicKey)
	assert.Equal(t, ListReady, s.ListStatus)
	assert.Equal(t, []string{"gifA.gif"}, s.Gifs)
	assert.Nil(t, s.Failure)
}

func TestStartTwice(t *testing.T) {
	c := newController(t, &fakeWallet{}, &fakeAccounts{})
	require.NoError(t, c.Start(context.Background()))
	assert.Error(t, c.Start(context.Background()))
}

func TestFetchFailureLeavesEmptyList(t *testing.T) {
	netErr := &client.RemoteError{Op: "fetch account", Kind: client.ErrNetwork, Err: errors.New("connection refused")}
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{results: []fetchResult{{err: netErr}}}
	c := newController(t, w, accounts)

	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, PhaseConnected, s.Phase)
	assert.Equal(t, ListUnavailable, s.ListStatus)
	assert.Equal(t, SourceNone, s.ListSource)
	assert.Equal(t, []string{}, s.Gifs)
	require.NotNil(t, s.Failure)
	assert.Equal(t, FailureNetwork, s.Failure.Kind)
	assert.Equal(t, 1, accounts.fetchCount())
}

func TestReconnectSupersedesInFlightFetch(t *testing.T) {
	first := make(chan struct{})
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{
		results: []fetchResult{{links: []string{"stale.gif"}}, {links: []string{"fresh.gif"}}},
		gates:   []chan struct{}{first, nil},
	}
	c := newController(t, w, accounts)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, ListLoading, c.Snapshot().ListStatus)
	require.Eventually(t, func() bool { return accounts.fetchCount() == 1 }, testTimeout, testTick)

	w.identity = pub456
	require.NoError(t, c.Connect(context.Background()))

	// let the first fetch finish after the second one
	require.Eventually(t, func() bool { return c.Snapshot().ListStatus == ListReady }, testTimeout, testTick)
	close(first)
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, []string{"fresh.gif"}, s.Gifs)
	assert.Equal(t, pub456, *s.Wallet.PublicKey)
	assert.Equal(t, 2, accounts.fetchCount())
}

func TestSubmitEmptyInputMakesNoRemoteCall(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{}
	c := newController(t, w, accounts)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	for _, input := range []string{"", "   "} {
		c.SetInput(input)
		err := c.Submit(context.Background())
		assert.ErrorIs(t, err, ErrValidation)
	}
	c.Wait()

	assert.Empty(t, accounts.appends)
	assert.Equal(t, 1, accounts.fetchCount())
	assert.Equal(t, FailureValidation, c.Snapshot().Failure.Kind)
}

func TestSubmitAppendsThenRefetches(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{results: []fetchResult{
		{links: []string{"gifA.gif"}},
		{links: []string{"gifA.gif", "gifC.gif"}},
	}}
	c := newController(t, w, accounts)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	c.SetInput("gifC.gif")
	require.NoError(t, c.Submit(context.Background()))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, []string{"gifC.gif"}, accounts.appends)
	assert.Equal(t, []string{"gifA.gif", "gifC.gif"}, s.Gifs)
	assert.Equal(t, "gifC.gif", s.Input)
	assert.Equal(t, 2, accounts.fetchCount())
}

func TestSubmitFailureKeepsList(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{
		results:  []fetchResult{{links: []string{"gifA.gif"}}},
		appendEr: &client.RemoteError{Op: "append entry", Kind: client.ErrSignatureRejected},
	}
	c := newController(t, w, accounts)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	c.SetInput("gifC.gif")
	assert.ErrorIs(t, c.Submit(context.Background()), client.ErrSignatureRejected)
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, []string{"gifA.gif"}, s.Gifs)
	assert.Equal(t, FailureSignatureRejected, s.Failure.Kind)
	assert.Equal(t, 1, accounts.fetchCount())
}

func TestSubmitRequiresConnection(t *testing.T) {
	c := newController(t, &fakeWallet{present: true, identity: pub123}, &fakeAccounts{})
	require.NoError(t, c.Start(context.Background()))

	c.SetInput("gifA.gif")
	assert.ErrorIs(t, c.Submit(context.Background()), wallet.ErrNotConnected)
}

func TestInitializeThenFetch(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{results: []fetchResult{
		{err: &client.RemoteError{Op: "fetch account", Kind: client.ErrAccountNotFound}},
		{links: []string{}},
	}}
	c := newController(t, w, accounts)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()
	assert.Equal(t, FailureAccountNotFound, c.Snapshot().Failure.Kind)

	require.NoError(t, c.Initialize(context.Background()))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, 1, accounts.inits)
	assert.Equal(t, ListReady, s.ListStatus)
	assert.Equal(t, []string{}, s.Gifs)
	assert.Nil(t, s.Failure)
}

func TestInitializeAlreadyExistsStillRefetches(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{
		results: []fetchResult{{links: []string{"gifA.gif"}}, {links: []string{"gifA.gif"}}},
		initErr: &client.RemoteError{Op: "initialize account", Kind: client.ErrAlreadyExists},
	}
	c := newController(t, w, accounts)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	err := c.Initialize(context.Background())
	assert.ErrorIs(t, err, client.ErrAlreadyExists)
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, 2, accounts.fetchCount())
	assert.Equal(t, FailureAlreadyExists, s.Failure.Kind)
	assert.Equal(t, []string{"gifA.gif"}, s.Gifs)
}

func TestBuildClientFailure(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	build := func(wallet.Session) (AccountClient, error) {
		return nil, errors.New("bad endpoint")
	}
	c := New(w, build, keys.BaseAccount{PrivateKey: solana.NewWallet().PrivateKey}, zap.NewNop())
	t.Cleanup(c.Close)

	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, PhaseConnected, s.Phase)
	assert.Equal(t, ListUnavailable, s.ListStatus)
	assert.Equal(t, []string{}, s.Gifs)
	require.NotNil(t, s.Failure)
	assert.Equal(t, opBuild, s.Failure.Op)
}

func TestSnapshotIsACopy(t *testing.T) {
	w := &fakeWallet{present: true, trusted: true, identity: pub123}
	accounts := &fakeAccounts{results: []fetchResult{{links: []string{"gifA.gif"}}}}
	c := newController(t, w, accounts)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	s := c.Snapshot()
	s.Gifs[0] = "mutated"
	*s.Wallet.PublicKey = pub456

	again := c.Snapshot()
	assert.Equal(t, []string{"gifA.gif"}, again.Gifs)
	assert.Equal(t, pub123, *again.Wallet.PublicKey)
}
