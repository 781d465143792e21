package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/term"
)

// Approver decides interactive connection requests.
type Approver interface {
	Approve(ctx context.Context, origin string, identity solana.PublicKey) (bool, error)
}

// ApproverFunc adapts a function to Approver
type ApproverFunc func(ctx context.Context, origin string, identity solana.PublicKey) (bool, error)

// Approve calls f.
func (f ApproverFunc) Approve(ctx context.Context, origin string, identity solana.PublicKey) (bool, error) {
	return f(ctx, origin, identity)
}

// AutoApprove approves every request. Used for headless deployments.
var AutoApprove = ApproverFunc(func(context.Context, string, solana.PublicKey) (bool, error) {
	return true, nil
})

// KeystoreProvider is a Provider backed by a decrypted local key.
// Interactive connects go through the Approver; approved origins are
// remembered in the TrustStore so later silent connects succeed.
type KeystoreProvider struct {
	mu        sync.Mutex
	key       solana.PrivateKey
	origin    string
	trust     *TrustStore
	approver  Approver
	connected bool
}

var _ Provider = (*KeystoreProvider)(nil)

// NewKeystoreProvider takes ownership of key; call Close to wipe it.
func NewKeystoreProvider(key solana.PrivateKey, origin string, trust *TrustStore, approver Approver) *KeystoreProvider {
	return &KeystoreProvider{
		key:      key,
		origin:   origin,
		trust:    trust,
		approver: approver,
	}
}

// IsAvailable reports whether a key is loaded.
func (p *KeystoreProvider) IsAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.key) == 64
}

// Connect returns the wallet identity if the origin is trusted or the user approves.
func (p *KeystoreProvider) Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error) {
	identity, ok := p.identity()
	if !ok {
		return solana.PublicKey{}, ErrProviderAbsent
	}

	if !p.trust.IsTrusted(p.origin) {
		if opts.OnlyIfTrusted {
			return solana.PublicKey{}, ErrUserRejected
		}

		// Not holding the lock here: approval may wait on the user
		approved, err := p.approver.Approve(ctx, p.origin, identity)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("failed to ask for approval: %w", err)
		}
		if !approved {
			return solana.PublicKey{}, ErrUserRejected
		}
		if err := p.trust.Add(p.origin); err != nil {
			return solana.PublicKey{}, err
		}
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return identity, nil
}

func (p *KeystoreProvider) identity() (solana.PublicKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.key) != 64 {
		return solana.PublicKey{}, false
	}
	return p.key.PublicKey(), true
}

// SignTransaction fills the wallet's signature slot of tx.
func (p *KeystoreProvider) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	identity := p.key.PublicKey()
	if !containsKey(tx.Message.Signers(), identity) {
		return fmt.Errorf("wallet %s is not a signer of the transaction", identity)
	}

	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(identity) {
			return &p.key
		}
		return nil
	})
	return err
}

// Close wipes the key from memory.
func (p *KeystoreProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.key)
	p.key = nil
	p.connected = false
}

func containsKey(keys solana.PublicKeySlice, key solana.PublicKey) bool {
	for _, k := range keys {
		if k.Equals(key) {
			return true
		}
	}
	return false
}

// TerminalApprover asks on the controlling terminal.
// One reader goroutine owns In for the lifetime of the approver, so an
// answer is never lost to a prompt that was already cancelled.
type TerminalApprover struct {
	In  io.Reader
	Out io.Writer

	once    sync.Once
	lines   chan string
	mu      sync.Mutex
	readErr error
}

// NewTerminalApprover uses stdin and stderr.
func NewTerminalApprover() *TerminalApprover {
	return &TerminalApprover{In: os.Stdin, Out: os.Stderr}
}

func (a *TerminalApprover) startReader() {
	a.lines = make(chan string)
	go func() {
		r := bufio.NewReader(a.In)
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				a.lines <- line
			}
			if err != nil {
				a.mu.Lock()
				a.readErr = err
				a.mu.Unlock()
				close(a.lines)
				return
			}
		}
	}()
}

func (a *TerminalApprover) closedErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Errorf("failed to read answer: %w", a.readErr)
}

// Approve prints a y/N prompt and waits for the answer or ctx cancellation.
// Lines typed before the prompt is shown are discarded.
func (a *TerminalApprover) Approve(ctx context.Context, origin string, identity solana.PublicKey) (bool, error) {
	if f, ok := a.In.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, errors.New("stdin is not a terminal: set WALLET_AUTO_APPROVE or run interactively")
	}
	a.once.Do(a.startReader)

	// drop answers meant for an earlier, cancelled prompt
	for drained := false; !drained; {
		select {
		case _, ok := <-a.lines:
			if !ok {
				return false, a.closedErr()
			}
		default:
			drained = true
		}
	}

	fmt.Fprintf(a.Out, "Connect wallet %s to %s? [y/N]: ", identity, origin)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-a.lines:
		if !ok {
			return false, a.closedErr()
		}
		line = strings.ToLower(strings.TrimSpace(line))
		return line == "y" || line == "yes", nil
	}
}
