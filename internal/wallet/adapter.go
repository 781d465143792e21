// Package wallet wraps a wallet provider capability: presence check, silent
// connect for previously trusted origins and interactive connect.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

var (
	// ErrProviderAbsent means the environment exposes no wallet provider.
	ErrProviderAbsent = errors.New("wallet provider not available")
	// ErrUserRejected is returned by providers when the user (or the trust
	// policy, for silent requests) declines.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrConnectRejected is returned by Adapter.Connect when the user rejects the connection.
	ErrConnectRejected = errors.New("wallet connection rejected")
	// ErrNotConnected is a precondition failure for operations that need a connected session.
	ErrNotConnected = errors.New("wallet not connected")
)

// ConnectOptions mirrors the provider connect options
type ConnectOptions struct {
	// OnlyIfTrusted asks the provider not to prompt the user.
	OnlyIfTrusted bool
}

// Provider is the wallet capability exposed by the environment.
type Provider interface {
	IsAvailable() bool
	Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error)
	// SignTransaction adds the wallet signature to tx, leaving other signer slots untouched.
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// Session is the wallet session observed by this process. It is never persisted.
type Session struct {
	Presence  bool
	Trusted   bool
	PublicKey *solana.PublicKey
}

// Connected reports whether the session carries an identity.
func (s Session) Connected() bool {
	return s.PublicKey != nil
}

// Adapter is a thin typed wrapper around an injected Provider.
type Adapter struct {
	provider Provider
	log      *zap.Logger
}

// NewAdapter creates an adapter. provider may be nil when the environment has no wallet.
func NewAdapter(provider Provider, logger *zap.Logger) *Adapter {
	return &Adapter{
		provider: provider,
		log:      logger.Named("wallet"),
	}
}

// Probe reports whether a usable provider exists. Absence is not an error.
func (a *Adapter) Probe() bool {
	return a.provider != nil && a.provider.IsAvailable()
}

// SilentConnect connects only if the wallet already trusts this origin.
// A silent decline returns connected=false with a nil error; provider faults are returned.
func (a *Adapter) SilentConnect(ctx context.Context) (identity solana.PublicKey, connected bool, err error) {
	if !a.Probe() {
		return solana.PublicKey{}, false, ErrProviderAbsent
	}

	identity, err = a.provider.Connect(ctx, ConnectOptions{OnlyIfTrusted: true})
	if errors.Is(err, ErrUserRejected) {
		a.log.Debug("silent connect declined")
		return solana.PublicKey{}, false, nil
	}
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("failed to connect silently: %w", err)
	}

	a.log.Info("wallet connected silently", zap.Stringer("publicKey", identity))
	return identity, true, nil
}

// Connect performs an interactive connection. It may block until the user
// answers the approval prompt.
func (a *Adapter) Connect(ctx context.Context) (solana.PublicKey, error) {
	if !a.Probe() {
		return solana.PublicKey{}, ErrProviderAbsent
	}

	identity, err := a.provider.Connect(ctx, ConnectOptions{})
	if errors.Is(err, ErrUserRejected) {
		return solana.PublicKey{}, fmt.Errorf("%w: %w", ErrConnectRejected, err)
	}
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to connect wallet: %w", err)
	}

	a.log.Info("wallet connected", zap.Stringer("publicKey", identity))
	return identity, nil
}

// SignTransaction asks the provider to sign tx.
func (a *Adapter) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if !a.Probe() {
		return ErrProviderAbsent
	}
	if err := a.provider.SignTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
