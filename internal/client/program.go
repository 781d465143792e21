// Package client builds signed calls against the emotes program over Solana JSON-RPC.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/emotes-portal/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// RPC is the subset of *rpc.Client the program client uses
type RPC interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

var _ RPC = (*rpc.Client)(nil)

// Signer adds the wallet signature to a transaction
type Signer interface {
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// Factory builds program clients for connected wallet sessions.
// Endpoint and commitment are fixed for the lifetime of the factory.
type Factory struct {
	endpoint     string
	commitment   rpc.CommitmentType
	programID    solana.PublicKey
	signer       Signer
	newRPC       func(endpoint string) RPC
	pollInterval time.Duration
	log          *zap.Logger
}

// FactoryOption customizes a Factory
type FactoryOption func(*Factory)

// WithRPC replaces the RPC constructor, mainly for tests.
func WithRPC(newRPC func(endpoint string) RPC) FactoryOption {
	return func(f *Factory) { f.newRPC = newRPC }
}

// WithPollInterval sets how often transaction confirmation is polled.
func WithPollInterval(d time.Duration) FactoryOption {
	return func(f *Factory) { f.pollInterval = d }
}

// NewFactory creates a Factory for programID at endpoint.
func NewFactory(endpoint string, commitment rpc.CommitmentType, programID solana.PublicKey, signer Signer, logger *zap.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{
		endpoint:     endpoint,
		commitment:   commitment,
		programID:    programID,
		signer:       signer,
		newRPC:       func(endpoint string) RPC { return rpc.New(endpoint) },
		pollInterval: 500 * time.Millisecond,
		log:          logger.Named("client"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BuildClient returns a client that pays and signs with the session identity.
func (f *Factory) BuildClient(session wallet.Session) (*ProgramClient, error) {
	if !session.Connected() {
		return nil, fmt.Errorf("failed to build client: %w", wallet.ErrNotConnected)
	}

	return &ProgramClient{
		rpc:          f.newRPC(f.endpoint),
		programID:    f.programID,
		commitment:   f.commitment,
		payer:        *session.PublicKey,
		signer:       f.signer,
		pollInterval: f.pollInterval,
		log:          f.log.With(zap.Stringer("payer", session.PublicKey)),
	}, nil
}

// ProgramClient is a client for the emotes program bound to one wallet
type ProgramClient struct {
	rpc          RPC
	programID    solana.PublicKey
	commitment   rpc.CommitmentType
	payer        solana.PublicKey
	signer       Signer
	pollInterval time.Duration
	log          *zap.Logger
}

// ProgramID returns the program the client talks to.
func (c *ProgramClient) ProgramID() solana.PublicKey { return c.programID }

// Commitment returns the commitment level used for reads and confirmations.
func (c *ProgramClient) Commitment() rpc.CommitmentType { return c.commitment }

// Payer returns the wallet identity paying for transactions.
func (c *ProgramClient) Payer() solana.PublicKey { return c.payer }

// send builds a transaction for ix, signs it with extra keys and the wallet,
// submits it and waits until it reaches the client commitment.
func (c *ProgramClient) send(ctx context.Context, op string, ix solana.Instruction, extra ...solana.PrivateKey) (solana.Signature, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, classify(op, fmt.Errorf("failed to get recent blockhash: %w", err))
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(c.payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if len(extra) > 0 {
		_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
			for i := range extra {
				if extra[i].PublicKey().Equals(key) {
					return &extra[i]
				}
			}
			return nil
		})
		if err != nil {
			return solana.Signature{}, remoteError(op, ErrSignatureRejected, err)
		}
	}

	if err := c.signer.SignTransaction(ctx, tx); err != nil {
		return solana.Signature{}, remoteError(op, ErrSignatureRejected, err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, classify(op, fmt.Errorf("failed to send transaction: %w", err))
	}

	if err := c.waitForCommitment(ctx, op, sig, recent.Value.LastValidBlockHeight); err != nil {
		return sig, err
	}
	return sig, nil
}

// waitForCommitment polls the signature status until it reaches the client commitment.
// A transaction still unknown once the chain passes lastValid can no longer land.
func (c *ProgramClient) waitForCommitment(ctx context.Context, op string, sig solana.Signature, lastValid uint64) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return classify(op, fmt.Errorf("failed to get signature status: %w", err))
		}
		if out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return remoteError(op, ErrUnknownRemote, fmt.Errorf("transaction %s failed: %v", sig, status.Err))
			}
			if reached(status.ConfirmationStatus, c.commitment) {
				return nil
			}
		} else {
			height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
			if err != nil {
				return classify(op, fmt.Errorf("failed to get block height: %w", err))
			}
			if height > lastValid {
				return remoteError(op, ErrNetwork, fmt.Errorf("transaction %s expired at block height %d", sig, lastValid))
			}
		}

		select {
		case <-ctx.Done():
			return remoteError(op, ErrNetwork, fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	switch commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	default:
		return status != ""
	}
}
