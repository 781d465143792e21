package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/emotes-portal/internal/common"
	"github.com/AlexZinkM/emotes-portal/internal/keys"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	opInitialize = "initialize account"
	opFetch      = "fetch account"
	opAppend     = "append entry"
)

// InitializeAccount creates the base account with an empty list. It is signed by
// both the base account key and the wallet. Creating an account that already
// exists fails with ErrAlreadyExists.
func (c *ProgramClient) InitializeAccount(ctx context.Context, base keys.BaseAccount) error {
	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, baseAccountSpace, c.commitment)
	if err != nil {
		err = classify(opInitialize, fmt.Errorf("failed to get rent exemption: %w", err))
		c.log.Error("initialize account failed", zap.Error(err))
		return err
	}

	ix := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.Meta(base.PublicKey()).WRITE().SIGNER(),
			solana.Meta(c.payer).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		startInstructionData(),
	)

	sig, err := c.send(ctx, opInitialize, ix, base.PrivateKey)
	if err != nil {
		c.log.Error("initialize account failed", zap.Stringer("account", base.PublicKey()), zap.Error(err))
		return err
	}

	c.log.Info("base account created",
		zap.Stringer("account", base.PublicKey()),
		zap.Stringer("signature", sig),
		zap.String("rentSOL", common.LamportsToSOL(rent)),
	)
	return nil
}

// FetchAccount reads the ordered gif links stored in the base account.
func (c *ProgramClient) FetchAccount(ctx context.Context, base keys.BaseAccount) ([]string, error) {
	account := base.PublicKey()

	out, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && (out == nil || out.Value == nil)) {
		return nil, remoteError(opFetch, ErrAccountNotFound, fmt.Errorf("account %s", account))
	}
	if err != nil {
		return nil, classify(opFetch, fmt.Errorf("failed to get account info: %w", err))
	}

	if !out.Value.Owner.Equals(c.programID) {
		return nil, remoteError(opFetch, ErrDeserialization, fmt.Errorf("account %s is owned by %s", account, out.Value.Owner))
	}
	if out.Value.Data == nil {
		return nil, remoteError(opFetch, ErrDeserialization, fmt.Errorf("account %s has no data", account))
	}

	data, err := decodeBaseAccount(out.Value.Data.GetBinary())
	if err != nil {
		return nil, remoteError(opFetch, ErrDeserialization, err)
	}

	c.log.Debug("base account fetched", zap.Stringer("account", account), zap.Uint64("totalGifs", data.TotalGifs))
	return data.Links(), nil
}

// AppendEntry submits one gif link. Where the entry lands relative to
// entries from other sessions is decided by the program.
func (c *ProgramClient) AppendEntry(ctx context.Context, base keys.BaseAccount, value string) error {
	if value == "" {
		return ErrEmptyValue
	}

	data, err := addGifInstructionData(value)
	if err != nil {
		return err
	}

	ix := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.Meta(base.PublicKey()).WRITE(),
			solana.Meta(c.payer).WRITE().SIGNER(),
		},
		data,
	)

	sig, err := c.send(ctx, opAppend, ix)
	if err != nil {
		c.log.Error("append entry failed", zap.String("value", value), zap.Error(err))
		return err
	}

	c.log.Info("entry appended", zap.String("value", value), zap.Stringer("signature", sig))
	return nil
}
