package config

import (
	"os"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BASE_ACCOUNT_FILE_PATH", "base.cwt")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "https://api.devnet.solana.com", c.SolanaRPCURL)
	assert.Equal(t, "", c.WalletFilePath)

	commitment, err := c.Commitment()
	require.NoError(t, err)
	assert.Equal(t, rpc.CommitmentProcessed, commitment)
}

func TestLoadRequiresBaseAccount(t *testing.T) {
	t.Setenv("BASE_ACCOUNT_FILE_PATH", "")
	require.NoError(t, os.Unsetenv("BASE_ACCOUNT_FILE_PATH"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownCommitment(t *testing.T) {
	t.Setenv("BASE_ACCOUNT_FILE_PATH", "base.cwt")
	t.Setenv("SOLANA_COMMITMENT", "recent")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported commitment")
}

func TestGetPasswordBytesReturnsCopy(t *testing.T) {
	t.Cleanup(ClearPassword)
	passwordBytes = []byte("secret")

	got, err := GetPasswordBytes()
	require.NoError(t, err)
	clear(got)

	again, err := GetPasswordBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), again)

	ClearPassword()
	_, err = GetPasswordBytes()
	assert.Error(t, err)
}
