package idl

import (
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRepositoryIDL(t *testing.T) {
	doc, err := Load(filepath.Join("..", "..", "idl.json"))
	require.NoError(t, err)

	programID, err := doc.ProgramID()
	require.NoError(t, err)
	assert.Equal(t, "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS", programID.String())

	start, ok := doc.Instruction(InstructionStart)
	require.True(t, ok)
	require.Len(t, start.Accounts, 3)
	assert.True(t, start.Accounts[0].IsSigner)
}

func TestParseRejectsIncomplete(t *testing.T) {
	_, err := Parse([]byte(`{"instructions":[{"name":"startStuffOff"}],"metadata":{"address":"Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"}}`))
	assert.ErrorContains(t, err, "addGif")

	_, err = Parse([]byte(`{"metadata":{}}`))
	assert.ErrorContains(t, err, "program address")

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestDiscriminators(t *testing.T) {
	sum := sha256.Sum256([]byte("global:start_stuff_off"))
	assert.Equal(t, sum[:8], func() []byte { d := InstructionDiscriminator(InstructionStart); return d[:] }())

	sum = sha256.Sum256([]byte("account:BaseAccount"))
	d := AccountDiscriminator(AccountBase)
	assert.Equal(t, sum[:8], d[:])
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "add_gif", snakeCase("addGif"))
	assert.Equal(t, "start_stuff_off", snakeCase("startStuffOff"))
	assert.Equal(t, "plain", snakeCase("plain"))
}
