// Package idl loads the Anchor interface description of the emotes program.
package idl

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/gagliardetto/solana-go"
)

// Names of the program surface the client relies on.
const (
	InstructionStart  = "startStuffOff"
	InstructionAddGif = "addGif"
	AccountBase       = "BaseAccount"
)

// IDL is the subset of an Anchor IDL document used by the client
type IDL struct {
	Version      string        `json:"version"`
	Name         string        `json:"name"`
	Instructions []Instruction `json:"instructions"`
	Accounts     []Account     `json:"accounts"`
	Metadata     Metadata      `json:"metadata"`
}

// Instruction describes one program instruction
type Instruction struct {
	Name     string       `json:"name"`
	Accounts []AccountRef `json:"accounts"`
	Args     []Field      `json:"args"`
}

// AccountRef is an account slot of an instruction
type AccountRef struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

// Field is a named argument or struct field
type Field struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

// Account describes an account type owned by the program
type Account struct {
	Name string `json:"name"`
}

// Metadata carries the deployed program address
type Metadata struct {
	Address string `json:"address"`
}

// Load reads and validates the IDL document at path.
func Load(path string) (*IDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read idl: %w", err)
	}
	return Parse(data)
}

// Parse decodes an IDL document and checks that the instructions and
// account the client needs are present.
func Parse(data []byte) (*IDL, error) {
	var doc IDL
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idl: %w", err)
	}

	if _, err := doc.ProgramID(); err != nil {
		return nil, err
	}
	for _, name := range []string{InstructionStart, InstructionAddGif} {
		if _, ok := doc.Instruction(name); !ok {
			return nil, fmt.Errorf("idl has no instruction %q", name)
		}
	}
	if !doc.hasAccount(AccountBase) {
		return nil, fmt.Errorf("idl has no account %q", AccountBase)
	}

	return &doc, nil
}

// ProgramID returns the program address from the metadata section.
func (d *IDL) ProgramID() (solana.PublicKey, error) {
	if d.Metadata.Address == "" {
		return solana.PublicKey{}, fmt.Errorf("idl metadata has no program address")
	}
	programID, err := solana.PublicKeyFromBase58(d.Metadata.Address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program address: %w", err)
	}
	return programID, nil
}

// Instruction looks up an instruction by its IDL name.
func (d *IDL) Instruction(name string) (Instruction, bool) {
	for _, ix := range d.Instructions {
		if ix.Name == name {
			return ix, true
		}
	}
	return Instruction{}, false
}

func (d *IDL) hasAccount(name string) bool {
	for _, acc := range d.Accounts {
		if acc.Name == name {
			return true
		}
	}
	return false
}

// InstructionDiscriminator is sha256("global:<snake_name>")[:8].
func InstructionDiscriminator(name string) [8]byte {
	return discriminator("global:" + snakeCase(name))
}

// AccountDiscriminator is sha256("account:<Name>")[:8].
func AccountDiscriminator(name string) [8]byte {
	return discriminator("account:" + name)
}

func discriminator(preimage string) [8]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// snakeCase converts IDL camelCase names back to the Rust method names
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
