package client

import (
	"bytes"
	"fmt"

	"github.com/AlexZinkM/emotes-portal/internal/idl"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// baseAccountSpace is the size the program allocates for the base account
const baseAccountSpace = 9000

// Item is one entry of the on-chain list
type Item struct {
	GifLink     string
	UserAddress solana.PublicKey
}

// BaseAccountData is the borsh layout of the base account after its discriminator
type BaseAccountData struct {
	TotalGifs uint64
	GifList   []Item
}

// Links returns the ordered gif links.
func (d *BaseAccountData) Links() []string {
	links := make([]string, 0, len(d.GifList))
	for _, item := range d.GifList {
		links = append(links, item.GifLink)
	}
	return links
}

func decodeBaseAccount(data []byte) (*BaseAccountData, error) {
	want := idl.AccountDiscriminator(idl.AccountBase)
	if len(data) < len(want) {
		return nil, fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(want)], want[:]) {
		return nil, fmt.Errorf("account discriminator mismatch")
	}

	var acc BaseAccountData
	if err := bin.NewBorshDecoder(data[len(want):]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("failed to decode base account: %w", err)
	}
	return &acc, nil
}

func startInstructionData() []byte {
	disc := idl.InstructionDiscriminator(idl.InstructionStart)
	return disc[:]
}

func addGifInstructionData(link string) ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := idl.InstructionDiscriminator(idl.InstructionAddGif)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(link); err != nil {
		return nil, fmt.Errorf("failed to encode gif link: %w", err)
	}
	return buf.Bytes(), nil
}
