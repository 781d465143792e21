package keys

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlexZinkM/emotes-portal/internal/crypto"
	"github.com/AlexZinkM/emotes-portal/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

const (
	networkSolana = "solana"
)

// ErrKindMismatch is returned when a key file holds a different kind of key than requested
var ErrKindMismatch = errors.New("key file kind mismatch")

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	var target *FileExistsError
	return errors.As(err, &target)
}

// BaseAccount is the keypair of the single shared on-chain account.
// It is generated once with keygen and loaded from its key file on every start.
type BaseAccount struct {
	PrivateKey solana.PrivateKey
}

// PublicKey returns the on-chain address of the account.
func (b BaseAccount) PublicKey() solana.PublicKey {
	return b.PrivateKey.PublicKey()
}

// GenerateKeyFile generates a new Solana keypair and saves it to .cwt file.
// Returns the generated public address on success.
// password must be []byte for security (caller should zero it after use)
func GenerateKeyFile(filePath string, kind model.KeyKind, password []byte) (address string, err error) {
	if filepath.Ext(filePath) != ".cwt" {
		return "", fmt.Errorf("file must have .cwt extension")
	}

	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return "", &FileExistsError{Message: "file is not empty"}
	}

	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	address = wallet.PublicKey().String()

	qrCode, err := generateQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	keyData := &model.KeyData{
		PrivateKey: wallet.PrivateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	header := model.CWTFile{
		Network: networkSolana,
		Kind:    kind,
		Address: address,
		QR:      qrCode,
	}
	if err := crypto.EncryptKeyFile(filePath, header, keyData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt key file: %w", err)
	}

	return address, nil
}

// LoadKey decrypts a .cwt file and returns its private key after checking
// the kind and that the key matches the stored address.
// Caller owns the returned key and should clear it when done.
func LoadKey(filePath string, kind model.KeyKind, password []byte) (solana.PrivateKey, error) {
	header, keyData, err := crypto.DecryptKeyFile(filePath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key file: %w", err)
	}

	if header.Kind != kind {
		clear(keyData.PrivateKey)
		return nil, fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, kind, header.Kind)
	}

	// We store full 64-byte keys
	if len(keyData.PrivateKey) != 64 {
		clear(keyData.PrivateKey)
		return nil, fmt.Errorf("invalid private key length")
	}

	key := solana.PrivateKey(keyData.PrivateKey)
	address, err := solana.PublicKeyFromBase58(header.Address)
	if err != nil {
		clear(key)
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	if !key.PublicKey().Equals(address) {
		clear(key)
		return nil, fmt.Errorf("private key does not match address")
	}

	return key, nil
}

// LoadBaseAccount loads the persisted base account keypair.
func LoadBaseAccount(filePath string, password []byte) (BaseAccount, error) {
	key, err := LoadKey(filePath, model.KeyKindBaseAccount, password)
	if err != nil {
		return BaseAccount{}, err
	}
	return BaseAccount{PrivateKey: key}, nil
}

// Rekey re-encrypts a key file under a new password, keeping its header.
// The new file is written next to the old one and renamed over it.
func Rekey(filePath string, oldPassword, newPassword []byte) error {
	header, keyData, err := crypto.DecryptKeyFile(filePath, oldPassword)
	if err != nil {
		return fmt.Errorf("failed to decrypt key file: %w", err)
	}
	defer clear(keyData.PrivateKey)

	tmpPath := strings.TrimSuffix(filePath, ".cwt") + ".rekey.cwt"
	if err := crypto.EncryptKeyFile(tmpPath, *header, keyData, newPassword); err != nil {
		return fmt.Errorf("failed to encrypt key file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace key file: %w", err)
	}
	return nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
