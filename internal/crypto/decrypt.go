package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/emotes-portal/internal/model"
)

// ErrInvalidPassword is returned when the key file cannot be opened with the given password
var ErrInvalidPassword = errors.New("invalid password")

// DecryptKeyFile reads and decrypts .cwt file
// password must be []byte for security (caller should zero it after use)
func DecryptKeyFile(filePath string, password []byte) (*model.CWTFile, *model.KeyData, error) {
	// Read public part of the file
	cwtFile, err := ReadKeyFileHeader(filePath)
	if err != nil {
		return nil, nil, err
	}

	// Decode salt and nonce
	salt, err := base64.StdEncoding.DecodeString(cwtFile.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(cwtFile.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(cwtFile.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// Derive key from password and create GCM
	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}

	// Decrypt
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	// Deserialize key data
	var keyData model.KeyData
	if err := json.Unmarshal(plaintext, &keyData); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal key data: %w", err)
	}

	return cwtFile, &keyData, nil
}

// ReadKeyFileHeader reads the public part of a .cwt file (without decryption)
func ReadKeyFileHeader(filePath string) (*model.CWTFile, error) {
	// Check if file exists
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %w", os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// Check that file is not empty
	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	// Read file
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	fileData = bytes.TrimPrefix(fileData, utf8BOM)

	// Deserialize file structure
	var cwtFile model.CWTFile
	if err := json.Unmarshal(fileData, &cwtFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cwt file: %w", err)
	}

	return &cwtFile, nil
}
