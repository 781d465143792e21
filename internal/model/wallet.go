package model

// KeyKind tells what a key file holds
type KeyKind string

const (
	KeyKindWallet      KeyKind = "wallet"       // user wallet signing key
	KeyKindBaseAccount KeyKind = "base_account" // keypair of the shared on-chain account
)

// CWTFile represents .cwt file structure
type CWTFile struct {
	Network    string  `json:"network"`
	Kind       KeyKind `json:"kind"`
	Address    string  `json:"address"`
	QR         string  `json:"QR"`
	Salt       string  `json:"salt"`
	Nonce      string  `json:"nonce"`
	CipherText string  `json:"cipherText"`
}

// KeyData represents decrypted key file data
type KeyData struct {
	PrivateKey []byte `json:"privateKey"` // full 64-byte key (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}
