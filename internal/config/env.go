package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetPasswordBytes()
type Config struct {
	Port                string `envconfig:"PORT" default:"8080"`
	SolanaRPCURL        string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	SolanaCommitment    string `envconfig:"SOLANA_COMMITMENT" default:"processed"`
	IDLPath             string `envconfig:"IDL_PATH" default:"idl.json"`
	BaseAccountFilePath string `envconfig:"BASE_ACCOUNT_FILE_PATH" required:"true"`
	WalletFilePath      string `envconfig:"WALLET_FILE_PATH"` // empty means no wallet in this environment
	WalletTrustFile     string `envconfig:"WALLET_TRUST_FILE" default:"trusted_origins.json"`
	WalletOrigin        string `envconfig:"WALLET_ORIGIN" default:"http://localhost:8080"`
	WalletAutoApprove   bool   `envconfig:"WALLET_AUTO_APPROVE" default:"false"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment      bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

// Commitment returns the configured commitment level.
// Only processed, confirmed and finalized are accepted.
func (c *Config) Commitment() (rpc.CommitmentType, error) {
	switch commitment := rpc.CommitmentType(c.SolanaCommitment); commitment {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return commitment, nil
	default:
		return "", fmt.Errorf("unsupported commitment %q", c.SolanaCommitment)
	}
}

// cfg is the global configuration instance
var cfg *Config

// Load reads configuration from environment variables without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if _, err := c.Commitment(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

var passwordBytes []byte

// PromptForPassword prompts the user for the key file password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter key file password: ")
	if err != nil {
		return err
	}
	passwordBytes = raw
	return nil
}

// ReadPassword reads a non-empty password from the terminal without echo.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// GetPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ClearPassword wipes the in-memory password.
func ClearPassword() {
	clear(passwordBytes)
	passwordBytes = nil
}
