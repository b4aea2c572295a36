package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/common"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the vault password is prompted at runtime and stored in memory - use GetVaultPasswordBytes()
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DataDir  string `envconfig:"DATA_DIR" default:"./data"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// json or console
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	AlgodURL           string `envconfig:"ALGOD_URL" default:"https://testnet-api.algonode.cloud"`
	AlgodToken         string `envconfig:"ALGOD_TOKEN"`
	ConfirmationRounds uint64 `envconfig:"CONFIRMATION_ROUNDS" default:"4"`
	PayCooldownSeconds int    `envconfig:"PAY_COOLDOWN_SECONDS" default:"0"`

	GeneratorURL string `envconfig:"GENERATOR_URL"`
	EncryptURL   string `envconfig:"ENCRYPT_URL"`
	ProvisionURL string `envconfig:"PROVISION_URL"`

	SupabaseURL     string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY" required:"true"`
	// When set, rows are read and written directly through Postgres instead of PostgREST
	DatabaseURL string `envconfig:"DATABASE_URL"`

	DocumentsBucket string        `envconfig:"DOCUMENTS_BUCKET" default:"documents"`
	SignedURLTTL    time.Duration `envconfig:"SIGNED_URL_TTL" default:"1h"`

	AnchorConsents    bool          `envconfig:"ANCHOR_CONSENTS" default:"true"`
	AppFundingALGO    string        `envconfig:"APP_FUNDING_ALGO" default:"0.2"`
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"5m"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	// scrypt cost for newly created vaults, log2
	KDFLogN int `envconfig:"KDF_N" default:"18"`
}

// cfg is the global configuration instance
var cfg *Config

// Load reads a .env file when present and processes environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if c.ConfirmationRounds == 0 {
		return nil, errors.New("CONFIRMATION_ROUNDS must be positive")
	}
	if _, err := common.ALGOToMicro(c.AppFundingALGO); err != nil {
		return nil, fmt.Errorf("APP_FUNDING_ALGO is not a valid ALGO amount %q: %w", c.AppFundingALGO, err)
	}
	if c.KDFLogN < 10 || c.KDFLogN > 22 {
		return nil, fmt.Errorf("KDF_N must be between 10 and 22, got %d", c.KDFLogN)
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

// VaultPath returns path to the encrypted credential vault
func (c *Config) VaultPath() string {
	return filepath.Join(c.DataDir, "vault.cwt")
}

// TransactionLogPath returns path to the local transaction log
func (c *Config) TransactionLogPath() string {
	return filepath.Join(c.DataDir, "transactions.jsonl")
}

// PreferencesPath returns path to the plain preferences file
func (c *Config) PreferencesPath() string {
	return filepath.Join(c.DataDir, "preferences.json")
}

var passwordBytes []byte

// PromptForPassword prompts the user for the vault password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter vault password: ")
	if err != nil {
		return err
	}
	passwordBytes = raw
	return nil
}

// ReadPassword reads one hidden line from the terminal.
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

// GetVaultPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetVaultPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ForgetPassword wipes the in-memory password
func ForgetPassword() {
	clear(passwordBytes)
	passwordBytes = nil
}
