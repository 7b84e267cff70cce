package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	EnvPrivateKey           = "ARB_PRIVATE_KEY"
	EnvPrivateKeyFile       = "ARB_PRIVATE_KEY_FILE"
	EnvKeystorePath         = "ARB_KEYSTORE_PATH"
	EnvKeystorePassword     = "ARB_KEYSTORE_PASSWORD"
	EnvKeystorePasswordFile = "ARB_KEYSTORE_PASSWORD_FILE"

	defaultPrivateKeyRelativePath = "arbchat/key.hex"
)

// LocalWallet is a key-backed signer. The derived address is the session's
// account identifier; Submit signs the canonical transfer payload and
// derives the intent hash from the signature, so the hash commits to both
// the request and the signer.
type LocalWallet struct {
	privateKey *ecdsa.PrivateKey
	accountID  string
}

func (w *LocalWallet) AccountID() string {
	return w.accountID
}

func (w *LocalWallet) Submit(ctx context.Context, req TransferRequest) (string, error) {
	if w == nil || w.privateKey == nil {
		return "", fmt.Errorf("local wallet is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode transfer request: %w", err)
	}
	digest := crypto.Keccak256(payload)
	sig, err := crypto.Sign(digest, w.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign transfer request: %w", err)
	}
	return "0x" + hex.EncodeToString(crypto.Keccak256(sig)), nil
}

type LocalWalletConfig struct {
	PrivateKeyHex        string
	PrivateKeyFile       string
	KeystorePath         string
	KeystorePassword     string
	KeystorePasswordFile string
}

// NewLocalWalletFromEnv builds a wallet from the ARB_* key environment,
// falling back to the default key file under the user config directory.
func NewLocalWalletFromEnv() (*LocalWallet, error) {
	privateKeyFile := strings.TrimSpace(os.Getenv(EnvPrivateKeyFile))
	if privateKeyFile == "" {
		privateKeyFile = discoverDefaultPrivateKeyFile()
	}
	return NewLocalWallet(LocalWalletConfig{
		PrivateKeyHex:        strings.TrimSpace(os.Getenv(EnvPrivateKey)),
		PrivateKeyFile:       privateKeyFile,
		KeystorePath:         strings.TrimSpace(os.Getenv(EnvKeystorePath)),
		KeystorePassword:     strings.TrimSpace(os.Getenv(EnvKeystorePassword)),
		KeystorePasswordFile: strings.TrimSpace(os.Getenv(EnvKeystorePasswordFile)),
	})
}

func NewLocalWallet(cfg LocalWalletConfig) (*LocalWallet, error) {
	pk, err := loadPrivateKey(cfg)
	if err != nil {
		return nil, err
	}
	pub, ok := pk.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid ECDSA public key")
	}
	addr := crypto.PubkeyToAddress(*pub)
	return &LocalWallet{privateKey: pk, accountID: addr.Hex()}, nil
}

func loadPrivateKey(cfg LocalWalletConfig) (*ecdsa.PrivateKey, error) {
	if strings.TrimSpace(cfg.PrivateKeyHex) != "" {
		return parseHexKey(cfg.PrivateKeyHex)
	}
	if strings.TrimSpace(cfg.PrivateKeyFile) != "" {
		buf, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		return parseHexKey(string(buf))
	}
	if strings.TrimSpace(cfg.KeystorePath) != "" {
		password := cfg.KeystorePassword
		if strings.TrimSpace(password) == "" && strings.TrimSpace(cfg.KeystorePasswordFile) != "" {
			buf, err := os.ReadFile(cfg.KeystorePasswordFile)
			if err != nil {
				return nil, fmt.Errorf("read keystore password file: %w", err)
			}
			password = strings.TrimSpace(string(buf))
		}
		if strings.TrimSpace(password) == "" {
			return nil, fmt.Errorf("keystore password is required")
		}
		buf, err := os.ReadFile(cfg.KeystorePath)
		if err != nil {
			return nil, fmt.Errorf("read keystore file: %w", err)
		}
		key, err := keystore.DecryptKey(buf, password)
		if err != nil {
			return nil, fmt.Errorf("decrypt keystore: %w", err)
		}
		return key.PrivateKey, nil
	}
	return nil, fmt.Errorf("missing signing key: set %s or %s or %s", EnvPrivateKey, EnvPrivateKeyFile, EnvKeystorePath)
}

func parseHexKey(raw string) (*ecdsa.PrivateKey, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return nil, fmt.Errorf("empty private key")
	}
	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return pk, nil
}

func discoverDefaultPrivateKeyFile() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	path := filepath.Join(base, defaultPrivateKeyRelativePath)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}
