package wallet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Well-known throwaway key. Never fund this account.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testKeyAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestNewLocalWalletFromHex(t *testing.T) {
	w, err := NewLocalWallet(LocalWalletConfig{PrivateKeyHex: testKeyHex})
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	if w.AccountID() != testKeyAddress {
		t.Fatalf("AccountID = %q, want %q", w.AccountID(), testKeyAddress)
	}
}

func TestNewLocalWalletStripsHexPrefix(t *testing.T) {
	w, err := NewLocalWallet(LocalWalletConfig{PrivateKeyHex: "0x" + testKeyHex})
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	if w.AccountID() != testKeyAddress {
		t.Fatalf("AccountID = %q, want %q", w.AccountID(), testKeyAddress)
	}
}

func TestNewLocalWalletFromKeyFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.hex")
	if err := os.WriteFile(keyFile, []byte(testKeyHex+"\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	w, err := NewLocalWallet(LocalWalletConfig{PrivateKeyFile: keyFile})
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	if w.AccountID() != testKeyAddress {
		t.Fatalf("AccountID = %q, want %q", w.AccountID(), testKeyAddress)
	}
}

func TestNewLocalWalletMissingKey(t *testing.T) {
	_, err := NewLocalWallet(LocalWalletConfig{})
	if err == nil {
		t.Fatal("expected error for missing key material")
	}
	if !strings.Contains(err.Error(), "missing signing key") {
		t.Fatalf("error = %v, want missing signing key", err)
	}
}

func TestNewLocalWalletInvalidHex(t *testing.T) {
	_, err := NewLocalWallet(LocalWalletConfig{PrivateKeyHex: "not-a-key"})
	if err == nil {
		t.Fatal("expected error for invalid hex key")
	}
}

func TestSubmitReturnsStableHashPerRequest(t *testing.T) {
	w, err := NewLocalWallet(LocalWalletConfig{PrivateKeyHex: testKeyHex})
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}

	req := TransferRequest{
		Chain:       "ethereum",
		Action:      "arb_alert_and_swap",
		Amount:      "1",
		Recipient:   "zs1validatedshieldedpooladdress000000000000000000000000000000000000",
		PrivacyMode: "shielded",
	}
	first, err := w.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(first, "0x") || len(first) != 66 {
		t.Fatalf("hash = %q, want 0x-prefixed 32-byte hex", first)
	}

	second, err := w.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first != second {
		t.Fatalf("hash not stable for identical request: %q vs %q", first, second)
	}

	req.Amount = "2"
	third, err := w.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if third == first {
		t.Fatal("hash did not change for a different request")
	}
}

func TestSubmitHonorsCancelledContext(t *testing.T) {
	w, err := NewLocalWallet(LocalWalletConfig{PrivateKeyHex: testKeyHex})
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Submit(ctx, TransferRequest{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
