package forge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	apperrors "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/model"
	"github.com/ggonzalez94/arbchat/internal/wallet"
)

type stubWallet struct {
	account  string
	lastReq  wallet.TransferRequest
	hash     string
	submitFn func(ctx context.Context, req wallet.TransferRequest) (string, error)
}

func (s *stubWallet) AccountID() string { return s.account }

func (s *stubWallet) Submit(ctx context.Context, req wallet.TransferRequest) (string, error) {
	s.lastReq = req
	if s.submitFn != nil {
		return s.submitFn(ctx, req)
	}
	return s.hash, nil
}

type memoryLog struct {
	intents []model.TxIntent
	fail    bool
}

func (m *memoryLog) AppendIntent(intent model.TxIntent) error {
	if m.fail {
		return apperrors.New(apperrors.CodeStorage, "append intent: disk full")
	}
	m.intents = append(m.intents, intent)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func boundSession(t *testing.T, w wallet.Wallet) *wallet.Session {
	t.Helper()
	session := wallet.NewSession()
	err := session.Connect(context.Background(), func(ctx context.Context) (wallet.Wallet, error) {
		return w, nil
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return session
}

func monitoringIntent() model.ParsedIntent {
	return model.ParsedIntent{
		Action:           model.ActionArbAlertAndSwap,
		SourceAsset:      "zcash",
		TargetAsset:      "ethereum",
		TargetChain:      "ethereum",
		ThresholdPercent: 2,
		PrivacyMode:      model.PrivacyShielded,
	}
}

func TestCreateTransferIntent(t *testing.T) {
	w := &stubWallet{account: "0xAbc", hash: "0x" + fmt.Sprintf("%064d", 7)}
	log := &memoryLog{}
	f := New(boundSession(t, w), log, testLogger())

	intent, err := f.CreateTransferIntent(context.Background(), monitoringIntent(), "1.5")
	if err != nil {
		t.Fatalf("CreateTransferIntent: %v", err)
	}
	if intent.ID == "" {
		t.Fatal("intent ID is empty")
	}
	if intent.Hash != w.hash {
		t.Fatalf("Hash = %q, want %q", intent.Hash, w.hash)
	}
	if intent.AccountID != "0xAbc" {
		t.Fatalf("AccountID = %q, want 0xAbc", intent.AccountID)
	}
	if intent.Recipient != ShieldedPoolRecipient {
		t.Fatalf("Recipient = %q, want shielded pool", intent.Recipient)
	}
	if intent.PrivacyMode != model.PrivacyShielded {
		t.Fatalf("PrivacyMode = %q, want shielded", intent.PrivacyMode)
	}
	if intent.Amount != "1.5" {
		t.Fatalf("Amount = %q, want 1.5", intent.Amount)
	}
	if w.lastReq.Chain != "ethereum" || w.lastReq.Action != model.ActionArbAlertAndSwap {
		t.Fatalf("submitted request = %+v, want target chain and action carried through", w.lastReq)
	}
	if len(log.intents) != 1 {
		t.Fatalf("logged %d intents, want 1", len(log.intents))
	}
}

func TestCreateTransferIntentDefaultsAmount(t *testing.T) {
	w := &stubWallet{account: "0xAbc", hash: "0xfeed"}
	f := New(boundSession(t, w), &memoryLog{}, testLogger())

	intent, err := f.CreateTransferIntent(context.Background(), monitoringIntent(), "  ")
	if err != nil {
		t.Fatalf("CreateTransferIntent: %v", err)
	}
	if intent.Amount != "1" {
		t.Fatalf("Amount = %q, want default 1", intent.Amount)
	}
}

func TestCreateTransferIntentRequiresWallet(t *testing.T) {
	session := wallet.NewSession()
	log := &memoryLog{}
	f := New(session, log, testLogger())

	_, err := f.CreateTransferIntent(context.Background(), monitoringIntent(), "1")
	if !apperrors.Is(err, apperrors.CodeWalletNotConnected) {
		t.Fatalf("error = %v, want CodeWalletNotConnected", err)
	}
	if len(log.intents) != 0 {
		t.Fatalf("logged %d intents, want 0", len(log.intents))
	}
}

func TestCreateTransferIntentSubmitFailureNotLogged(t *testing.T) {
	w := &stubWallet{account: "0xAbc", submitFn: func(ctx context.Context, req wallet.TransferRequest) (string, error) {
		return "", fmt.Errorf("signer rejected payload")
	}}
	log := &memoryLog{}
	f := New(boundSession(t, w), log, testLogger())

	_, err := f.CreateTransferIntent(context.Background(), monitoringIntent(), "1")
	if !apperrors.Is(err, apperrors.CodeSubmission) {
		t.Fatalf("error = %v, want CodeSubmission", err)
	}
	if len(log.intents) != 0 {
		t.Fatalf("logged %d intents, want 0 after failed submit", len(log.intents))
	}
}

func TestCreateTransferIntentStorageFailure(t *testing.T) {
	w := &stubWallet{account: "0xAbc", hash: "0xfeed"}
	f := New(boundSession(t, w), &memoryLog{fail: true}, testLogger())

	_, err := f.CreateTransferIntent(context.Background(), monitoringIntent(), "1")
	if !apperrors.Is(err, apperrors.CodeStorage) {
		t.Fatalf("error = %v, want CodeStorage", err)
	}
}
