package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "arbchat.db"), filepath.Join(dir, "arbchat.lock"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendMessagePreservesOrder(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	texts := []string{"hi", "Hello! I can help you monitor arbitrage.", "swap zec to eth above 2%"}
	roles := []model.Role{model.RoleUser, model.RoleAgent, model.RoleUser}
	for i, text := range texts {
		err := s.AppendMessage(model.ChatMessage{
			ID:        fmt.Sprintf("msg-%d", i+1),
			Role:      roles[i],
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
	}

	messages, err := s.Messages(10)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	for i, msg := range messages {
		if msg.Text != texts[i] {
			t.Fatalf("messages[%d].Text = %q, want %q", i, msg.Text, texts[i])
		}
		if msg.Role != roles[i] {
			t.Fatalf("messages[%d].Role = %q, want %q", i, msg.Role, roles[i])
		}
	}
}

func TestMessagesLimitKeepsTail(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := s.AppendMessage(model.ChatMessage{
			ID:        fmt.Sprintf("msg-%d", i+1),
			Role:      model.RoleUser,
			Text:      fmt.Sprintf("message %d", i+1),
			CreatedAt: base,
		})
		if err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
	}

	messages, err := s.Messages(2)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Text != "message 4" || messages[1].Text != "message 5" {
		t.Fatalf("tail = [%q, %q], want last two messages in order", messages[0].Text, messages[1].Text)
	}
}

func TestAppendMessageRejectsMissingID(t *testing.T) {
	s := openTestStore(t)
	err := s.AppendMessage(model.ChatMessage{Role: model.RoleUser, Text: "hi", CreatedAt: time.Now()})
	if !apperrors.Is(err, apperrors.CodeStorage) {
		t.Fatalf("error = %v, want CodeStorage", err)
	}
}

func TestAppendIntentAndList(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.AppendIntent(model.TxIntent{
			ID:          fmt.Sprintf("intent-%d", i+1),
			Hash:        fmt.Sprintf("0x%064d", i+1),
			SourceAsset: "zcash",
			Amount:      "1",
			Recipient:   "zs1...",
			PrivacyMode: model.PrivacyShielded,
			AccountID:   "0xAbc",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendIntent %d: %v", i, err)
		}
	}

	intents, err := s.Intents(2)
	if err != nil {
		t.Fatalf("Intents: %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("len(intents) = %d, want 2", len(intents))
	}
	if intents[0].ID != "intent-3" || intents[1].ID != "intent-2" {
		t.Fatalf("intents = [%q, %q], want newest first", intents[0].ID, intents[1].ID)
	}
	if intents[0].PrivacyMode != model.PrivacyShielded {
		t.Fatalf("PrivacyMode = %q, want shielded", intents[0].PrivacyMode)
	}
}

func TestAppendScanTrimsWindow(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		err := s.AppendScan(model.PriceScan{
			Timestamp:   base.Add(time.Duration(i) * 15 * time.Second),
			ZcashUSD:    80,
			EthereumUSD: 84 + float64(i),
			SolanaUSD:   81,
			ArbPercent:  float64(i),
		}, 3)
		if err != nil {
			t.Fatalf("AppendScan %d: %v", i, err)
		}
	}

	scans, err := s.Scans(10)
	if err != nil {
		t.Fatalf("Scans: %v", err)
	}
	if len(scans) != 3 {
		t.Fatalf("len(scans) = %d, want window of 3", len(scans))
	}
	if scans[0].ArbPercent != 5 || scans[2].ArbPercent != 3 {
		t.Fatalf("scans kept wrong window: newest = %v, oldest = %v", scans[0].ArbPercent, scans[2].ArbPercent)
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested", "data", "arbchat.db"), filepath.Join(dir, "nested", "locks", "arbchat.lock"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.AppendScan(model.PriceScan{Timestamp: time.Now()}, 10); err != nil {
		t.Fatalf("AppendScan: %v", err)
	}
}
