package wallet

import (
	"context"
	"fmt"
	"sync"
	"testing"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
)

type stubWallet struct {
	account string
	submit  func(ctx context.Context, req TransferRequest) (string, error)
}

func (s *stubWallet) AccountID() string { return s.account }

func (s *stubWallet) Submit(ctx context.Context, req TransferRequest) (string, error) {
	if s.submit == nil {
		return "0xdeadbeef", nil
	}
	return s.submit(ctx, req)
}

func stubConnector(w Wallet, err error) Connector {
	return func(ctx context.Context) (Wallet, error) {
		return w, err
	}
}

func TestSessionConnectBindsAccount(t *testing.T) {
	session := NewSession()

	if err := session.Connect(context.Background(), stubConnector(&stubWallet{account: "0xAbc"}, nil)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if session.State() != StateBound {
		t.Fatalf("state = %v, want bound", session.State())
	}
	if !session.IsConnected() {
		t.Fatal("IsConnected = false, want true")
	}
	accountID, ok := session.AccountID()
	if !ok || accountID != "0xAbc" {
		t.Fatalf("AccountID = (%q, %v), want (0xAbc, true)", accountID, ok)
	}
}

func TestSessionConnectIdempotentWhenBound(t *testing.T) {
	session := NewSession()
	calls := 0
	connector := func(ctx context.Context) (Wallet, error) {
		calls++
		return &stubWallet{account: "0xAbc"}, nil
	}

	if err := session.Connect(context.Background(), connector); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := session.Connect(context.Background(), connector); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if calls != 1 {
		t.Fatalf("connector called %d times, want 1", calls)
	}
	if accountID, _ := session.AccountID(); accountID != "0xAbc" {
		t.Fatalf("AccountID = %q, want 0xAbc", accountID)
	}
}

func TestSessionConnectFailureStaysUnbound(t *testing.T) {
	session := NewSession()

	err := session.Connect(context.Background(), stubConnector(nil, fmt.Errorf("no key material")))
	if !clierr.Is(err, clierr.CodeWalletNotConnected) {
		t.Fatalf("error = %v, want CodeWalletNotConnected", err)
	}
	if session.State() != StateUnbound {
		t.Fatalf("state = %v, want unbound", session.State())
	}
	if session.IsConnected() {
		t.Fatal("IsConnected = true, want false")
	}
}

func TestSessionConnectBusyWhileConnecting(t *testing.T) {
	session := NewSession()
	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(ctx context.Context) (Wallet, error) {
		close(started)
		<-release
		return &stubWallet{account: "0xAbc"}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.Connect(context.Background(), slow); err != nil {
			t.Errorf("slow Connect: %v", err)
		}
	}()

	<-started
	err := session.Connect(context.Background(), stubConnector(&stubWallet{account: "0xDef"}, nil))
	if !clierr.Is(err, clierr.CodeBusy) {
		t.Fatalf("overlapping Connect error = %v, want CodeBusy", err)
	}
	close(release)
	wg.Wait()

	if session.State() != StateBound {
		t.Fatalf("state = %v, want bound after slow connect finishes", session.State())
	}
	if accountID, _ := session.AccountID(); accountID != "0xAbc" {
		t.Fatalf("AccountID = %q, want the slow connector's account", accountID)
	}
}

func TestSessionDisconnectResetsState(t *testing.T) {
	session := NewSession()
	if err := session.Connect(context.Background(), stubConnector(&stubWallet{account: "0xAbc"}, nil)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	session.Disconnect()

	if session.State() != StateUnbound {
		t.Fatalf("state = %v, want unbound", session.State())
	}
	if _, _, ok := session.Wallet(); ok {
		t.Fatal("Wallet returned ok after Disconnect")
	}
	if _, ok := session.AccountID(); ok {
		t.Fatal("AccountID returned ok after Disconnect")
	}
}

func TestSessionWalletSnapshot(t *testing.T) {
	session := NewSession()

	if _, _, ok := session.Wallet(); ok {
		t.Fatal("Wallet returned ok before Connect")
	}
	if err := session.Connect(context.Background(), stubConnector(&stubWallet{account: "0xAbc"}, nil)); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	w, accountID, ok := session.Wallet()
	if !ok {
		t.Fatal("Wallet returned !ok after Connect")
	}
	if accountID != "0xAbc" {
		t.Fatalf("accountID = %q, want 0xAbc", accountID)
	}
	if w.AccountID() != "0xAbc" {
		t.Fatalf("wallet AccountID = %q, want 0xAbc", w.AccountID())
	}
}
