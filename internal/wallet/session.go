package wallet

import (
	"context"
	"sync"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
)

// State is the wallet session lifecycle phase.
type State string

const (
	StateUnbound    State = "unbound"
	StateConnecting State = "connecting"
	StateBound      State = "bound"
)

// Session is the single process-wide binding between the app and a signing
// account. All components read connection state through it; no two holders
// may see divergent views, so every transition and read is mutex-exclusive.
type Session struct {
	mu        sync.Mutex
	state     State
	wallet    Wallet
	accountID string
}

func NewSession() *Session {
	return &Session{state: StateUnbound}
}

// Connect binds a wallet through the connector. It is idempotent when
// already bound and rejects overlapping connection attempts.
func (s *Session) Connect(ctx context.Context, connect Connector) error {
	s.mu.Lock()
	switch s.state {
	case StateBound:
		s.mu.Unlock()
		return nil
	case StateConnecting:
		s.mu.Unlock()
		return clierr.New(clierr.CodeBusy, "wallet connection already in progress")
	}
	s.state = StateConnecting
	s.mu.Unlock()

	w, err := connect(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateUnbound
		return clierr.Wrap(clierr.CodeWalletNotConnected, "connect wallet", err)
	}
	s.state = StateBound
	s.wallet = w
	s.accountID = w.AccountID()
	return nil
}

func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnbound
	s.wallet = nil
	s.accountID = ""
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateBound
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AccountID returns the bound signer account, or false when unbound.
func (s *Session) AccountID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateBound {
		return "", false
	}
	return s.accountID, true
}

// Wallet returns the bound signer capability together with its account in
// one atomic read, so callers never pair a wallet with a stale account.
func (s *Session) Wallet() (Wallet, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateBound {
		return nil, "", false
	}
	return s.wallet, s.accountID, true
}
