package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ggonzalez94/arbchat/internal/arb"
	"github.com/ggonzalez94/arbchat/internal/chat"
	"github.com/ggonzalez94/arbchat/internal/config"
	clierr "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/forge"
	"github.com/ggonzalez94/arbchat/internal/model"
	"github.com/ggonzalez94/arbchat/internal/wallet"
)

// State is the turn lifecycle phase of a chat session. A session processes
// one turn at a time; overlapping sends are rejected, never queued.
type State string

const (
	StateIdle             State = "idle"
	StateSubmitting       State = "submitting"
	StateAwaitingResponse State = "awaiting_response"
	StateExecuting        State = "executing"
)

// Quoter fetches one atomic price snapshot.
type Quoter interface {
	FetchQuote(ctx context.Context) (model.PriceQuote, error)
}

// HistoryLog is the slice of the store the session needs.
type HistoryLog interface {
	AppendMessage(msg model.ChatMessage) error
	Messages(limit int) ([]model.ChatMessage, error)
}

const historyScanLimit = 200

// messageIDs issues ChatMessage IDs that are unique and sort in creation
// order. The fixed-width timestamp and sequence prefix carry the order;
// the uuid suffix carries the uniqueness.
type messageIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
	seq  uint64
}

func (g *messageIDs) next() string {
	g.mu.Lock()
	ts := g.now().UnixNano()
	// Clamp so a clock step backwards cannot reorder IDs within a session.
	if ts < g.last {
		ts = g.last
	}
	g.last = ts
	g.seq++
	n := g.seq
	g.mu.Unlock()
	return fmt.Sprintf("%019d-%06d-%s", ts, n, uuid.NewString())
}

// ChatSession orchestrates the message pipeline: validate, then extract
// the intent and fetch prices concurrently, evaluate, compose, and append
// both sides of the turn to the history.
type ChatSession struct {
	mu    sync.Mutex
	state State

	history HistoryLog
	oracle  Quoter
	wallets *wallet.Session
	forge   *forge.Forge

	settings config.Settings
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func New(history HistoryLog, oracle Quoter, wallets *wallet.Session, f *forge.Forge, settings config.Settings, logger *slog.Logger) *ChatSession {
	if logger == nil {
		logger = slog.Default()
	}
	now := func() time.Time { return time.Now().UTC() }
	return &ChatSession{
		state:    StateIdle,
		history:  history,
		oracle:   oracle,
		wallets:  wallets,
		forge:    f,
		settings: settings,
		logger:   logger,
		now:      now,
		newID:    (&messageIDs{now: now}).next,
	}
}

func (s *ChatSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ChatSession) begin(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return clierr.New(clierr.CodeBusy, "a turn is already in progress")
	}
	s.state = next
	return nil
}

func (s *ChatSession) transition(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Send runs one full chat turn and returns the agent's reply. The user
// message is appended before processing starts, so even a failed turn
// leaves the user's side of the exchange in the history.
func (s *ChatSession) Send(ctx context.Context, text string) (model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, clierr.New(clierr.CodeUsage, "message text is required")
	}
	if err := s.begin(StateSubmitting); err != nil {
		return model.ChatMessage{}, err
	}
	defer s.transition(StateIdle)

	userMsg := model.ChatMessage{
		ID:        s.newID(),
		Role:      model.RoleUser,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.history.AppendMessage(userMsg); err != nil {
		return model.ChatMessage{}, err
	}

	s.transition(StateAwaitingResponse)

	reply, err := s.respond(ctx, text)
	if err != nil {
		return model.ChatMessage{}, err
	}
	reply.ID = s.newID()
	reply.CreatedAt = s.now()
	if err := s.history.AppendMessage(reply); err != nil {
		return model.ChatMessage{}, err
	}
	return reply, nil
}

func (s *ChatSession) respond(ctx context.Context, text string) (model.ChatMessage, error) {
	result := chat.Validate(text)
	if result.Verdict != chat.VerdictProcessable {
		return chat.Compose(result, nil, nil), nil
	}

	var (
		intent   model.ParsedIntent
		quote    model.PriceQuote
		quoteErr error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		intent = chat.Extract(text)
	}()
	go func() {
		defer wg.Done()
		quote, quoteErr = s.oracle.FetchQuote(ctx)
	}()
	wg.Wait()

	if quoteErr != nil {
		if clierr.Is(quoteErr, clierr.CodeOracleUnavailable) {
			s.logger.Warn("price feed unavailable, degrading turn", "error", quoteErr)
			return chat.ComposeOracleFailure(&intent), nil
		}
		return model.ChatMessage{}, quoteErr
	}

	eval, err := arb.Evaluate(intent, quote)
	if err != nil {
		return model.ChatMessage{}, err
	}
	reply := chat.Compose(result, &intent, &eval)

	if s.settings.AutoExecute && eval.IsProfitable && s.wallets.IsConnected() {
		if _, err := s.forge.CreateTransferIntent(ctx, intent, ""); err != nil {
			// The chat turn stands on its own; a failed auto-execute is
			// reported through the log and the tx log stays untouched.
			s.logger.Error("auto-execute failed", "error", err)
		}
	}
	return reply, nil
}

// Execute confirms the most recent parsed intent and forges a transfer
// for it. It runs as its own exclusive turn.
func (s *ChatSession) Execute(ctx context.Context, amount string) (model.TxIntent, error) {
	if err := s.begin(StateExecuting); err != nil {
		return model.TxIntent{}, err
	}
	defer s.transition(StateIdle)

	parsed, err := s.latestIntent()
	if err != nil {
		return model.TxIntent{}, err
	}
	return s.forge.CreateTransferIntent(ctx, parsed, amount)
}

func (s *ChatSession) latestIntent() (model.ParsedIntent, error) {
	messages, err := s.history.Messages(historyScanLimit)
	if err != nil {
		return model.ParsedIntent{}, err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleAgent && messages[i].ParsedIntent != nil {
			return *messages[i].ParsedIntent, nil
		}
	}
	return model.ParsedIntent{}, clierr.New(clierr.CodeUsage, "no parsed request to execute; send a monitoring request first")
}

// History returns the conversation in append order.
func (s *ChatSession) History(limit int) ([]model.ChatMessage, error) {
	return s.history.Messages(limit)
}
