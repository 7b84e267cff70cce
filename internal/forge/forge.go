package forge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/model"
	"github.com/ggonzalez94/arbchat/internal/wallet"
)

// ShieldedPoolRecipient is the validated shielded-pool destination for
// private transfers. Every forged intent targets this address.
const ShieldedPoolRecipient = "zs1arbchatshieldedpool0000000000000000000000000000000000000000000000000000000"

const defaultAmount = "1"

// IntentLog is the slice of the tx log the forge needs.
type IntentLog interface {
	AppendIntent(intent model.TxIntent) error
}

// Forge turns a confirmed monitoring intent into a signed transfer intent
// bound to the connected wallet account.
type Forge struct {
	session *wallet.Session
	log     IntentLog
	logger  *slog.Logger
	now     func() time.Time
}

func New(session *wallet.Session, log IntentLog, logger *slog.Logger) *Forge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forge{
		session: session,
		log:     log,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTransferIntent submits a shielded transfer for the given parsed
// intent and records it in the tx log. It fails with a wallet error when
// no account is bound; nothing is logged unless submission succeeds.
func (f *Forge) CreateTransferIntent(ctx context.Context, parsed model.ParsedIntent, amount string) (model.TxIntent, error) {
	w, accountID, ok := f.session.Wallet()
	if !ok {
		return model.TxIntent{}, apperrors.New(apperrors.CodeWalletNotConnected, "connect a wallet before executing a transfer")
	}
	if strings.TrimSpace(amount) == "" {
		amount = defaultAmount
	}

	req := wallet.TransferRequest{
		Chain:       parsed.TargetChain,
		Action:      parsed.Action,
		Amount:      amount,
		Recipient:   ShieldedPoolRecipient,
		PrivacyMode: model.PrivacyShielded,
	}
	hash, err := w.Submit(ctx, req)
	if err != nil {
		return model.TxIntent{}, apperrors.Wrap(apperrors.CodeSubmission, "submit transfer intent", err)
	}

	intent := model.TxIntent{
		ID:          uuid.NewString(),
		Hash:        hash,
		SourceAsset: parsed.SourceAsset,
		Amount:      amount,
		Recipient:   ShieldedPoolRecipient,
		PrivacyMode: model.PrivacyShielded,
		AccountID:   accountID,
		CreatedAt:   f.now(),
	}
	if err := f.log.AppendIntent(intent); err != nil {
		return model.TxIntent{}, err
	}
	f.logger.Info("transfer intent forged",
		"intent_id", intent.ID,
		"tx_hash", intent.Hash,
		"account_id", intent.AccountID,
		"chain", parsed.TargetChain,
	)
	return intent, nil
}
