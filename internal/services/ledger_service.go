package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/amqp"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/chain"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

// recordRetries bounds head-conflict retries before giving up and
// surfacing the conflict to the caller.
const recordRetries = 3

// LedgerService orchestrates transaction recording: append to the hash
// chain (with conflict retry) and announce the new entry on the broker.
type LedgerService struct {
	ledger     *chain.Ledger
	amqpClient *amqp.Client
}

func NewLedgerService(ledger *chain.Ledger, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		ledger:     ledger,
		amqpClient: amqpClient,
	}
}

// Record appends a transaction for the account, re-reading the chain head
// and retrying a bounded number of times when a concurrent append wins the
// race. The broker announcement is best-effort: the entry is chained and
// persisted either way.
func (s *LedgerService) Record(ctx context.Context, accountID int64, fields chain.Fields) (core.Transaction, error) {
	var tx core.Transaction
	for attempt := 0; ; attempt++ {
		head, err := s.ledger.Head(ctx, accountID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("observe chain head: %w", err)
		}

		tx, err = s.ledger.Append(ctx, accountID, head, fields)
		if err == nil {
			break
		}
		if !errors.Is(err, core.ErrChainConflict) || attempt+1 >= recordRetries {
			return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
		}

		slog.WarnContext(ctx, "Chain head moved during append, retrying",
			"account_id", accountID,
			"attempt", attempt+1)
	}

	if err := s.publishRecorded(ctx, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction recorded message",
			"account_id", accountID,
			"id", tx.ID,
			"error", err)
		// Don't fail the request - the transaction is chained and saved
	}

	return tx, nil
}

func (s *LedgerService) publishRecorded(ctx context.Context, tx core.Transaction) error {
	if s.amqpClient == nil {
		return nil
	}
	msg := amqp.NewTransactionRecordedMessage(tx.AccountID, tx.ID, tx.Seq, tx.Hash)
	return s.amqpClient.PublishTransactionRecorded(ctx, msg)
}
