// Package credits owns the per-user credit balance.
package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

var (
	ErrInvalidAmount   = common.NewAppError("INVALID_AMOUNT", "credit amount must be positive", common.ErrInvalidInput)
	ErrNegativeBalance = common.NewAppError("NEGATIVE_BALANCE", "adjustment would make the balance negative", common.ErrFailedPrecondition)
)

// InsufficientCreditsError reports a reservation the balance cannot cover.
type InsufficientCreditsError struct {
	Needed int
	Have   int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Needed, e.Have)
}

func (e *InsufficientCreditsError) Unwrap() error { return common.ErrPaymentRequired }

// IsInsufficient unwraps err into an *InsufficientCreditsError.
func IsInsufficient(err error) (*InsufficientCreditsError, bool) {
	var ie *InsufficientCreditsError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// TxFunc runs inside the reservation transaction.
type TxFunc func(ctx context.Context) error

// Transactor runs fn in a transaction carried by ctx.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Ledger debits and credits user balances. The balance never goes negative and
// nothing is refunded implicitly.
type Ledger struct {
	tx     Transactor
	users  repository.UserRepository
	logger *slog.Logger
}

func NewLedger(tx Transactor, users repository.UserRepository, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{tx: tx, users: users, logger: logger}
}

// Reserve debits amount from userID and returns the new balance. The within
// callbacks run in the same transaction, so their writes commit only together
// with the debit.
func (l *Ledger) Reserve(ctx context.Context, userID uuid.UUID, amount int, within ...TxFunc) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		have, err := l.users.Credits(ctx, userID)
		if err != nil {
			return err
		}
		if have < amount {
			return &InsufficientCreditsError{Needed: amount, Have: have}
		}
		ok, err := l.users.DebitCredits(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !ok {
			// balance moved between read and write
			cur, err := l.users.Credits(ctx, userID)
			if err != nil {
				return err
			}
			return &InsufficientCreditsError{Needed: amount, Have: cur}
		}
		balance = have - amount
		for _, fn := range within {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if ie, ok := IsInsufficient(err); ok {
			l.logger.Info("credits.reserve.insufficient", "user_id", userID, "needed", ie.Needed, "have", ie.Have)
		} else {
			l.logger.Error("credits.reserve.error", "user_id", userID, "amount", amount, "error", err)
		}
		return 0, err
	}
	l.logger.Info("credits.reserve.ok", "user_id", userID, "amount", amount, "balance", balance)
	return balance, nil
}

// Adjust applies an administrative grant (delta > 0) or deduction (delta < 0).
func (l *Ledger) Adjust(ctx context.Context, userID uuid.UUID, delta int, reason string) (int, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	var balance int
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := l.users.AddCredits(ctx, userID, delta)
		if err != nil {
			return err
		}
		if !ok {
			if _, err := l.users.GetByID(ctx, userID); err != nil {
				return err
			}
			return ErrNegativeBalance
		}
		balance, err = l.users.Credits(ctx, userID)
		return err
	})
	if err != nil {
		l.logger.Warn("credits.adjust.rejected", "user_id", userID, "delta", delta, "reason", reason, "error", err)
		return 0, err
	}
	l.logger.Info("credits.adjust.ok", "user_id", userID, "delta", delta, "reason", reason, "balance", balance)
	return balance, nil
}

// Balance returns the current balance.
func (l *Ledger) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return l.users.Credits(ctx, userID)
}
