package market

import (
	"context"

	"lending/core"
	"lending/pkg/lending"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// QueueWithdrawal queues amount of the lender's balance into the pending
// batch and returns the batch expiry
func (e *Engine) QueueWithdrawal(ctx context.Context, lender string, amount *uint256.Int) (uint32, error) {
	if err := validAmount(amount); err != nil {
		return 0, err
	}

	var expiry uint32
	err := e.mutate(ctx, "queue_withdrawal", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if err := s.ensureNotSanctioned(lender); err != nil {
			return err
		}

		scaledAmount := s.state.ScaleAmount(amount)
		if scaledAmount.IsZero() {
			return core.ErrNullBurnAmount
		}

		var err error
		expiry, err = s.queueWithdrawal(lender, scaledAmount, amount)
		return err
	})

	return expiry, err
}

// QueueFullWithdrawal queues the lender's whole balance
func (e *Engine) QueueFullWithdrawal(ctx context.Context, lender string) (uint32, error) {
	var expiry uint32
	err := e.mutate(ctx, "queue_full_withdrawal", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if err := s.ensureNotSanctioned(lender); err != nil {
			return err
		}

		account, err := s.account(lender)
		if err != nil {
			return err
		}

		scaledAmount := account.ScaledBalance.Clone()
		if scaledAmount.IsZero() {
			return core.ErrNullBurnAmount
		}

		expiry, err = s.queueWithdrawal(lender, scaledAmount, s.state.NormalizeAmount(scaledAmount))
		return err
	})

	return expiry, err
}

func (s *session) queueWithdrawal(lender string, scaledAmount, normalizedAmount *uint256.Int) (uint32, error) {
	expiry := s.state.PendingWithdrawalExpiry
	if expiry == 0 {
		// withdrawals from a closed market settle right away
		duration := s.market().WithdrawalBatchDuration
		if s.state.IsClosed {
			duration = 0
		}

		expiry = ray.Uint32(ray.Add(ray.New(uint64(s.now)), ray.New(uint64(duration))), "pending_withdrawal_expiry")
		s.state.PendingWithdrawalExpiry = expiry
		s.emit(core.EventWithdrawalBatchCreated, map[string]interface{}{"expiry": expiry})
	}

	if err := s.hooks().OnQueueWithdrawal(s.ctx, s.market(), lender, expiry, scaledAmount, s.state); err != nil {
		return 0, err
	}

	account, err := s.account(lender)
	if err != nil {
		return 0, err
	}

	if account.ScaledBalance.Lt(scaledAmount) {
		return 0, core.ErrInsufficientBalance
	}

	account.ScaledBalance = *ray.Sub(&account.ScaledBalance, scaledAmount)
	s.emit(core.EventTransfer, map[string]interface{}{
		"from":   lender,
		"to":     s.market().Address,
		"amount": normalizedAmount,
	})

	batch, err := s.batch(expiry)
	if err != nil {
		return 0, err
	}

	status, err := s.status(expiry, lender)
	if err != nil {
		return 0, err
	}

	status.ScaledAmount = *ray.Add(&status.ScaledAmount, scaledAmount)
	batch.ScaledTotalAmount = *ray.Add(&batch.ScaledTotalAmount, scaledAmount)
	s.state.ScaledPendingWithdrawals = *ray.Add(&s.state.ScaledPendingWithdrawals, scaledAmount)

	s.emit(core.EventWithdrawalQueued, map[string]interface{}{
		"expiry":            expiry,
		"account":           lender,
		"scaled_amount":     scaledAmount,
		"normalized_amount": normalizedAmount,
	})

	if err := s.payPendingBatch(batch); err != nil {
		return 0, err
	}

	return expiry, nil
}

// ExecuteWithdrawal pays the account its share of the batch payments not
// withdrawn yet. Sanctioned accounts are paid into an escrow.
func (e *Engine) ExecuteWithdrawal(ctx context.Context, account string, expiry uint32) (*uint256.Int, error) {
	var amount *uint256.Int
	err := e.mutate(ctx, "execute_withdrawal", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		var err error
		amount, err = s.executeWithdrawal(account, expiry)
		return err
	})
	if err != nil {
		return nil, err
	}

	return amount, nil
}

// ExecuteWithdrawals executes a withdrawal per (accounts[i], expiries[i])
func (e *Engine) ExecuteWithdrawals(ctx context.Context, accounts []string, expiries []uint32) ([]*uint256.Int, error) {
	if len(accounts) != len(expiries) {
		return nil, core.ErrInvalidArrayLength
	}

	amounts := make([]*uint256.Int, len(accounts))
	err := e.mutate(ctx, "execute_withdrawals", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		for i := range accounts {
			amount, err := s.executeWithdrawal(accounts[i], expiries[i])
			if err != nil {
				return err
			}

			amounts[i] = amount
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return amounts, nil
}

func (s *session) executeWithdrawal(account string, expiry uint32) (*uint256.Int, error) {
	if expiry >= s.now && !s.state.IsClosed {
		return nil, core.ErrWithdrawalBatchNotExpired
	}

	batch, err := s.batch(expiry)
	if err != nil {
		return nil, err
	}

	status, err := s.status(expiry, account)
	if err != nil {
		return nil, err
	}

	newTotalWithdrawn, amount := lending.AccountShareOfBatch(batch, status)
	if amount.IsZero() {
		return nil, core.ErrNullWithdrawalAmount
	}

	if err := s.hooks().OnExecuteWithdrawal(s.ctx, s.market(), account, amount, s.state); err != nil {
		return nil, err
	}

	status.NormalizedAmountWithdrawn = *newTotalWithdrawn
	s.state.NormalizedUnclaimedWithdrawals = *ray.Sub(&s.state.NormalizedUnclaimedWithdrawals, amount)

	sanctioned, err := s.isSanctioned(account)
	if err != nil {
		return nil, err
	}

	if sanctioned {
		escrow, err := s.engine.escrows.CreateEscrowForAccount(s.ctx, s.market().Borrower, account, s.engine.token.AssetID())
		if err != nil {
			return nil, err
		}

		s.escrows[escrow.Address] = escrow
		if err := s.transfer(s.market().Address, escrow.Address, amount, "withdrawal escrow"); err != nil {
			return nil, err
		}

		s.emit(core.EventSanctionedAccountWithdrawalSentToEscrow, map[string]interface{}{
			"account": account,
			"escrow":  escrow.Address,
			"expiry":  expiry,
			"amount":  amount,
		})
	} else if err := s.transfer(s.market().Address, account, amount, "withdrawal"); err != nil {
		return nil, err
	}

	s.emit(core.EventWithdrawalExecuted, map[string]interface{}{
		"expiry":            expiry,
		"account":           account,
		"normalized_amount": amount,
	})

	return amount, nil
}

// BlockSanctionedAccount queues the whole balance of a sanctioned lender.
// Fails with ErrBadLaunchCode when the account is not sanctioned.
func (e *Engine) BlockSanctionedAccount(ctx context.Context, account string) error {
	return e.mutate(ctx, "block_sanctioned_account", func(s *session) error {
		sanctioned, err := s.isSanctioned(account)
		if err != nil {
			return err
		}

		if !sanctioned {
			return core.ErrBadLaunchCode
		}

		if err := s.updateState(); err != nil {
			return err
		}

		if err := s.hooks().OnBlockAccount(s.ctx, s.market(), account, s.state); err != nil {
			return err
		}

		a, err := s.account(account)
		if err != nil {
			return err
		}

		if scaledBalance := a.ScaledBalance.Clone(); !scaledBalance.IsZero() {
			if _, err := s.queueWithdrawal(account, scaledBalance, s.state.NormalizeAmount(scaledBalance)); err != nil {
				return err
			}
		}

		s.emit(core.EventAccountSanctioned, map[string]interface{}{"account": account})
		return nil
	})
}
