package market

import (
	"context"

	"lending/core"
	"lending/pkg/lending"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// CurrentState state as of now, not persisted
func (e *Engine) CurrentState(ctx context.Context) (*core.MarketState, error) {
	var state core.MarketState
	err := e.view(ctx, "current_state", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		state = s.state
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// Summary aggregate figures as of now
func (e *Engine) Summary(ctx context.Context) (*core.MarketSummary, error) {
	var summary core.MarketSummary
	err := e.view(ctx, "summary", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		totalAssets, err := s.totalAssets()
		if err != nil {
			return err
		}

		state := &s.state
		summary = core.MarketSummary{
			Timestamp: s.now,
			State:     *state,
		}
		summary.TotalAssets.Set(totalAssets)
		summary.TotalSupply.Set(state.TotalSupply())
		summary.TotalDebts.Set(state.TotalDebts())
		summary.MaximumDeposit.Set(state.MaximumDeposit())
		summary.BorrowableAssets.Set(state.BorrowableAssets(totalAssets))
		summary.OutstandingDebt.Set(ray.SatSub(state.TotalDebts(), totalAssets))
		summary.DelinquentDebt.Set(ray.SatSub(state.LiquidityRequired(), totalAssets))
		summary.CoverageLiquidity.Set(state.LiquidityRequired())
		summary.WithdrawableProtocolFees.Set(state.WithdrawableProtocolFees(totalAssets))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// BalanceOf normalized balance of account
func (e *Engine) BalanceOf(ctx context.Context, account string) (*uint256.Int, error) {
	var balance *uint256.Int
	err := e.view(ctx, "balance_of", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		a, err := s.account(account)
		if err != nil {
			return err
		}

		balance = s.state.NormalizeAmount(&a.ScaledBalance)
		return nil
	})

	return balance, err
}

// ScaledBalanceOf scaled balance of account
func (e *Engine) ScaledBalanceOf(ctx context.Context, account string) (*uint256.Int, error) {
	var balance *uint256.Int
	err := e.view(ctx, "scaled_balance_of", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		a, err := s.account(account)
		if err != nil {
			return err
		}

		balance = a.ScaledBalance.Clone()
		return nil
	})

	return balance, err
}

// WithdrawalBatch batch as of now, pending payments applied
func (e *Engine) WithdrawalBatch(ctx context.Context, expiry uint32) (*core.WithdrawalBatch, error) {
	var batch core.WithdrawalBatch
	err := e.view(ctx, "withdrawal_batch", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		b, err := s.batch(expiry)
		if err != nil {
			return err
		}

		batch = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &batch, nil
}

// AccountWithdrawalStatus account share of a batch
func (e *Engine) AccountWithdrawalStatus(ctx context.Context, account string, expiry uint32) (*core.AccountWithdrawalStatus, error) {
	var status core.AccountWithdrawalStatus
	err := e.view(ctx, "account_withdrawal_status", func(s *session) error {
		st, err := s.status(expiry, account)
		if err != nil {
			return err
		}

		status = *st
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &status, nil
}

// AvailableWithdrawalAmount amount ExecuteWithdrawal would pay out now
func (e *Engine) AvailableWithdrawalAmount(ctx context.Context, account string, expiry uint32) (*uint256.Int, error) {
	var amount *uint256.Int
	err := e.view(ctx, "available_withdrawal_amount", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if expiry >= s.now && !s.state.IsClosed {
			return core.ErrWithdrawalBatchNotExpired
		}

		batch, err := s.batch(expiry)
		if err != nil {
			return err
		}

		status, err := s.status(expiry, account)
		if err != nil {
			return err
		}

		_, amount = lending.AccountShareOfBatch(batch, status)
		return nil
	})

	return amount, err
}

// UnpaidBatchExpiries expiries of unpaid batches, oldest first
func (e *Engine) UnpaidBatchExpiries(ctx context.Context) ([]uint32, error) {
	var expiries []uint32
	err := e.view(ctx, "unpaid_batch_expiries", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		q, err := s.unpaidQueue()
		if err != nil {
			return err
		}

		expiries = q.Values()
		return nil
	})

	return expiries, err
}
