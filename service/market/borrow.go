package market

import (
	"context"

	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// Borrow transfers amount to the borrower, up to the borrowable assets
func (e *Engine) Borrow(ctx context.Context, caller string, amount *uint256.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	if err := e.onlyBorrower(caller); err != nil {
		return err
	}

	return e.mutate(ctx, "borrow", func(s *session) error {
		// raw list lookup, a borrower cannot override its own sanction
		flagged, err := s.engine.sanctions.IsFlaggedByChainalysis(s.ctx, s.market().Borrower)
		if err != nil {
			return err
		}

		if flagged {
			return core.ErrBorrowWhileSanctioned
		}

		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrBorrowFromClosedMarket
		}

		totalAssets, err := s.totalAssets()
		if err != nil {
			return err
		}

		if amount.Gt(s.state.BorrowableAssets(totalAssets)) {
			return core.ErrBorrowAmountTooHigh
		}

		if err := s.hooks().OnBorrow(s.ctx, s.market(), amount, s.state); err != nil {
			return err
		}

		if err := s.transfer(s.market().Address, s.market().Borrower, amount, "borrow"); err != nil {
			return err
		}

		s.emit(core.EventBorrow, map[string]interface{}{"asset_amount": amount})
		return nil
	})
}

// Repay transfers amount from caller into the market. Any account can repay.
func (e *Engine) Repay(ctx context.Context, caller string, amount *uint256.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	if amount.IsZero() {
		return core.ErrNullRepayAmount
	}

	return e.mutate(ctx, "repay", func(s *session) error {
		// assets arrive before the state update so the pending batch sees them
		if err := s.repay(caller, amount); err != nil {
			return err
		}

		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrRepayToClosedMarket
		}

		return s.hooks().OnRepay(s.ctx, s.market(), amount, s.state)
	})
}

func (s *session) repay(caller string, amount *uint256.Int) error {
	if err := s.transfer(caller, s.market().Address, amount, "repay"); err != nil {
		return err
	}

	s.emit(core.EventDebtRepaid, map[string]interface{}{
		"from":         caller,
		"asset_amount": amount,
	})

	return nil
}

// RepayAndProcessUnpaidWithdrawalBatches repays amount, which may be zero,
// then pays up to maxBatches unpaid batches in queue order
func (e *Engine) RepayAndProcessUnpaidWithdrawalBatches(ctx context.Context, caller string, amount *uint256.Int, maxBatches int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	return e.mutate(ctx, "repay_and_process", func(s *session) error {
		if !amount.IsZero() {
			if err := s.repay(caller, amount); err != nil {
				return err
			}
		}

		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrRepayToClosedMarket
		}

		if !amount.IsZero() {
			if err := s.hooks().OnRepay(s.ctx, s.market(), amount, s.state); err != nil {
				return err
			}
		}

		return s.processUnpaidWithdrawalBatches(maxBatches)
	})
}

// ProcessUnpaidWithdrawalBatches pays up to maxBatches unpaid batches
func (e *Engine) ProcessUnpaidWithdrawalBatches(ctx context.Context, maxBatches int) error {
	return e.mutate(ctx, "process_unpaid", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		return s.processUnpaidWithdrawalBatches(maxBatches)
	})
}

// CollectFees sends the withdrawable protocol fees to the fee recipient
func (e *Engine) CollectFees(ctx context.Context) (*uint256.Int, error) {
	var collected *uint256.Int
	err := e.mutate(ctx, "collect_fees", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.AccruedProtocolFees.IsZero() {
			return core.ErrNullFeeAmount
		}

		totalAssets, err := s.totalAssets()
		if err != nil {
			return err
		}

		withdrawableFees := s.state.WithdrawableProtocolFees(totalAssets)
		if withdrawableFees.IsZero() {
			return core.ErrInsufficientReservesForFeeWithdrawal
		}

		s.state.AccruedProtocolFees = *ray.Sub(&s.state.AccruedProtocolFees, withdrawableFees)
		if err := s.transfer(s.market().Address, s.market().FeeRecipient, withdrawableFees, "protocol fees"); err != nil {
			return err
		}

		s.emit(core.EventFeesCollected, map[string]interface{}{"fees_collected": withdrawableFees})
		collected = withdrawableFees
		return nil
	})
	if err != nil {
		return nil, err
	}

	return collected, nil
}

// UpdateState advances and persists the market state
func (e *Engine) UpdateState(ctx context.Context) error {
	return e.mutate(ctx, "update_state", func(s *session) error {
		return s.updateState()
	})
}
