package market

import (
	"context"

	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// DepositUpTo deposits up to amount, clamped to the room left under the
// supply ceiling, and returns the amount actually deposited
func (e *Engine) DepositUpTo(ctx context.Context, lender string, amount *uint256.Int) (*uint256.Int, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	var deposited *uint256.Int
	err := e.mutate(ctx, "deposit_up_to", func(s *session) error {
		var err error
		deposited, err = s.depositUpTo(lender, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	return deposited, nil
}

// Deposit deposits exactly amount or fails with ErrMaxSupplyExceeded
func (e *Engine) Deposit(ctx context.Context, lender string, amount *uint256.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	return e.mutate(ctx, "deposit", func(s *session) error {
		deposited, err := s.depositUpTo(lender, amount)
		if err != nil {
			return err
		}

		if !deposited.Eq(amount) {
			return core.ErrMaxSupplyExceeded
		}

		return nil
	})
}

func (s *session) depositUpTo(lender string, amount *uint256.Int) (*uint256.Int, error) {
	if err := s.updateState(); err != nil {
		return nil, err
	}

	if s.state.IsClosed {
		return nil, core.ErrDepositToClosedMarket
	}

	if err := s.ensureNotSanctioned(lender); err != nil {
		return nil, err
	}

	amount = ray.Min(amount, s.state.MaximumDeposit())

	scaledAmount := s.state.ScaleAmount(amount)
	if scaledAmount.IsZero() {
		return nil, core.ErrNullMintAmount
	}

	if err := s.hooks().OnDeposit(s.ctx, s.market(), lender, scaledAmount, s.state); err != nil {
		return nil, err
	}

	if err := s.transfer(lender, s.market().Address, amount, "deposit"); err != nil {
		return nil, err
	}

	account, err := s.account(lender)
	if err != nil {
		return nil, err
	}

	account.ScaledBalance = *ray.Add(&account.ScaledBalance, scaledAmount)
	s.state.ScaledTotalSupply = *ray.Add(&s.state.ScaledTotalSupply, scaledAmount)

	s.emit(core.EventTransfer, map[string]interface{}{
		"from":   "",
		"to":     lender,
		"amount": amount,
	})
	s.emit(core.EventDeposit, map[string]interface{}{
		"account":       lender,
		"asset_amount":  amount,
		"scaled_amount": scaledAmount,
	})

	return amount, nil
}

// Transfer moves market tokens worth amount from one lender to another
func (e *Engine) Transfer(ctx context.Context, from, to string, amount *uint256.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	return e.mutate(ctx, "transfer", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if err := s.ensureNotSanctioned(from, to); err != nil {
			return err
		}

		scaledAmount := s.state.ScaleAmount(amount)
		if scaledAmount.IsZero() {
			return core.ErrNullTransferAmount
		}

		if err := s.hooks().OnTransfer(s.ctx, s.market(), from, to, scaledAmount, s.state); err != nil {
			return err
		}

		sender, err := s.account(from)
		if err != nil {
			return err
		}

		if sender.ScaledBalance.Lt(scaledAmount) {
			return core.ErrInsufficientBalance
		}

		sender.ScaledBalance = *ray.Sub(&sender.ScaledBalance, scaledAmount)

		recipient, err := s.account(to)
		if err != nil {
			return err
		}

		recipient.ScaledBalance = *ray.Add(&recipient.ScaledBalance, scaledAmount)

		s.emit(core.EventTransfer, map[string]interface{}{
			"from":   from,
			"to":     to,
			"amount": amount,
		})

		return nil
	})
}
