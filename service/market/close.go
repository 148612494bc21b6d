package market

import (
	"context"

	"lending/core"
	"lending/pkg/ray"
)

// CloseMarket settles the market for good. The borrower covers any shortfall
// or gets the surplus back, the rate drops to zero, the reserve ratio goes to
// 100% and every pending and unpaid batch is paid in full.
func (e *Engine) CloseMarket(ctx context.Context, caller string) error {
	if err := e.onlyBorrower(caller); err != nil {
		return err
	}

	return e.mutate(ctx, "close_market", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrMarketAlreadyClosed
		}

		currentlyHeld, err := s.totalAssets()
		if err != nil {
			return err
		}

		borrower := s.market().Borrower
		totalDebts := s.state.TotalDebts()
		switch {
		case currentlyHeld.Lt(totalDebts):
			shortfall := ray.Sub(totalDebts, currentlyHeld)
			if err := s.transfer(borrower, s.market().Address, shortfall, "close market"); err != nil {
				return err
			}
			currentlyHeld = ray.Add(currentlyHeld, shortfall)
		case currentlyHeld.Gt(totalDebts):
			surplus := ray.Sub(currentlyHeld, totalDebts)
			if err := s.transfer(s.market().Address, borrower, surplus, "close market refund"); err != nil {
				return err
			}
			currentlyHeld = ray.Sub(currentlyHeld, surplus)
		}

		if err := s.hooks().OnCloseMarket(s.ctx, s.market(), s.state); err != nil {
			return err
		}

		s.state.AnnualInterestBips = 0
		s.state.IsClosed = true
		s.state.ReserveRatioBips = core.MaxBips
		s.state.TimeDelinquent = 0

		// saturating: held assets cover total debts at this point
		available := ray.SatSub(currentlyHeld, ray.Add(&s.state.NormalizedUnclaimedWithdrawals, &s.state.AccruedProtocolFees))

		if expiry := s.state.PendingWithdrawalExpiry; expiry != 0 {
			batch, err := s.batch(expiry)
			if err != nil {
				return err
			}

			if !batch.IsClosed() {
				paid := s.applyWithdrawalBatchPayment(batch, available)
				available = ray.SatSub(available, paid)
			}
		}

		q, err := s.unpaidQueue()
		if err != nil {
			return err
		}

		for !q.Empty() {
			expiry, err := q.First()
			if err != nil {
				return err
			}

			batch, err := s.batch(expiry)
			if err != nil {
				return err
			}

			paid := s.applyWithdrawalBatchPayment(batch, available)
			available = ray.SatSub(available, paid)

			if _, err := q.Shift(); err != nil {
				return err
			}

			s.unpaidDirty = true
			s.emit(core.EventWithdrawalBatchClosed, map[string]interface{}{"expiry": expiry})
		}

		if !s.state.ScaledPendingWithdrawals.IsZero() {
			return core.ErrCloseMarketWithUnpaidWithdrawals
		}

		s.emit(core.EventMarketClosed, map[string]interface{}{"timestamp": s.now})
		return nil
	})
}
