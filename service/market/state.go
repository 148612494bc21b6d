package market

import (
	"lending/core"
	"lending/pkg/lending"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// updateState advances the session state to now.
//
// An expired pending batch is settled first, with interest accrued exactly
// up to its expiry, then interest accrues to now and the still open pending
// batch takes whatever liquidity became available.
func (s *session) updateState() error {
	state := &s.state

	if state.HasPendingExpiredBatch(s.now) {
		expiry := state.PendingWithdrawalExpiry
		if expiry != state.LastInterestAccruedTimestamp {
			s.accrue(expiry)
		}

		if err := s.processExpiredWithdrawalBatch(); err != nil {
			return err
		}
	}

	if s.now != state.LastInterestAccruedTimestamp {
		s.accrue(s.now)
	}

	if state.PendingWithdrawalExpiry != 0 {
		batch, err := s.batch(state.PendingWithdrawalExpiry)
		if err != nil {
			return err
		}

		if !batch.IsClosed() {
			if err := s.payPendingBatch(batch); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *session) accrue(asOf uint32) {
	m := s.market()
	accrual := lending.UpdateScaleFactorAndFees(&s.state, m.DelinquencyFeeBips, m.DelinquencyGracePeriod, asOf)

	s.emit(core.EventInterestAndFeesAccrued, map[string]interface{}{
		"from_timestamp":      accrual.FromTimestamp,
		"to_timestamp":        accrual.ToTimestamp,
		"scale_factor":        s.state.ScaleFactor.Clone(),
		"base_interest_ray":   accrual.BaseInterestRay,
		"delinquency_fee_ray": accrual.DelinquencyFeeRay,
		"protocol_fee":        accrual.ProtocolFee,
	})
}

// payPendingBatch applies the liquidity available to the pending batch
func (s *session) payPendingBatch(batch *core.WithdrawalBatch) error {
	totalAssets, err := s.totalAssets()
	if err != nil {
		return err
	}

	available := lending.AvailableLiquidityForPendingBatch(batch, &s.state, totalAssets)
	if !available.IsZero() {
		s.applyWithdrawalBatchPayment(batch, available)
	}

	return nil
}

func (s *session) processExpiredWithdrawalBatch() error {
	expiry := s.state.PendingWithdrawalExpiry
	batch, err := s.batch(expiry)
	if err != nil {
		return err
	}

	if !batch.IsClosed() {
		if err := s.payPendingBatch(batch); err != nil {
			return err
		}
	}

	s.emit(core.EventWithdrawalBatchExpired, map[string]interface{}{
		"expiry":                 expiry,
		"scaled_total_amount":    batch.ScaledTotalAmount.Clone(),
		"scaled_amount_burned":   batch.ScaledAmountBurned.Clone(),
		"normalized_amount_paid": batch.NormalizedAmountPaid.Clone(),
	})

	if batch.IsClosed() {
		s.emit(core.EventWithdrawalBatchClosed, map[string]interface{}{"expiry": expiry})
	} else {
		q, err := s.unpaidQueue()
		if err != nil {
			return err
		}

		q.Push(expiry)
		s.unpaidDirty = true
	}

	s.state.PendingWithdrawalExpiry = 0
	return nil
}

func (s *session) applyWithdrawalBatchPayment(batch *core.WithdrawalBatch, availableLiquidity *uint256.Int) *uint256.Int {
	burned, paid := lending.ApplyWithdrawalBatchPayment(batch, &s.state, availableLiquidity)
	if burned.IsZero() {
		return paid
	}

	s.emit(core.EventWithdrawalBatchPayment, map[string]interface{}{
		"expiry":                 batch.Expiry,
		"scaled_amount_burned":   burned,
		"normalized_amount_paid": paid,
	})

	return paid
}

// processUnpaidWithdrawalBatch pays the oldest unpaid batch out of
// availableLiquidity and drops it from the queue once fully paid
func (s *session) processUnpaidWithdrawalBatch(availableLiquidity *uint256.Int) (*uint256.Int, error) {
	q, err := s.unpaidQueue()
	if err != nil {
		return nil, err
	}

	expiry, err := q.First()
	if err != nil {
		return nil, err
	}

	batch, err := s.batch(expiry)
	if err != nil {
		return nil, err
	}

	paid := s.applyWithdrawalBatchPayment(batch, availableLiquidity)

	if batch.IsClosed() {
		if _, err := q.Shift(); err != nil {
			return nil, err
		}

		s.unpaidDirty = true
		s.emit(core.EventWithdrawalBatchClosed, map[string]interface{}{"expiry": expiry})
	}

	return paid, nil
}

// processUnpaidWithdrawalBatches pays up to maxBatches unpaid batches in
// queue order with the liquidity not owed as unclaimed withdrawals or fees
func (s *session) processUnpaidWithdrawalBatches(maxBatches int) error {
	q, err := s.unpaidQueue()
	if err != nil {
		return err
	}

	totalAssets, err := s.totalAssets()
	if err != nil {
		return err
	}

	available := ray.SatSub(totalAssets, ray.Add(&s.state.NormalizedUnclaimedWithdrawals, &s.state.AccruedProtocolFees))

	numBatches := q.Len()
	if maxBatches < numBatches {
		numBatches = maxBatches
	}

	for i := 0; i < numBatches && !available.IsZero(); i++ {
		paid, err := s.processUnpaidWithdrawalBatch(available)
		if err != nil {
			return err
		}

		available = ray.SatSub(available, paid)
	}

	return nil
}
