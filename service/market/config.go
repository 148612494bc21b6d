package market

import (
	"context"

	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// SetMaxTotalSupply updates the supply ceiling
func (e *Engine) SetMaxTotalSupply(ctx context.Context, caller string, maxTotalSupply *uint256.Int) error {
	if err := validAmount(maxTotalSupply); err != nil {
		return err
	}

	if err := e.onlyBorrower(caller); err != nil {
		return err
	}

	return e.mutate(ctx, "set_max_total_supply", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrCapacityChangeOnClosedMarket
		}

		if err := s.hooks().OnSetMaxTotalSupply(s.ctx, s.market(), maxTotalSupply, s.state); err != nil {
			return err
		}

		ray.CheckBits(maxTotalSupply, 128, "max_total_supply")
		s.state.MaxTotalSupply = *maxTotalSupply.Clone()

		s.emit(core.EventMaxTotalSupplyUpdated, map[string]interface{}{"assets": maxTotalSupply.Clone()})
		return nil
	})
}

// SetAnnualInterestAndReserveRatioBips updates the rate and the reserve ratio.
// Hooks may rewrite both values. Raising the reserve ratio must not leave
// the market delinquent.
func (e *Engine) SetAnnualInterestAndReserveRatioBips(ctx context.Context, caller string, annualInterestBips, reserveRatioBips uint16) error {
	if err := e.onlyBorrower(caller); err != nil {
		return err
	}

	return e.mutate(ctx, "set_annual_interest_and_reserve_ratio", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrAprChangeOnClosedMarket
		}

		annual, reserve, err := s.hooks().OnSetAnnualInterestAndReserveRatioBips(s.ctx, s.market(), annualInterestBips, reserveRatioBips, s.state)
		if err != nil {
			return err
		}

		if annual > core.MaxBips {
			return core.ErrAnnualInterestBipsTooHigh
		}

		if reserve > core.MaxBips {
			return core.ErrReserveRatioBipsTooHigh
		}

		if reserve > s.state.ReserveRatioBips {
			s.state.ReserveRatioBips = reserve

			totalAssets, err := s.totalAssets()
			if err != nil {
				return err
			}

			if s.state.LiquidityRequired().Gt(totalAssets) {
				return core.ErrInsufficientReservesForNewLiquidityRatio
			}
		}

		s.state.ReserveRatioBips = reserve
		s.state.AnnualInterestBips = annual

		s.emit(core.EventAnnualInterestBipsUpdated, map[string]interface{}{"annual_interest_bips": annual})
		s.emit(core.EventReserveRatioBipsUpdated, map[string]interface{}{"reserve_ratio_bips": reserve})
		return nil
	})
}

// SetProtocolFeeBips updates the protocol share of base interest
func (e *Engine) SetProtocolFeeBips(ctx context.Context, protocolFeeBips uint16) error {
	if protocolFeeBips > core.MaxProtocolFeeBips {
		return core.ErrProtocolFeeTooHigh
	}

	return e.mutate(ctx, "set_protocol_fee", func(s *session) error {
		if err := s.updateState(); err != nil {
			return err
		}

		if s.state.IsClosed {
			return core.ErrProtocolFeeChangeOnClosedMarket
		}

		if err := s.hooks().OnSetProtocolFeeBips(s.ctx, s.market(), protocolFeeBips, s.state); err != nil {
			return err
		}

		s.state.ProtocolFeeBips = protocolFeeBips
		s.emit(core.EventProtocolFeeBipsUpdated, map[string]interface{}{"protocol_fee_bips": protocolFeeBips})
		return nil
	})
}
