package hooks

import (
	"context"

	"lending/core"
	"lending/internal/clock"
	"lending/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// Noop hooks that accept everything
type Noop struct{}

var _ core.IHooks = Noop{}

func (Noop) OnDeposit(context.Context, *core.Market, string, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnQueueWithdrawal(context.Context, *core.Market, string, uint32, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnExecuteWithdrawal(context.Context, *core.Market, string, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnTransfer(context.Context, *core.Market, string, string, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnBorrow(context.Context, *core.Market, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnRepay(context.Context, *core.Market, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnCloseMarket(context.Context, *core.Market, core.MarketState) error {
	return nil
}

func (Noop) OnBlockAccount(context.Context, *core.Market, string, core.MarketState) error {
	return nil
}

func (Noop) OnSetMaxTotalSupply(context.Context, *core.Market, *uint256.Int, core.MarketState) error {
	return nil
}

func (Noop) OnSetAnnualInterestAndReserveRatioBips(_ context.Context, _ *core.Market, annualInterestBips, reserveRatioBips uint16, _ core.MarketState) (uint16, uint16, error) {
	return annualInterestBips, reserveRatioBips, nil
}

func (Noop) OnSetProtocolFeeBips(context.Context, *core.Market, uint16, core.MarketState) error {
	return nil
}

// accessControl enforces the market HooksConfig
type accessControl struct {
	Noop
	lenders core.ILenderStore
	clock   clock.Clock
}

// New access control hooks. Rules come from each market's hooks config.
func New(lenders core.ILenderStore, clock clock.Clock) core.IHooks {
	return &accessControl{
		lenders: lenders,
		clock:   clock,
	}
}

func (h *accessControl) OnDeposit(ctx context.Context, market *core.Market, lender string, scaledAmount *uint256.Int, state core.MarketState) error {
	cfg, err := market.HooksConfig()
	if err != nil {
		return err
	}

	if cfg.RestrictedDeposits {
		if err := h.ensureApproved(ctx, market, lender); err != nil {
			return err
		}
	}

	if cfg.MinimumDeposit.IsPositive() {
		min, err := number.ToUint256(cfg.MinimumDeposit)
		if err != nil {
			return err
		}

		if state.NormalizeAmount(scaledAmount).Lt(min) {
			return core.ErrDepositBelowMinimum
		}
	}

	return nil
}

func (h *accessControl) OnTransfer(ctx context.Context, market *core.Market, from, to string, scaledAmount *uint256.Int, state core.MarketState) error {
	cfg, err := market.HooksConfig()
	if err != nil {
		return err
	}

	if cfg.TransfersDisabled {
		return core.ErrTransfersDisabled
	}

	if cfg.RestrictedDeposits {
		return h.ensureApproved(ctx, market, to)
	}

	return nil
}

func (h *accessControl) OnQueueWithdrawal(ctx context.Context, market *core.Market, lender string, expiry uint32, scaledAmount *uint256.Int, state core.MarketState) error {
	cfg, err := market.HooksConfig()
	if err != nil {
		return err
	}

	// closed markets release lenders regardless of the term
	if cfg.FixedTermEndTime > 0 && !state.IsClosed && h.clock.Now() < cfg.FixedTermEndTime {
		return core.ErrWithdrawBeforeTermEnd
	}

	return nil
}

func (h *accessControl) OnCloseMarket(ctx context.Context, market *core.Market, state core.MarketState) error {
	cfg, err := market.HooksConfig()
	if err != nil {
		return err
	}

	if cfg.FixedTermEndTime > 0 && !cfg.AllowClosureBeforeTerm && h.clock.Now() < cfg.FixedTermEndTime {
		return core.ErrCloseMarketBeforeTermEnd
	}

	return nil
}

func (h *accessControl) OnSetAnnualInterestAndReserveRatioBips(ctx context.Context, market *core.Market, annualInterestBips, reserveRatioBips uint16, state core.MarketState) (uint16, uint16, error) {
	cfg, err := market.HooksConfig()
	if err != nil {
		return 0, 0, err
	}

	if annualInterestBips < cfg.MinimumAnnualInterestBips {
		return 0, 0, core.ErrAnnualInterestBipsOutOfBounds
	}

	if cfg.MaximumAnnualInterestBips > 0 && annualInterestBips > cfg.MaximumAnnualInterestBips {
		return 0, 0, core.ErrAnnualInterestBipsOutOfBounds
	}

	return annualInterestBips, reserveRatioBips, nil
}

func (h *accessControl) ensureApproved(ctx context.Context, market *core.Market, account string) error {
	approved, err := h.lenders.IsApproved(ctx, market.Address, account)
	if err != nil {
		return err
	}

	if !approved {
		logger.FromContext(ctx).WithField("account", account).Debugln("lender not approved")
		return core.ErrNotApprovedLender
	}

	return nil
}
