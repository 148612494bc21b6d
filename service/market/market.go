package market

import (
	"context"
	"fmt"
	"sync"

	"lending/core"
	"lending/internal/clock"
	"lending/pkg/id"
	"lending/service/token"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
	"golang.org/x/sync/singleflight"
)

type service struct {
	markets   core.IMarketStore
	assets    core.IAssetStore
	balances  core.IBalanceStore
	ledger    core.IMarketLedger
	hooks     core.IHooks
	sanctions core.ISanctionsOracle
	escrows   core.IEscrowFactory
	clock     clock.Clock
	defaults  core.MarketDefaults

	// one engine per market, engines own the per market lock
	mu      sync.Mutex
	engines map[string]*Engine
	sf      singleflight.Group
}

// New new market service
func New(
	markets core.IMarketStore,
	assets core.IAssetStore,
	balances core.IBalanceStore,
	ledger core.IMarketLedger,
	hooks core.IHooks,
	sanctions core.ISanctionsOracle,
	escrows core.IEscrowFactory,
	clock clock.Clock,
	defaults core.MarketDefaults,
) core.IMarketService {
	return &service{
		markets:   markets,
		assets:    assets,
		balances:  balances,
		ledger:    ledger,
		hooks:     hooks,
		sanctions: sanctions,
		escrows:   escrows,
		clock:     clock,
		defaults:  defaults,
		engines:   map[string]*Engine{},
	}
}

// Create opens a new market. The market row and its initial state are
// committed together.
func (s *service) Create(ctx context.Context, params *core.MarketParameters) (*core.Market, error) {
	log := logger.FromContext(ctx).WithField("symbol", params.Symbol)

	s.applyDefaults(params)
	if err := validateParameters(params); err != nil {
		return nil, err
	}

	asset, err := s.assets.Find(ctx, params.AssetID)
	if err != nil {
		return nil, err
	}

	if asset.ID == "" {
		return nil, fmt.Errorf("%w: unknown asset %s", core.ErrInvalidMarketParameters, params.AssetID)
	}

	existing, err := s.markets.FindBySymbol(ctx, params.Symbol)
	if err != nil {
		return nil, err
	}

	if existing.ID > 0 {
		return nil, fmt.Errorf("%w: symbol %s taken", core.ErrInvalidMarketParameters, params.Symbol)
	}

	market := &core.Market{
		Address:                 id.UUIDFromParts("market", params.Borrower, params.AssetID, params.Symbol),
		Name:                    params.Name,
		Symbol:                  params.Symbol,
		AssetID:                 params.AssetID,
		Borrower:                params.Borrower,
		FeeRecipient:            params.FeeRecipient,
		DelinquencyFeeBips:      params.DelinquencyFeeBips,
		DelinquencyGracePeriod:  params.DelinquencyGracePeriod,
		WithdrawalBatchDuration: params.WithdrawalBatchDuration,
	}

	if err := market.SetHooksConfig(params.Hooks); err != nil {
		return nil, err
	}

	state := core.NewMarketState(*params, s.clock.Now())
	if err := s.ledger.Commit(ctx, &core.MarketChangeset{
		Market:  market.Address,
		Opening: market,
		State:   &state,
	}); err != nil {
		log.WithError(err).Errorln("open market")
		return nil, err
	}

	log.WithField("address", market.Address).Infoln("market opened")
	return market, nil
}

// applyDefaults fills the fee recipient only. Numeric parameters are taken
// as given, zero included; see MarketDefaults.Apply.
func (s *service) applyDefaults(params *core.MarketParameters) {
	if params.FeeRecipient == "" {
		params.FeeRecipient = s.defaults.FeeRecipient
	}
}

func validateParameters(params *core.MarketParameters) error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", core.ErrInvalidMarketParameters, fmt.Sprintf(format, args...))
	}

	switch {
	case !govalidator.IsUUID(params.AssetID):
		return invalid("asset_id %q is not a uuid", params.AssetID)
	case params.Borrower == "":
		return invalid("borrower missing")
	case params.FeeRecipient == "":
		return invalid("fee_recipient missing")
	case !govalidator.IsAlphanumeric(params.Symbol) || !govalidator.IsByteLength(params.Symbol, 1, 20):
		return invalid("symbol %q", params.Symbol)
	case !govalidator.IsByteLength(params.Name, 0, 64):
		return invalid("name too long")
	case params.AnnualInterestBips > core.MaxBips:
		return core.ErrAnnualInterestBipsTooHigh
	case params.ReserveRatioBips > core.MaxBips:
		return core.ErrReserveRatioBipsTooHigh
	case params.ProtocolFeeBips > core.MaxProtocolFeeBips:
		return core.ErrProtocolFeeTooHigh
	case params.DelinquencyFeeBips > core.MaxBips:
		return invalid("delinquency_fee_bips above %d", core.MaxBips)
	case params.MaxTotalSupply.BitLen() > 128:
		return invalid("max_total_supply above 128 bits")
	}

	if h := params.Hooks; h.MaximumAnnualInterestBips > 0 && h.MinimumAnnualInterestBips > h.MaximumAnnualInterestBips {
		return invalid("annual interest bounds %d > %d", h.MinimumAnnualInterestBips, h.MaximumAnnualInterestBips)
	}

	if h := params.Hooks; h.MinimumDeposit.IsNegative() {
		return invalid("minimum_deposit negative")
	}

	return nil
}

func (s *service) Find(ctx context.Context, address string) (*core.Market, error) {
	market, err := s.markets.Find(ctx, address)
	if err != nil {
		return nil, err
	}

	if market.ID == 0 {
		return nil, core.ErrMarketNotFound
	}

	return market, nil
}

func (s *service) All(ctx context.Context) ([]*core.Market, error) {
	return s.markets.All(ctx)
}

// Engine returns the engine of market address, created on first use
func (s *service) Engine(ctx context.Context, address string) (core.IMarketEngine, error) {
	s.mu.Lock()
	e, ok := s.engines[address]
	s.mu.Unlock()
	if ok {
		return e, nil
	}

	v, err, _ := s.sf.Do(address, func() (interface{}, error) {
		market, err := s.Find(ctx, address)
		if err != nil {
			return nil, err
		}

		asset, err := s.assets.Find(ctx, market.AssetID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if e, ok := s.engines[address]; ok {
			return e, nil
		}

		e := NewEngine(market, s.ledger, token.New(asset, s.balances), s.hooks, s.sanctions, s.escrows, s.clock)
		s.engines[address] = e
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Engine), nil
}
