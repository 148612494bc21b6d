package market

import (
	"context"
	"sync"
	"testing"

	"lending/core"
	"lending/internal/clock"
	"lending/internal/memstore"
	"lending/service/escrow"
	"lending/service/hooks"
	"lending/service/sanctions"

	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	assetID  = "965e5c6e-434c-3fa9-b780-c50f43cd955c"
	borrower = "borrower"
	alice    = "alice"
	bob      = "bob"
	feeTo    = "fees"

	start = uint32(1_700_000_000)
	day   = uint32(86400)
	year  = uint32(365 * 86400)
)

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	clock  *clock.Manual
	svc    core.IMarketService
	engine core.IMarketEngine
	market *core.Market
}

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func dec(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func defaultParams() *core.MarketParameters {
	params := &core.MarketParameters{
		Name:                    "Alice Lending",
		Symbol:                  "wUSD",
		AssetID:                 assetID,
		Borrower:                borrower,
		FeeRecipient:            feeTo,
		ReserveRatioBips:        2000,
		WithdrawalBatchDuration: day,
	}
	params.MaxTotalSupply.SetUint64(1e9)
	return params
}

func newFixture(t *testing.T, h core.IHooks, tweak func(p *core.MarketParameters)) *fixture {
	ctx := context.Background()
	store := memstore.New()
	clk := clock.NewManual(start)

	require.NoError(t, store.Assets().Save(ctx, &core.Asset{ID: assetID, Symbol: "USD", Decimals: 6}))

	if h == nil {
		h = hooks.New(store.Lenders(), clk)
	}

	svc := New(
		store.Markets(),
		store.Assets(),
		store.Balances(),
		store.Ledger(),
		h,
		sanctions.New(store.Sanctions()),
		escrow.New(store.Escrows()),
		clk,
		core.MarketDefaults{},
	)

	params := defaultParams()
	if tweak != nil {
		tweak(params)
	}

	market, err := svc.Create(ctx, params)
	require.NoError(t, err)

	engine, err := svc.Engine(ctx, market.Address)
	require.NoError(t, err)

	return &fixture{
		ctx:    ctx,
		store:  store,
		clock:  clk,
		svc:    svc,
		engine: engine,
		market: market,
	}
}

func (f *fixture) mint(t *testing.T, owner string, amount uint64) {
	require.NoError(t, f.store.Balances().Mint(f.ctx, assetID, owner, u(amount)))
}

func (f *fixture) assetBalance(t *testing.T, owner string) string {
	b, err := f.store.Balances().BalanceOf(f.ctx, assetID, owner)
	require.NoError(t, err)
	return b.Dec()
}

func (f *fixture) persisted(t *testing.T) *core.MarketState {
	state, err := f.store.Ledger().State(f.ctx, f.market.Address)
	require.NoError(t, err)
	return state
}

func (f *fixture) events(t *testing.T, name string) []*core.Event {
	all, err := f.store.Events().List(f.ctx, f.market.Address, 0, 0)
	require.NoError(t, err)

	var events []*core.Event
	for _, e := range all {
		if e.Name == name {
			events = append(events, e)
		}
	}

	return events
}

func TestCreateMarket(t *testing.T) {
	f := newFixture(t, nil, nil)

	assert.NotZero(t, f.market.ID)
	assert.Equal(t, borrower, f.engine.Market().Borrower)

	state := f.persisted(t)
	assert.Equal(t, "1000000000000000000000000000", state.ScaleFactor.Dec())
	assert.Equal(t, start, state.LastInterestAccruedTimestamp)
	assert.Equal(t, uint16(2000), state.ReserveRatioBips)

	_, err := f.svc.Create(f.ctx, defaultParams())
	assert.ErrorIs(t, err, core.ErrInvalidMarketParameters, "symbol taken")

	params := defaultParams()
	params.Symbol = "other"
	params.AssetID = "c6d0c728-2624-429b-8e0d-d9d19b6592fa"
	_, err = f.svc.Create(f.ctx, params)
	assert.ErrorIs(t, err, core.ErrInvalidMarketParameters, "unknown asset")

	params = defaultParams()
	params.Symbol = "other"
	params.ProtocolFeeBips = core.MaxProtocolFeeBips + 1
	_, err = f.svc.Create(f.ctx, params)
	assert.ErrorIs(t, err, core.ErrProtocolFeeTooHigh)

	_, err = f.svc.Engine(f.ctx, "missing")
	assert.ErrorIs(t, err, core.ErrMarketNotFound)

	again, err := f.svc.Engine(f.ctx, f.market.Address)
	require.NoError(t, err)
	assert.Same(t, f.engine, again)
}

func TestCreateMarketKeepsExplicitZeros(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	clk := clock.NewManual(start)
	require.NoError(t, store.Assets().Save(ctx, &core.Asset{ID: assetID, Symbol: "USD", Decimals: 6}))

	svc := New(
		store.Markets(),
		store.Assets(),
		store.Balances(),
		store.Ledger(),
		hooks.Noop{},
		sanctions.New(store.Sanctions()),
		escrow.New(store.Escrows()),
		clk,
		core.MarketDefaults{
			ProtocolFeeBips:         1000,
			DelinquencyFeeBips:      1000,
			DelinquencyGracePeriod:  day,
			WithdrawalBatchDuration: day,
			FeeRecipient:            feeTo,
		},
	)

	params := defaultParams()
	params.FeeRecipient = ""
	params.DelinquencyGracePeriod = 0
	params.WithdrawalBatchDuration = 0

	market, err := svc.Create(ctx, params)
	require.NoError(t, err)
	assert.Zero(t, market.DelinquencyGracePeriod)
	assert.Zero(t, market.WithdrawalBatchDuration)
	assert.Zero(t, market.DelinquencyFeeBips)
	assert.Equal(t, feeTo, market.FeeRecipient)

	state, err := store.Ledger().State(ctx, market.Address)
	require.NoError(t, err)
	assert.Zero(t, state.ProtocolFeeBips)
}

func TestDepositBorrowWithdrawFlow(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 1000)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
	balance, err := f.engine.BalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1000", balance.Dec())
	assert.Equal(t, "1000", f.assetBalance(t, f.market.Address))

	assert.ErrorIs(t, f.engine.Borrow(f.ctx, alice, u(10)), core.ErrNotBorrower)
	assert.ErrorIs(t, f.engine.Borrow(f.ctx, borrower, u(801)), core.ErrBorrowAmountTooHigh)
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(800)))
	assert.Equal(t, "800", f.assetBalance(t, borrower))
	assert.False(t, f.persisted(t).IsDelinquent)

	expiry, err := f.engine.QueueWithdrawal(f.ctx, alice, u(500))
	require.NoError(t, err)
	assert.Equal(t, start+day, expiry)

	batch, err := f.engine.WithdrawalBatch(f.ctx, expiry)
	require.NoError(t, err)
	assert.Equal(t, "500", batch.ScaledTotalAmount.Dec())
	assert.Equal(t, "200", batch.ScaledAmountBurned.Dec())
	assert.Equal(t, "200", batch.NormalizedAmountPaid.Dec())

	state := f.persisted(t)
	assert.Equal(t, "300", state.ScaledPendingWithdrawals.Dec())
	assert.Equal(t, "200", state.NormalizedUnclaimedWithdrawals.Dec())
	assert.Equal(t, "800", state.ScaledTotalSupply.Dec())
	assert.True(t, state.IsDelinquent)

	_, err = f.engine.ExecuteWithdrawal(f.ctx, alice, expiry)
	assert.ErrorIs(t, err, core.ErrWithdrawalBatchNotExpired)

	f.clock.Advance(day + 1)

	available, err := f.engine.AvailableWithdrawalAmount(f.ctx, alice, expiry)
	require.NoError(t, err)
	assert.Equal(t, "200", available.Dec())

	amount, err := f.engine.ExecuteWithdrawal(f.ctx, alice, expiry)
	require.NoError(t, err)
	assert.Equal(t, "200", amount.Dec())
	assert.Equal(t, "200", f.assetBalance(t, alice))

	_, err = f.engine.ExecuteWithdrawal(f.ctx, alice, expiry)
	assert.ErrorIs(t, err, core.ErrNullWithdrawalAmount)

	unpaid, err := f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{expiry}, unpaid)
	assert.Len(t, f.events(t, core.EventWithdrawalBatchExpired), 1)

	require.NoError(t, f.engine.RepayAndProcessUnpaidWithdrawalBatches(f.ctx, borrower, u(300), 10))
	unpaid, err = f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)
	assert.Len(t, f.events(t, core.EventWithdrawalBatchClosed), 1)

	amount, err = f.engine.ExecuteWithdrawal(f.ctx, alice, expiry)
	require.NoError(t, err)
	assert.Equal(t, "300", amount.Dec())
	assert.Equal(t, "500", f.assetBalance(t, alice))
	assert.Equal(t, "500", f.assetBalance(t, borrower))
	assert.Equal(t, "0", f.assetBalance(t, f.market.Address))

	status, err := f.engine.AccountWithdrawalStatus(f.ctx, alice, expiry)
	require.NoError(t, err)
	assert.Equal(t, "500", status.ScaledAmount.Dec())
	assert.Equal(t, "500", status.NormalizedAmountWithdrawn.Dec())

	scaled, err := f.engine.ScaledBalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "500", scaled.Dec())
}

func TestDepositUpToClampsToMaxSupply(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.MaxTotalSupply.SetUint64(1000)
	})
	f.mint(t, alice, 2000)

	deposited, err := f.engine.DepositUpTo(f.ctx, alice, u(600))
	require.NoError(t, err)
	assert.Equal(t, "600", deposited.Dec())

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, u(600)), core.ErrMaxSupplyExceeded)
	assert.Equal(t, "1400", f.assetBalance(t, alice), "failed deposit moved funds")

	deposited, err = f.engine.DepositUpTo(f.ctx, alice, u(600))
	require.NoError(t, err)
	assert.Equal(t, "400", deposited.Dec())

	_, err = f.engine.DepositUpTo(f.ctx, alice, u(1))
	assert.ErrorIs(t, err, core.ErrNullMintAmount)

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, nil), core.ErrInvalidAmount)
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, bob, u(0)), core.ErrNullMintAmount)
}

func TestDepositWithoutFunds(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 10)

	err := f.engine.Deposit(f.ctx, alice, u(11))
	assert.ErrorIs(t, err, core.ErrTransferFailed)

	scaled, err := f.engine.ScaledBalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.True(t, scaled.IsZero())
	assert.Empty(t, f.events(t, core.EventDeposit))
}

func TestInterestAccrualAndFees(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.AnnualInterestBips = 1000
		p.ProtocolFeeBips = 1000
		p.MaxTotalSupply.Set(dec("1000000000000000000000"))
	})
	f.mint(t, alice, 1e18)
	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1e18)))

	_, err := f.engine.CollectFees(f.ctx)
	assert.ErrorIs(t, err, core.ErrNullFeeAmount)

	f.clock.Advance(year)

	state, err := f.engine.CurrentState(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "1100000000000000000000000000", state.ScaleFactor.Dec())
	assert.Equal(t, "10000000000000000", state.AccruedProtocolFees.Dec())

	balance, err := f.engine.BalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1100000000000000000", balance.Dec())

	// views never persist
	assert.Equal(t, start, f.persisted(t).LastInterestAccruedTimestamp)

	require.NoError(t, f.engine.UpdateState(f.ctx))
	persisted := f.persisted(t)
	assert.Equal(t, start+year, persisted.LastInterestAccruedTimestamp)
	assert.Equal(t, state.ScaleFactor, persisted.ScaleFactor)

	// same timestamp, nothing changes but the version
	require.NoError(t, f.engine.UpdateState(f.ctx))
	again := f.persisted(t)
	assert.Equal(t, persisted.Version+1, again.Version)
	again.Version = persisted.Version
	assert.Equal(t, persisted, again)

	fees, err := f.engine.CollectFees(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", fees.Dec())
	assert.Equal(t, "10000000000000000", f.assetBalance(t, feeTo))
	assert.True(t, f.persisted(t).AccruedProtocolFees.IsZero())

	summary, err := f.engine.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "990000000000000000", summary.TotalAssets.Dec())
	assert.Equal(t, "1100000000000000000", summary.TotalSupply.Dec())
	assert.Equal(t, "110000000000000000", summary.OutstandingDebt.Dec())
}

func TestDelinquencyFee(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.DelinquencyFeeBips = 1000
		p.DelinquencyGracePeriod = 1
		p.WithdrawalBatchDuration = 2 * year
		p.MaxTotalSupply.Set(dec("1000000000000000000000"))
	})
	f.mint(t, alice, 1e18)
	f.mint(t, borrower, 1e18)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1e18)))
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(8e17)))
	_, err := f.engine.QueueWithdrawal(f.ctx, alice, u(5e17))
	require.NoError(t, err)
	assert.True(t, f.persisted(t).IsDelinquent)

	// the grace period is one second
	f.clock.Advance(year + 1)
	require.NoError(t, f.engine.UpdateState(f.ctx))

	state := f.persisted(t)
	assert.Equal(t, "1100000000000000000000000000", state.ScaleFactor.Dec())
	assert.Equal(t, year+1, state.TimeDelinquent)
	assert.True(t, state.IsDelinquent)

	summary, err := f.engine.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "440000000000000000", summary.DelinquentDebt.Dec())
	assert.Equal(t, "640000000000000000", summary.CoverageLiquidity.Dec())

	repay := new(uint256.Int).Add(&summary.DelinquentDebt, u(1000))
	require.NoError(t, f.engine.Repay(f.ctx, borrower, repay))

	state = f.persisted(t)
	assert.False(t, state.IsDelinquent)
	assert.True(t, state.ScaledPendingWithdrawals.IsZero(), "repayment should settle the pending batch")

	// healthy again, the counter runs down while the fee keeps applying
	f.clock.Advance(day)
	require.NoError(t, f.engine.UpdateState(f.ctx))
	assert.Equal(t, year+1-day, f.persisted(t).TimeDelinquent)
	assert.True(t, f.persisted(t).ScaleFactor.Gt(&state.ScaleFactor))
}

func TestUnpaidBatchesProcessedInOrder(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.WithdrawalBatchDuration = 100
	})
	f.mint(t, alice, 1000)
	f.mint(t, borrower, 1000)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(800)))

	first, err := f.engine.QueueWithdrawal(f.ctx, alice, u(300))
	require.NoError(t, err)

	f.clock.Advance(101)
	second, err := f.engine.QueueWithdrawal(f.ctx, alice, u(200))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	f.clock.Advance(101)
	require.NoError(t, f.engine.UpdateState(f.ctx))

	unpaid, err := f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{first, second}, unpaid)

	// one batch at most, the second one stays untouched
	require.NoError(t, f.engine.RepayAndProcessUnpaidWithdrawalBatches(f.ctx, borrower, u(300), 1))
	a, err := f.engine.WithdrawalBatch(f.ctx, first)
	require.NoError(t, err)
	assert.True(t, a.IsClosed())
	b, err := f.engine.WithdrawalBatch(f.ctx, second)
	require.NoError(t, err)
	assert.True(t, b.ScaledAmountBurned.IsZero())

	unpaid, err = f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{second}, unpaid)

	require.NoError(t, f.engine.ProcessUnpaidWithdrawalBatches(f.ctx, 10))
	unpaid, err = f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	amounts, err := f.engine.ExecuteWithdrawals(f.ctx, []string{alice, alice}, []uint32{first, second})
	require.NoError(t, err)
	assert.Equal(t, "300", amounts[0].Dec())
	assert.Equal(t, "200", amounts[1].Dec())

	_, err = f.engine.ExecuteWithdrawals(f.ctx, []string{alice}, []uint32{first, second})
	assert.ErrorIs(t, err, core.ErrInvalidArrayLength)
}

func TestCloseMarket(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.AnnualInterestBips = 0
	})
	f.mint(t, alice, 1000)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(800)))
	expiry, err := f.engine.QueueWithdrawal(f.ctx, alice, u(500))
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.CloseMarket(f.ctx, alice), core.ErrNotBorrower)
	require.NoError(t, f.engine.CloseMarket(f.ctx, borrower))
	assert.Equal(t, "0", f.assetBalance(t, borrower), "shortfall comes from the borrower")

	state := f.persisted(t)
	assert.True(t, state.IsClosed)
	assert.True(t, state.ScaledPendingWithdrawals.IsZero())
	assert.Equal(t, uint16(0), state.AnnualInterestBips)
	assert.Equal(t, uint16(core.MaxBips), state.ReserveRatioBips)
	assert.Len(t, f.events(t, core.EventMarketClosed), 1)

	// batches of a closed market pay out before expiry
	amount, err := f.engine.ExecuteWithdrawal(f.ctx, alice, expiry)
	require.NoError(t, err)
	assert.Equal(t, "500", amount.Dec())

	next, err := f.engine.QueueFullWithdrawal(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, expiry, next, "the open batch keeps collecting after close")

	amount, err = f.engine.ExecuteWithdrawal(f.ctx, alice, next)
	require.NoError(t, err)
	assert.Equal(t, "500", amount.Dec())
	assert.Equal(t, "1000", f.assetBalance(t, alice))

	assert.ErrorIs(t, f.engine.CloseMarket(f.ctx, borrower), core.ErrMarketAlreadyClosed)
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, u(1)), core.ErrDepositToClosedMarket)
	assert.ErrorIs(t, f.engine.Borrow(f.ctx, borrower, u(1)), core.ErrBorrowFromClosedMarket)
	assert.ErrorIs(t, f.engine.SetMaxTotalSupply(f.ctx, borrower, u(1)), core.ErrCapacityChangeOnClosedMarket)
	assert.ErrorIs(t, f.engine.SetAnnualInterestAndReserveRatioBips(f.ctx, borrower, 1, 1), core.ErrAprChangeOnClosedMarket)
	assert.ErrorIs(t, f.engine.SetProtocolFeeBips(f.ctx, 1), core.ErrProtocolFeeChangeOnClosedMarket)
}

func TestCloseMarketSettlesUnpaidBatches(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.WithdrawalBatchDuration = 100
	})
	f.mint(t, alice, 1000)
	f.mint(t, borrower, 1000)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(800)))
	expiry, err := f.engine.QueueWithdrawal(f.ctx, alice, u(500))
	require.NoError(t, err)

	f.clock.Advance(101)
	require.NoError(t, f.engine.CloseMarket(f.ctx, borrower))

	unpaid, err := f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	batch, err := f.engine.WithdrawalBatch(f.ctx, expiry)
	require.NoError(t, err)
	assert.True(t, batch.IsClosed())

	state := f.persisted(t)
	assert.Equal(t, "1000", f.assetBalance(t, f.market.Address))
	assert.Equal(t, "500", state.NormalizedUnclaimedWithdrawals.Dec())
	assert.Equal(t, "500", state.ScaledTotalSupply.Dec())
}

func TestCloseMarketRefundsSurplus(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 1000)
	f.mint(t, borrower, 100)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
	require.NoError(t, f.engine.Repay(f.ctx, borrower, u(100)))
	assert.ErrorIs(t, f.engine.Repay(f.ctx, borrower, u(0)), core.ErrNullRepayAmount)

	require.NoError(t, f.engine.CloseMarket(f.ctx, borrower))
	assert.Equal(t, "100", f.assetBalance(t, borrower))
	assert.Equal(t, "1000", f.assetBalance(t, f.market.Address))
}

func TestCloseMarketWithAccruedInterest(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.AnnualInterestBips = 1000
		p.ProtocolFeeBips = 1000
		p.DelinquencyFeeBips = 1000
		p.WithdrawalBatchDuration = 100
	})
	f.mint(t, alice, 1_000_003)
	f.mint(t, bob, 777_777)
	f.mint(t, borrower, 10_000_000)

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1_000_003)))
	require.NoError(t, f.engine.Deposit(f.ctx, bob, u(777_777)))
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(1_422_000)))
	f.clock.Advance(30 * day)

	first, err := f.engine.QueueWithdrawal(f.ctx, alice, u(600_001))
	require.NoError(t, err)
	f.clock.Advance(101)

	second, err := f.engine.QueueWithdrawal(f.ctx, bob, u(400_009))
	require.NoError(t, err)
	f.clock.Advance(101)

	third, err := f.engine.QueueWithdrawal(f.ctx, alice, u(123_457))
	require.NoError(t, err)
	f.clock.Advance(50)

	unpaid, err := f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{first, second}, unpaid)

	state, err := f.engine.CurrentState(f.ctx)
	require.NoError(t, err)
	assert.True(t, state.ScaleFactor.Gt(dec("1000000000000000000000000000")))

	require.NoError(t, f.engine.CloseMarket(f.ctx, borrower))

	persisted := f.persisted(t)
	assert.True(t, persisted.IsClosed)
	assert.True(t, persisted.ScaledPendingWithdrawals.IsZero(), "rounding leaves nothing pending")

	unpaid, err = f.engine.UnpaidBatchExpiries(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	for _, expiry := range []uint32{first, second, third} {
		batch, err := f.engine.WithdrawalBatch(f.ctx, expiry)
		require.NoError(t, err)
		assert.True(t, batch.IsClosed(), "batch %d", expiry)
	}

	executions := []struct {
		account string
		expiry  uint32
		least   uint64
	}{
		{alice, first, 600_000},
		{bob, second, 400_000},
		{alice, third, 123_000},
	}
	for _, e := range executions {
		amount, err := f.engine.ExecuteWithdrawal(f.ctx, e.account, e.expiry)
		require.NoError(t, err)
		assert.False(t, amount.Lt(u(e.least)), "%s got %s", e.account, amount.Dec())
	}

	held, err := f.store.Balances().BalanceOf(f.ctx, assetID, f.market.Address)
	require.NoError(t, err)
	assert.False(t, held.Lt(&f.persisted(t).NormalizedUnclaimedWithdrawals))
}

func TestTransfer(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 1000)
	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))

	require.NoError(t, f.engine.Transfer(f.ctx, alice, bob, u(300)))
	assert.ErrorIs(t, f.engine.Transfer(f.ctx, alice, bob, u(701)), core.ErrInsufficientBalance)
	assert.ErrorIs(t, f.engine.Transfer(f.ctx, alice, bob, u(0)), core.ErrNullTransferAmount)

	balance, err := f.engine.BalanceOf(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "300", balance.Dec())

	require.NoError(t, f.store.Sanctions().Flag(f.ctx, bob))
	assert.ErrorIs(t, f.engine.Transfer(f.ctx, alice, bob, u(1)), core.ErrAccountBlocked)
}

func TestSetters(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 1000)
	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
	require.NoError(t, f.engine.Borrow(f.ctx, borrower, u(800)))

	assert.ErrorIs(t, f.engine.SetMaxTotalSupply(f.ctx, alice, u(5000)), core.ErrNotBorrower)
	require.NoError(t, f.engine.SetMaxTotalSupply(f.ctx, borrower, u(5000)))
	assert.Equal(t, "5000", f.persisted(t).MaxTotalSupply.Dec())

	err := f.engine.SetAnnualInterestAndReserveRatioBips(f.ctx, borrower, 500, 3000)
	assert.ErrorIs(t, err, core.ErrInsufficientReservesForNewLiquidityRatio)
	assert.Equal(t, uint16(2000), f.persisted(t).ReserveRatioBips)

	err = f.engine.SetAnnualInterestAndReserveRatioBips(f.ctx, borrower, core.MaxBips+1, 1000)
	assert.ErrorIs(t, err, core.ErrAnnualInterestBipsTooHigh)
	err = f.engine.SetAnnualInterestAndReserveRatioBips(f.ctx, borrower, 500, core.MaxBips+1)
	assert.ErrorIs(t, err, core.ErrReserveRatioBipsTooHigh)

	require.NoError(t, f.engine.SetAnnualInterestAndReserveRatioBips(f.ctx, borrower, 500, 1000))
	state := f.persisted(t)
	assert.Equal(t, uint16(500), state.AnnualInterestBips)
	assert.Equal(t, uint16(1000), state.ReserveRatioBips)

	assert.ErrorIs(t, f.engine.SetProtocolFeeBips(f.ctx, core.MaxProtocolFeeBips+1), core.ErrProtocolFeeTooHigh)
	require.NoError(t, f.engine.SetProtocolFeeBips(f.ctx, 500))
	assert.Equal(t, uint16(500), f.persisted(t).ProtocolFeeBips)
	assert.Len(t, f.events(t, core.EventProtocolFeeBipsUpdated), 1)
}

func TestSanctionedLenders(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 1000)
	f.mint(t, borrower, 1000)
	sanctionStore := f.store.Sanctions()

	require.NoError(t, sanctionStore.Flag(f.ctx, alice))
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, u(100)), core.ErrAccountBlocked)

	require.NoError(t, sanctionStore.Override(f.ctx, borrower, alice))
	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))

	// the borrower cannot vouch for itself when borrowing
	require.NoError(t, sanctionStore.Flag(f.ctx, borrower))
	require.NoError(t, sanctionStore.Override(f.ctx, borrower, borrower))
	assert.ErrorIs(t, f.engine.Borrow(f.ctx, borrower, u(1)), core.ErrBorrowWhileSanctioned)
	require.NoError(t, f.engine.Deposit(f.ctx, borrower, u(1)))
	require.NoError(t, sanctionStore.Unflag(f.ctx, borrower))

	expiry, err := f.engine.QueueWithdrawal(f.ctx, alice, u(500))
	require.NoError(t, err)
	f.clock.Advance(day + 1)

	require.NoError(t, sanctionStore.RemoveOverride(f.ctx, borrower, alice))
	assert.ErrorIs(t, f.engine.BlockSanctionedAccount(f.ctx, bob), core.ErrBadLaunchCode)
	require.NoError(t, f.engine.BlockSanctionedAccount(f.ctx, alice))

	scaled, err := f.engine.ScaledBalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.True(t, scaled.IsZero())
	assert.Len(t, f.events(t, core.EventAccountSanctioned), 1)

	amount, err := f.engine.ExecuteWithdrawal(f.ctx, alice, expiry)
	require.NoError(t, err)
	assert.Equal(t, "500", amount.Dec())

	address := escrow.Address(borrower, alice, assetID)
	assert.Equal(t, "0", f.assetBalance(t, alice))
	assert.Equal(t, "500", f.assetBalance(t, address))

	e, err := f.store.Escrows().Find(f.ctx, address)
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Len(t, f.events(t, core.EventSanctionedAccountWithdrawalSentToEscrow), 1)
}

func TestFailedCommitPersistsNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 1000)
	before := f.persisted(t)

	f.store.FailNextCommit(core.ErrUnknown)
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, u(1000)), core.ErrUnknown)

	assert.Equal(t, before, f.persisted(t))
	assert.Equal(t, "1000", f.assetBalance(t, alice))
	assert.Empty(t, f.events(t, core.EventDeposit))

	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(1000)))
}

func TestOverflowAbortsOperation(t *testing.T) {
	f := newFixture(t, nil, func(p *core.MarketParameters) {
		p.MaxTotalSupply.Set(dec("340282366920938463463374607431768211455"))
	})
	huge := dec("100000000000000000000000000000000000")
	require.NoError(t, f.store.Balances().Mint(f.ctx, assetID, alice, huge))

	// scaled supply is limited to 104 bits
	err := f.engine.Deposit(f.ctx, alice, huge)
	assert.ErrorIs(t, err, core.ErrArithmeticOverflow)
	assert.True(t, f.persisted(t).ScaledTotalSupply.IsZero())
}

type reentrantHooks struct {
	hooks.Noop
	engine core.IMarketEngine
}

func (h *reentrantHooks) OnDeposit(ctx context.Context, _ *core.Market, lender string, _ *uint256.Int, _ core.MarketState) error {
	_, err := h.engine.BalanceOf(ctx, lender)
	return err
}

func TestReentrantCallRejected(t *testing.T) {
	h := &reentrantHooks{}
	f := newFixture(t, h, nil)
	h.engine = f.engine
	f.mint(t, alice, 1000)

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, u(100)), core.ErrReentrantCall)

	// the lock is released once the call returns
	balance, err := f.engine.BalanceOf(f.ctx, alice)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

// interleavingHooks runs other once, in the middle of the first deposit
type interleavingHooks struct {
	hooks.Noop
	once  sync.Once
	other func()
}

func (h *interleavingHooks) OnDeposit(context.Context, *core.Market, string, *uint256.Int, core.MarketState) error {
	if h.other != nil {
		h.once.Do(h.other)
	}

	return nil
}

func TestStaleCommitFromAnotherEngineRejected(t *testing.T) {
	h := &interleavingHooks{}
	f := newFixture(t, h, nil)
	f.mint(t, alice, 1000)
	f.mint(t, bob, 1000)

	// a second process on the same ledger
	other := New(
		f.store.Markets(),
		f.store.Assets(),
		f.store.Balances(),
		f.store.Ledger(),
		hooks.Noop{},
		sanctions.New(f.store.Sanctions()),
		escrow.New(f.store.Escrows()),
		f.clock,
		core.MarketDefaults{},
	)
	engine, err := other.Engine(f.ctx, f.market.Address)
	require.NoError(t, err)
	require.NotSame(t, f.engine, engine)

	h.other = func() {
		require.NoError(t, engine.Deposit(f.ctx, bob, u(500)))
	}

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, alice, u(300)), db.ErrOptimisticLock)

	state := f.persisted(t)
	assert.Equal(t, "500", state.ScaledTotalSupply.Dec())
	assert.Equal(t, "1000", f.assetBalance(t, alice))
	assert.Equal(t, "500", f.assetBalance(t, f.market.Address))

	// a retry reads the new version
	require.NoError(t, f.engine.Deposit(f.ctx, alice, u(300)))

	accounts, err := f.store.Ledger().Accounts(f.ctx, f.market.Address)
	require.NoError(t, err)
	sum := new(uint256.Int)
	for _, a := range accounts {
		sum.Add(sum, &a.ScaledBalance)
	}

	state = f.persisted(t)
	assert.Equal(t, "800", state.ScaledTotalSupply.Dec())
	assert.Equal(t, state.ScaledTotalSupply.Dec(), sum.Dec())
	assert.Equal(t, "800", f.assetBalance(t, f.market.Address))
}

func TestConcurrentDeposits(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.mint(t, alice, 100)

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			errs <- f.engine.Deposit(f.ctx, alice, u(10))
		}()
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, "100", f.persisted(t).ScaledTotalSupply.Dec())
	assert.Equal(t, "0", f.assetBalance(t, alice))
}
