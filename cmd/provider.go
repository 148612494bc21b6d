package cmd

import (
	"lending/core"
	"lending/internal/clock"
	"lending/service/escrow"
	"lending/service/hooks"
	marketservice "lending/service/market"
	"lending/service/sanctions"
	"lending/store/asset"
	"lending/store/balance"
	escrowstore "lending/store/escrow"
	"lending/store/event"
	"lending/store/ledger"
	"lending/store/lender"
	"lending/store/market"
	"lending/store/sanction"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideMarketStore(db *db.DB) core.IMarketStore {
	return market.Cache(market.New(db), cfg.App.CacheSize)
}

func provideAssetStore(db *db.DB) core.IAssetStore {
	return asset.New(db)
}

func provideBalanceStore(db *db.DB) core.IBalanceStore {
	return balance.New(db)
}

func provideEventStore(db *db.DB) core.IEventStore {
	return event.New(db)
}

func provideSanctionStore(db *db.DB) core.ISanctionStore {
	return sanction.New(db)
}

func provideEscrowStore(db *db.DB) core.IEscrowStore {
	return escrowstore.New(db)
}

func provideLenderStore(db *db.DB) core.ILenderStore {
	return lender.New(db)
}

func provideLedger(db *db.DB, markets core.IMarketStore, balances core.IBalanceStore, escrows core.IEscrowStore, events core.IEventStore) core.IMarketLedger {
	return ledger.New(db, markets, balances, escrows, events)
}

// ------------------service------------------------------------

func provideMarketService(db *db.DB) core.IMarketService {
	markets := provideMarketStore(db)
	balances := provideBalanceStore(db)
	escrows := provideEscrowStore(db)
	clk := clock.System{}

	return marketservice.New(
		markets,
		provideAssetStore(db),
		balances,
		provideLedger(db, markets, balances, escrows, provideEventStore(db)),
		hooks.New(provideLenderStore(db), clk),
		sanctions.New(provideSanctionStore(db)),
		escrow.New(escrows),
		clk,
		provideConfig().Defaults,
	)
}
