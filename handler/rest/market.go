package rest

import (
	"context"
	"net/http"

	"lending/core"
	"lending/handler/render"
	"lending/handler/views"

	"github.com/go-chi/chi"
)

type marketContext struct {
	market *core.Market
	asset  *core.Asset
	engine core.IMarketEngine
}

func loadMarket(ctx context.Context, r *http.Request, markets core.IMarketService, assets core.IAssetStore) (*marketContext, error) {
	address := chi.URLParam(r, "address")
	engine, err := markets.Engine(ctx, address)
	if err != nil {
		return nil, err
	}

	market := engine.Market()
	asset, err := assets.Find(ctx, market.AssetID)
	if err != nil {
		return nil, err
	}

	return &marketContext{market: market, asset: asset, engine: engine}, nil
}

func marketsHandler(markets core.IMarketService, assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		all, err := markets.All(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		borrower := r.URL.Query().Get("borrower")
		items := make([]views.Market, 0, len(all))
		for _, m := range all {
			if borrower != "" && m.Borrower != borrower {
				continue
			}

			asset, err := assets.Find(ctx, m.AssetID)
			if err != nil {
				render.Error(w, err)
				return
			}

			items = append(items, views.MarketView(m, asset))
		}

		render.JSON(w, items)
	}
}

func marketHandler(markets core.IMarketService, assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mc, err := loadMarket(r.Context(), r, markets, assets)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.MarketView(mc.market, mc.asset))
	}
}

func summaryHandler(markets core.IMarketService, assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		mc, err := loadMarket(ctx, r, markets, assets)
		if err != nil {
			render.Error(w, err)
			return
		}

		summary, err := mc.engine.Summary(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.SummaryView(mc.market.Address, summary, mc.asset.Decimals))
	}
}

func unpaidHandler(markets core.IMarketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		engine, err := markets.Engine(ctx, chi.URLParam(r, "address"))
		if err != nil {
			render.Error(w, err)
			return
		}

		expiries, err := engine.UnpaidBatchExpiries(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		if expiries == nil {
			expiries = []uint32{}
		}

		render.JSON(w, render.H{"expiries": expiries})
	}
}

func assetsHandler(assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := assets.All(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, all)
	}
}
