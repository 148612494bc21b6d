package rest

import (
	"errors"
	"net/http"

	"lending/core"
	"lending/handler/render"
	"lending/handler/views"

	"github.com/go-chi/chi"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"
)

func accountHandler(markets core.IMarketService, assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		mc, err := loadMarket(ctx, r, markets, assets)
		if err != nil {
			render.Error(w, err)
			return
		}

		account := chi.URLParam(r, "account")
		scaled, err := mc.engine.ScaledBalanceOf(ctx, account)
		if err != nil {
			render.Error(w, err)
			return
		}

		balance, err := mc.engine.BalanceOf(ctx, account)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.AccountView(account, scaled, balance, mc.asset.Decimals))
	}
}

func expiryParam(r *http.Request) (uint32, error) {
	return cast.ToUint32E(chi.URLParam(r, "expiry"))
}

func batchHandler(markets core.IMarketService, assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		expiry, err := expiryParam(r)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		mc, err := loadMarket(ctx, r, markets, assets)
		if err != nil {
			render.Error(w, err)
			return
		}

		batch, err := mc.engine.WithdrawalBatch(ctx, expiry)
		if err != nil {
			render.Error(w, err)
			return
		}

		state, err := mc.engine.CurrentState(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.BatchView(batch, state.LastInterestAccruedTimestamp, mc.asset.Decimals))
	}
}

func withdrawalStatusHandler(markets core.IMarketService, assets core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		expiry, err := expiryParam(r)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		mc, err := loadMarket(ctx, r, markets, assets)
		if err != nil {
			render.Error(w, err)
			return
		}

		account := chi.URLParam(r, "account")
		status, err := mc.engine.AccountWithdrawalStatus(ctx, account, expiry)
		if err != nil {
			render.Error(w, err)
			return
		}

		var available *uint256.Int
		if amount, err := mc.engine.AvailableWithdrawalAmount(ctx, account, expiry); err == nil {
			available = amount
		} else if !errors.Is(err, core.ErrWithdrawalBatchNotExpired) {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.WithdrawalStatusView(status, available, mc.asset.Decimals))
	}
}
