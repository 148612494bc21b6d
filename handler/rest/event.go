package rest

import (
	"net/http"

	"lending/core"
	"lending/handler/render"

	"github.com/go-chi/chi"
)

func eventsHandler(markets core.IMarketService, events core.IEventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params page
		if err := bindQuery(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}
		params.normalize()

		market, err := markets.Find(ctx, chi.URLParam(r, "address"))
		if err != nil {
			render.Error(w, err)
			return
		}

		list, err := events.List(ctx, market.Address, params.From, params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, list)
	}
}

func transfersHandler(balances core.IBalanceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params page
		if err := bindQuery(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}
		params.normalize()

		list, err := balances.ListTransfers(r.Context(), params.AssetID, params.From, params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, list)
	}
}
