package rest

import (
	"errors"
	"net/http"

	"lending/core"
	"lending/handler/render"

	"github.com/go-chi/chi"
	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
	decoder.SetAliasTag("json")
}

// Handle handle rest api request
func Handle(
	markets core.IMarketService,
	assets core.IAssetStore,
	balances core.IBalanceStore,
	events core.IEventStore,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/assets", assetsHandler(assets))
	router.Get("/transfers", transfersHandler(balances))

	router.Route("/markets", func(r chi.Router) {
		r.Get("/", marketsHandler(markets, assets))

		r.Route("/{address}", func(r chi.Router) {
			r.Get("/", marketHandler(markets, assets))
			r.Get("/summary", summaryHandler(markets, assets))
			r.Get("/unpaid", unpaidHandler(markets))
			r.Get("/events", eventsHandler(markets, events))
			r.Get("/accounts/{account}", accountHandler(markets, assets))
			r.Get("/batches/{expiry}", batchHandler(markets, assets))
			r.Get("/batches/{expiry}/accounts/{account}", withdrawalStatusHandler(markets, assets))
		})
	})

	return router
}

// page query params of list endpoints
type page struct {
	From    uint64 `json:"from"`
	Limit   int    `json:"limit"`
	AssetID string `json:"asset_id"`
}

func (p *page) normalize() {
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}
}

func bindQuery(r *http.Request, dst interface{}) error {
	return decoder.Decode(dst, r.URL.Query())
}
