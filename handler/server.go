package handler

import (
	"net/http"

	"lending/core"
	"lending/handler/render"
	"lending/handler/rest"

	"github.com/go-chi/chi"
	"github.com/twitchtv/twirp"
)

// Server server
type Server struct {
	markets  core.IMarketService
	assets   core.IAssetStore
	balances core.IBalanceStore
	events   core.IEventStore
}

// New new server function
func New(
	markets core.IMarketService,
	assets core.IAssetStore,
	balances core.IBalanceStore,
	events core.IEventStore,
) Server {
	return Server{
		markets:  markets,
		assets:   assets,
		balances: balances,
		events:   events,
	}
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(render.WrapResponse)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, twirp.NotFoundError("not found"))
	})

	r.Mount("/", rest.Handle(s.markets, s.assets, s.balances, s.events))
	return r
}
