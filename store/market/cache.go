package market

import (
	"context"
	"fmt"

	"lending/core"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

// Cache caches markets found by address or symbol. Market rows never change
// once opened, misses are not cached.
func Cache(store core.IMarketStore, size int) core.IMarketStore {
	if size <= 0 {
		size = 256
	}

	return &cacheMarketStore{
		IMarketStore: store,
		cache:        gcache.New(size).LRU().Build(),
		sf:           &singleflight.Group{},
	}
}

type cacheMarketStore struct {
	core.IMarketStore
	cache gcache.Cache
	sf    *singleflight.Group
}

func (s *cacheMarketStore) Find(ctx context.Context, address string) (*core.Market, error) {
	return s.find(addressKey(address), func() (*core.Market, error) {
		return s.IMarketStore.Find(ctx, address)
	})
}

func (s *cacheMarketStore) FindBySymbol(ctx context.Context, symbol string) (*core.Market, error) {
	return s.find(symbolKey(symbol), func() (*core.Market, error) {
		return s.IMarketStore.FindBySymbol(ctx, symbol)
	})
}

func (s *cacheMarketStore) find(key string, load func() (*core.Market, error)) (*core.Market, error) {
	if v, err := s.cache.Get(key); err == nil {
		if market, ok := v.(*core.Market); ok {
			return market, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		market, err := load()
		if err != nil {
			return nil, err
		}

		if market.ID > 0 {
			s.cacheMarket(market)
		}

		return market, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*core.Market), nil
}

func (s *cacheMarketStore) cacheMarket(market *core.Market) {
	s.cache.Set(addressKey(market.Address), market)
	s.cache.Set(symbolKey(market.Symbol), market)
}

func addressKey(address string) string {
	return fmt.Sprintf("market:address:%s", address)
}

func symbolKey(symbol string) string {
	return fmt.Sprintf("market:symbol:%s", symbol)
}
