package market

import (
	"context"

	"lending/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type marketStore struct {
	db *db.DB
}

// New new market store
func New(db *db.DB) core.IMarketStore {
	return &marketStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Market{})
		if err := tx.AutoMigrate(core.Market{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *marketStore) Save(ctx context.Context, tx *db.DB, market *core.Market) error {
	if err := tx.Update().Create(market).Error; err != nil {
		return err
	}
	return nil
}

func (s *marketStore) Find(ctx context.Context, address string) (*core.Market, error) {
	return s.findBy("address", address)
}

func (s *marketStore) FindBySymbol(ctx context.Context, symbol string) (*core.Market, error) {
	return s.findBy("symbol", symbol)
}

func (s *marketStore) findBy(column, value string) (*core.Market, error) {
	var market core.Market
	if err := s.db.View().Where(column+"=?", value).First(&market).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.Market{}, nil
		}

		return nil, err
	}

	return &market, nil
}

func (s *marketStore) ListByBorrower(ctx context.Context, borrower string) ([]*core.Market, error) {
	var markets []*core.Market
	if err := s.db.View().Where("borrower=?", borrower).Order("id").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

func (s *marketStore) All(ctx context.Context) ([]*core.Market, error) {
	var markets []*core.Market
	if err := s.db.View().Order("id").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}
