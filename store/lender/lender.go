package lender

import (
	"context"

	"lending/core"

	"github.com/fox-one/pkg/store/db"
)

type lenderStore struct {
	db *db.DB
}

// New new lender store
func New(db *db.DB) core.ILenderStore {
	return &lenderStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Lender{})
		if err := tx.AutoMigrate(core.Lender{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *lenderStore) Approve(ctx context.Context, market, address string) error {
	lender := &core.Lender{Market: market, Address: address}
	return s.db.Update().Where("market=? AND address=?", market, address).FirstOrCreate(lender).Error
}

func (s *lenderStore) Revoke(ctx context.Context, market, address string) error {
	return s.db.Update().Where("market=? AND address=?", market, address).Delete(core.Lender{}).Error
}

func (s *lenderStore) IsApproved(ctx context.Context, market, address string) (bool, error) {
	var count int
	if err := s.db.View().Model(core.Lender{}).Where("market=? AND address=?", market, address).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *lenderStore) List(ctx context.Context, market string) ([]*core.Lender, error) {
	var lenders []*core.Lender
	if err := s.db.View().Where("market=?", market).Order("id").Find(&lenders).Error; err != nil {
		return nil, err
	}

	return lenders, nil
}
