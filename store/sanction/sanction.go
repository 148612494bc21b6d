package sanction

import (
	"context"

	"lending/core"

	"github.com/fox-one/pkg/store/db"
)

type sanctionStore struct {
	db *db.DB
}

// New new sanction store
func New(db *db.DB) core.ISanctionStore {
	return &sanctionStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(core.Sanction{}).AutoMigrate(core.Sanction{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.SanctionOverride{}).AutoMigrate(core.SanctionOverride{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *sanctionStore) Flag(ctx context.Context, account string) error {
	return s.db.Update().Where("account=?", account).FirstOrCreate(&core.Sanction{Account: account}).Error
}

func (s *sanctionStore) Unflag(ctx context.Context, account string) error {
	return s.db.Update().Where("account=?", account).Delete(core.Sanction{}).Error
}

func (s *sanctionStore) IsFlagged(ctx context.Context, account string) (bool, error) {
	var count int
	if err := s.db.View().Model(core.Sanction{}).Where("account=?", account).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *sanctionStore) Override(ctx context.Context, borrower, account string) error {
	override := &core.SanctionOverride{Borrower: borrower, Account: account}
	return s.db.Update().Where("borrower=? AND account=?", borrower, account).FirstOrCreate(override).Error
}

func (s *sanctionStore) RemoveOverride(ctx context.Context, borrower, account string) error {
	return s.db.Update().Where("borrower=? AND account=?", borrower, account).Delete(core.SanctionOverride{}).Error
}

func (s *sanctionStore) HasOverride(ctx context.Context, borrower, account string) (bool, error) {
	var count int
	if err := s.db.View().Model(core.SanctionOverride{}).Where("borrower=? AND account=?", borrower, account).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
