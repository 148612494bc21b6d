package escrow

import (
	"context"

	"lending/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type escrowStore struct {
	db *db.DB
}

// New new escrow store
func New(db *db.DB) core.IEscrowStore {
	return &escrowStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Escrow{})
		if err := tx.AutoMigrate(core.Escrow{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *escrowStore) Save(ctx context.Context, tx *db.DB, escrows []*core.Escrow) error {
	for _, escrow := range escrows {
		if err := tx.Update().Where("address=?", escrow.Address).FirstOrCreate(escrow).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *escrowStore) Find(ctx context.Context, address string) (*core.Escrow, error) {
	var escrow core.Escrow
	if err := s.db.View().Where("address=?", address).First(&escrow).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.Escrow{}, nil
		}

		return nil, err
	}

	return &escrow, nil
}

func (s *escrowStore) ListByAccount(ctx context.Context, account string) ([]*core.Escrow, error) {
	var escrows []*core.Escrow
	if err := s.db.View().Where("account=?", account).Order("id").Find(&escrows).Error; err != nil {
		return nil, err
	}

	return escrows, nil
}
