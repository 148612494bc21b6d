package asset

import (
	"context"

	"lending/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type assetStore struct {
	db *db.DB
}

// New new asset store
func New(db *db.DB) core.IAssetStore {
	return &assetStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Asset{})
		if err := tx.AutoMigrate(core.Asset{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *assetStore) Save(ctx context.Context, asset *core.Asset) error {
	return s.db.Update().Where("id=?", asset.ID).Assign(asset).FirstOrCreate(&core.Asset{}).Error
}

func (s *assetStore) Find(ctx context.Context, id string) (*core.Asset, error) {
	var asset core.Asset
	if err := s.db.View().Where("id=?", id).First(&asset).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.Asset{}, nil
		}

		return nil, err
	}

	return &asset, nil
}

func (s *assetStore) All(ctx context.Context) ([]*core.Asset, error) {
	var assets []*core.Asset
	if err := s.db.View().Order("symbol").Find(&assets).Error; err != nil {
		return nil, err
	}

	return assets, nil
}
