package balance

import (
	"context"
	"fmt"
	"time"

	"lending/core"
	"lending/pkg/id"
	"lending/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Balance amount of one asset held by an owner
type Balance struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	AssetID   string          `sql:"size:36;unique_index:balance_owner_idx"`
	Owner     string          `sql:"size:36;unique_index:balance_owner_idx"`
	Amount    decimal.Decimal `sql:"type:decimal(65,0)"`
	Version   int64           `sql:"default:0"`
	UpdatedAt time.Time
}

type balanceStore struct {
	db *db.DB
}

// New new balance store
func New(db *db.DB) core.IBalanceStore {
	return &balanceStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(Balance{}).AutoMigrate(Balance{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.Transfer{}).AutoMigrate(core.Transfer{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *balanceStore) BalanceOf(ctx context.Context, assetID, owner string) (*uint256.Int, error) {
	var b Balance
	if err := s.db.View().Where("asset_id=? AND owner=?", assetID, owner).First(&b).Error; err != nil {
		if store.IsErrNotFound(err) {
			return new(uint256.Int), nil
		}

		return nil, err
	}

	return number.ToUint256(b.Amount)
}

func (s *balanceStore) Mint(ctx context.Context, assetID, owner string, amount *uint256.Int) error {
	log := logger.FromContext(ctx).WithField("asset", assetID)

	if err := s.db.Tx(func(tx *db.DB) error {
		return adjust(tx, assetID, owner, number.FromUint256(amount))
	}); err != nil {
		log.WithError(err).Errorln("mint", owner)
		return err
	}

	log.Debugf("minted %s to %s", amount.Dec(), owner)
	return nil
}

// Apply runs inside the caller's tx
func (s *balanceStore) Apply(ctx context.Context, tx *db.DB, transfers []*core.Transfer) error {
	for _, t := range transfers {
		if t.TraceID == "" {
			t.TraceID = id.GenTraceID()
		}

		if err := adjust(tx, t.AssetID, t.Sender, t.Amount.Neg()); err != nil {
			return err
		}

		if err := adjust(tx, t.AssetID, t.Opponent, t.Amount); err != nil {
			return err
		}

		if err := tx.Update().Create(t).Error; err != nil {
			return err
		}
	}

	return nil
}

func adjust(tx *db.DB, assetID, owner string, delta decimal.Decimal) error {
	b := Balance{AssetID: assetID, Owner: owner, Amount: decimal.Zero}
	if err := tx.Update().Where("asset_id=? AND owner=?", assetID, owner).FirstOrCreate(&b).Error; err != nil {
		return err
	}

	amount := b.Amount.Add(delta)
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s balance %s below %s", core.ErrTransferFailed, owner, b.Amount, delta.Neg())
	}

	update := tx.Update().Model(Balance{}).
		Where("id=? AND version=?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"amount":  amount,
			"version": b.Version + 1,
		})
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *balanceStore) ListTransfers(ctx context.Context, assetID string, from uint64, limit int) ([]*core.Transfer, error) {
	var transfers []*core.Transfer
	query := s.db.View().Where("id > ?", from)
	if assetID != "" {
		query = query.Where("asset_id=?", assetID)
	}

	if err := query.Order("id").Limit(limit).Find(&transfers).Error; err != nil {
		return nil, err
	}

	return transfers, nil
}
