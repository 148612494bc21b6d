package ledger

import (
	"context"

	"lending/core"
	"lending/pkg/fifo"
	"lending/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type ledgerStore struct {
	db       *db.DB
	markets  core.IMarketStore
	balances core.IBalanceStore
	escrows  core.IEscrowStore
	events   core.IEventStore
}

// New new market ledger, a changeset is written in one db transaction
// together with its market row, transfers, escrows and events
func New(
	db *db.DB,
	markets core.IMarketStore,
	balances core.IBalanceStore,
	escrows core.IEscrowStore,
	events core.IEventStore,
) core.IMarketLedger {
	return &ledgerStore{
		db:       db,
		markets:  markets,
		balances: balances,
		escrows:  escrows,
		events:   events,
	}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		for _, model := range []interface{}{
			MarketState{},
			MarketAccount{},
			WithdrawalBatch{},
			WithdrawalStatus{},
			UnpaidBatch{},
		} {
			if err := db.Update().Model(model).AutoMigrate(model).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *ledgerStore) State(ctx context.Context, market string) (*core.MarketState, error) {
	var row MarketState
	if err := s.db.View().Where("market=?", market).First(&row).Error; err != nil {
		if store.IsErrNotFound(err) {
			return nil, core.ErrMarketNotFound
		}

		return nil, err
	}

	return row.decode()
}

func (s *ledgerStore) Account(ctx context.Context, market, address string) (*core.Account, error) {
	var row MarketAccount
	if err := s.db.View().Where("market=? AND address=?", market, address).First(&row).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.Account{Address: address}, nil
		}

		return nil, err
	}

	return row.decode()
}

func (s *ledgerStore) Accounts(ctx context.Context, market string) ([]*core.Account, error) {
	var rows []*MarketAccount
	if err := s.db.View().Where("market=?", market).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]*core.Account, 0, len(rows))
	for _, row := range rows {
		a, err := row.decode()
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, a)
	}

	return accounts, nil
}

func (s *ledgerStore) WithdrawalBatch(ctx context.Context, market string, expiry uint32) (*core.WithdrawalBatch, error) {
	var row WithdrawalBatch
	if err := s.db.View().Where("market=? AND expiry=?", market, expiry).First(&row).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.WithdrawalBatch{Expiry: expiry}, nil
		}

		return nil, err
	}

	return row.decode()
}

func (s *ledgerStore) AccountWithdrawalStatus(ctx context.Context, market string, expiry uint32, account string) (*core.AccountWithdrawalStatus, error) {
	var row WithdrawalStatus
	if err := s.db.View().Where("market=? AND expiry=? AND account=?", market, expiry, account).First(&row).Error; err != nil {
		if store.IsErrNotFound(err) {
			return &core.AccountWithdrawalStatus{Expiry: expiry, Account: account}, nil
		}

		return nil, err
	}

	return row.decode()
}

func (s *ledgerStore) UnpaidBatches(ctx context.Context, market string) (*fifo.Queue[uint32], error) {
	var rows []*UnpaidBatch
	if err := s.db.View().Where("market=?", market).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return fifo.New[uint32](), nil
	}

	expiries := make([]uint32, len(rows))
	for i, row := range rows {
		expiries[i] = row.Expiry
	}

	return fifo.Restore(rows[0].Position, expiries), nil
}

func (s *ledgerStore) Commit(ctx context.Context, cs *core.MarketChangeset) error {
	log := logger.FromContext(ctx).WithField("market", cs.Market)

	err := s.db.Tx(func(tx *db.DB) error {
		if cs.Opening != nil {
			if err := s.markets.Save(ctx, tx, cs.Opening); err != nil {
				return err
			}

			if cs.State != nil {
				if err := tx.Update().Create(fromState(cs.Market, cs.State)).Error; err != nil {
					return err
				}
			}
		} else if err := ensureOpened(tx, cs.Market); err != nil {
			return err
		} else if cs.State != nil {
			if err := updateState(tx, cs.Market, cs.State); err != nil {
				return err
			}
		}

		if err := s.balances.Apply(ctx, tx, cs.Transfers); err != nil {
			return err
		}

		for _, a := range cs.Accounts {
			row := &MarketAccount{
				Market:        cs.Market,
				Address:       a.Address,
				ScaledBalance: number.FromUint256(&a.ScaledBalance),
			}
			if err := upsert(tx, row, &row.ID, "market=? AND address=?", cs.Market, a.Address); err != nil {
				return err
			}
		}

		for _, b := range cs.Batches {
			row := &WithdrawalBatch{
				Market:               cs.Market,
				Expiry:               b.Expiry,
				ScaledTotalAmount:    number.FromUint256(&b.ScaledTotalAmount),
				ScaledAmountBurned:   number.FromUint256(&b.ScaledAmountBurned),
				NormalizedAmountPaid: number.FromUint256(&b.NormalizedAmountPaid),
			}
			if err := upsert(tx, row, &row.ID, "market=? AND expiry=?", cs.Market, b.Expiry); err != nil {
				return err
			}
		}

		for _, st := range cs.Statuses {
			row := &WithdrawalStatus{
				Market:                    cs.Market,
				Expiry:                    st.Expiry,
				Account:                   st.Account,
				ScaledAmount:              number.FromUint256(&st.ScaledAmount),
				NormalizedAmountWithdrawn: number.FromUint256(&st.NormalizedAmountWithdrawn),
			}
			if err := upsert(tx, row, &row.ID, "market=? AND expiry=? AND account=?", cs.Market, st.Expiry, st.Account); err != nil {
				return err
			}
		}

		if cs.Unpaid != nil {
			if err := saveUnpaid(tx, cs.Market, cs.Unpaid); err != nil {
				return err
			}
		}

		if err := s.escrows.Save(ctx, tx, cs.Escrows); err != nil {
			return err
		}

		return s.events.Save(ctx, tx, cs.Events)
	})
	if err != nil {
		log.WithError(err).Errorln("commit changeset")
		return err
	}

	log.Debugf("committed %d transfers, %d events", len(cs.Transfers), len(cs.Events))
	return nil
}

func ensureOpened(tx *db.DB, market string) error {
	var count int
	if err := tx.Update().Model(MarketState{}).Where("market=?", market).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return core.ErrMarketNotFound
	}

	return nil
}

// updateState writes state only if nobody committed since it was read
func updateState(tx *db.DB, market string, state *core.MarketState) error {
	row := fromState(market, state)
	columns := row.columns()
	columns["version"] = state.Version + 1

	update := tx.Update().Model(MarketState{}).
		Where("market=? AND version=?", market, state.Version).
		Updates(columns)
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

// upsert saves every column of row, zero values included
func upsert(tx *db.DB, row interface{}, id *uint64, where string, args ...interface{}) error {
	var ids []uint64
	if err := tx.Update().Model(row).Where(where, args...).Pluck("id", &ids).Error; err != nil {
		return err
	}

	if len(ids) == 0 {
		return tx.Update().Create(row).Error
	}

	*id = ids[0]
	return tx.Update().Save(row).Error
}

func saveUnpaid(tx *db.DB, market string, q *fifo.Queue[uint32]) error {
	if err := tx.Update().Where("market=?", market).Delete(UnpaidBatch{}).Error; err != nil {
		return err
	}

	start := q.StartIndex()
	for i, expiry := range q.Values() {
		row := &UnpaidBatch{
			Market:   market,
			Position: start + uint64(i),
			Expiry:   expiry,
		}
		if err := tx.Update().Create(row).Error; err != nil {
			return err
		}
	}

	return nil
}
