package memstore

import (
	"context"

	"lending/core"
	"lending/pkg/fifo"

	"github.com/fox-one/pkg/store/db"
)

type ledger struct{ *Store }

func (s ledger) State(_ context.Context, market string) (*core.MarketState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[market]
	if !ok {
		return nil, core.ErrMarketNotFound
	}

	return &state, nil
}

func (s ledger) Account(_ context.Context, market, address string) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[pair{market, address}]
	a.Address = address
	return &a, nil
}

func (s ledger) Accounts(_ context.Context, market string) ([]*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []*core.Account
	for key, a := range s.accounts {
		if key.a == market {
			cp := a
			accounts = append(accounts, &cp)
		}
	}

	return accounts, nil
}

func (s ledger) WithdrawalBatch(_ context.Context, market string, expiry uint32) (*core.WithdrawalBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.batches[market][expiry]
	b.Expiry = expiry
	return &b, nil
}

func (s ledger) AccountWithdrawalStatus(_ context.Context, market string, expiry uint32, account string) (*core.AccountWithdrawalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[statusKey{market, expiry, account}]
	st.Expiry = expiry
	st.Account = account
	return &st, nil
}

func (s ledger) UnpaidBatches(_ context.Context, market string) (*fifo.Queue[uint32], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.unpaid[market]; ok {
		return q.Clone(), nil
	}

	return fifo.New[uint32](), nil
}

// Commit applies the changeset all or nothing
func (s ledger) Commit(_ context.Context, cs *core.MarketChangeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failCommit; err != nil {
		s.failCommit = nil
		return err
	}

	if cs.Opening == nil {
		current, ok := s.states[cs.Market]
		if !ok {
			return core.ErrMarketNotFound
		}

		if cs.State != nil && cs.State.Version != current.Version {
			return db.ErrOptimisticLock
		}
	}

	staged, err := s.stageTransfers(cs.Transfers)
	if err != nil {
		return err
	}

	if cs.Opening != nil {
		if err := s.saveMarket(cs.Opening); err != nil {
			return err
		}
	}

	s.applyTransfers(staged, cs.Transfers)

	if cs.State != nil {
		state := *cs.State
		if cs.Opening == nil {
			state.Version++
		}
		s.states[cs.Market] = state
	}

	for _, a := range cs.Accounts {
		s.accounts[pair{cs.Market, a.Address}] = *a
	}

	if len(cs.Batches) > 0 && s.batches[cs.Market] == nil {
		s.batches[cs.Market] = map[uint32]core.WithdrawalBatch{}
	}

	for _, b := range cs.Batches {
		s.batches[cs.Market][b.Expiry] = *b
	}

	for _, st := range cs.Statuses {
		s.statuses[statusKey{cs.Market, st.Expiry, st.Account}] = *st
	}

	if cs.Unpaid != nil {
		s.unpaid[cs.Market] = cs.Unpaid.Clone()
	}

	s.saveEscrows(cs.Escrows)
	s.saveEvents(cs.Events)
	return nil
}
