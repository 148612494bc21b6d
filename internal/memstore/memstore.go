// Package memstore keeps every store in process memory. It backs tests and
// the simulate command; all stores of one Store share a single lock.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lending/core"
	"lending/pkg/fifo"
	"lending/pkg/number"
	"lending/pkg/ray"

	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
)

type pair struct {
	a, b string
}

type statusKey struct {
	market  string
	expiry  uint32
	account string
}

// Store in memory backend
type Store struct {
	mu sync.Mutex

	markets map[string]*core.Market
	assets  map[string]*core.Asset

	balances  map[pair]*uint256.Int
	transfers []*core.Transfer

	states   map[string]core.MarketState
	accounts map[pair]core.Account
	batches  map[string]map[uint32]core.WithdrawalBatch
	statuses map[statusKey]core.AccountWithdrawalStatus
	unpaid   map[string]*fifo.Queue[uint32]

	escrows   map[string]*core.Escrow
	events    []*core.Event
	flagged   map[string]bool
	overrides map[pair]bool
	lenders   map[pair]*core.Lender

	seq uint64

	// failCommit, when set, fails the next ledger commit
	failCommit error
}

// New empty store
func New() *Store {
	return &Store{
		markets:   map[string]*core.Market{},
		assets:    map[string]*core.Asset{},
		balances:  map[pair]*uint256.Int{},
		states:    map[string]core.MarketState{},
		accounts:  map[pair]core.Account{},
		batches:   map[string]map[uint32]core.WithdrawalBatch{},
		statuses:  map[statusKey]core.AccountWithdrawalStatus{},
		unpaid:    map[string]*fifo.Queue[uint32]{},
		escrows:   map[string]*core.Escrow{},
		flagged:   map[string]bool{},
		overrides: map[pair]bool{},
		lenders:   map[pair]*core.Lender{},
	}
}

// FailNextCommit makes the next ledger commit return err
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	s.failCommit = err
	s.mu.Unlock()
}

func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) Markets() core.IMarketStore { return marketStore{s} }
func (s *Store) Assets() core.IAssetStore { return assetStore{s} }
func (s *Store) Balances() core.IBalanceStore { return balanceStore{s} }
func (s *Store) Ledger() core.IMarketLedger { return ledger{s} }
func (s *Store) Sanctions() core.ISanctionStore { return sanctionStore{s} }
func (s *Store) Escrows() core.IEscrowStore { return escrowStore{s} }
func (s *Store) Lenders() core.ILenderStore { return lenderStore{s} }
func (s *Store) Events() core.IEventStore { return eventStore{s} }

type marketStore struct{ *Store }

func (s marketStore) Save(_ context.Context, _ *db.DB, market *core.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveMarket(market)
}

func (s *Store) saveMarket(market *core.Market) error {
	if _, ok := s.markets[market.Address]; ok {
		return fmt.Errorf("memstore: market %s exists", market.Address)
	}

	market.ID = s.nextID()
	market.CreatedAt = time.Now()
	market.UpdatedAt = market.CreatedAt
	cp := *market
	s.markets[market.Address] = &cp
	return nil
}

func (s marketStore) Find(_ context.Context, address string) (*core.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.markets[address]; ok {
		cp := *m
		return &cp, nil
	}

	return &core.Market{}, nil
}

func (s marketStore) FindBySymbol(_ context.Context, symbol string) (*core.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.markets {
		if m.Symbol == symbol {
			cp := *m
			return &cp, nil
		}
	}

	return &core.Market{}, nil
}

func (s marketStore) ListByBorrower(ctx context.Context, borrower string) ([]*core.Market, error) {
	all, _ := s.All(ctx)
	markets := all[:0]
	for _, m := range all {
		if m.Borrower == borrower {
			markets = append(markets, m)
		}
	}

	return markets, nil
}

func (s marketStore) All(_ context.Context) ([]*core.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	markets := make([]*core.Market, 0, len(s.markets))
	for _, m := range s.markets {
		cp := *m
		markets = append(markets, &cp)
	}

	sort.Slice(markets, func(i, j int) bool { return markets[i].ID < markets[j].ID })
	return markets, nil
}

type assetStore struct{ *Store }

func (s assetStore) Save(_ context.Context, asset *core.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *asset
	s.assets[asset.ID] = &cp
	return nil
}

func (s assetStore) Find(_ context.Context, id string) (*core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.assets[id]; ok {
		cp := *a
		return &cp, nil
	}

	return &core.Asset{}, nil
}

func (s assetStore) All(_ context.Context) ([]*core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets := make([]*core.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		cp := *a
		assets = append(assets, &cp)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

type balanceStore struct{ *Store }

func (s balanceStore) BalanceOf(_ context.Context, assetID, owner string) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.balances[pair{assetID, owner}]; ok {
		return b.Clone(), nil
	}

	return ray.Zero(), nil
}

func (s balanceStore) Mint(_ context.Context, assetID, owner string, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pair{assetID, owner}
	b, ok := s.balances[key]
	if !ok {
		b = ray.Zero()
		s.balances[key] = b
	}

	sum, overflow := new(uint256.Int).AddOverflow(b, amount)
	if overflow {
		return core.ErrArithmeticOverflow
	}

	b.Set(sum)
	return nil
}

func (s balanceStore) Apply(_ context.Context, _ *db.DB, transfers []*core.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged, err := s.stageTransfers(transfers)
	if err != nil {
		return err
	}

	s.applyTransfers(staged, transfers)
	return nil
}

// stageTransfers computes the balances after transfers without writing them
func (s *Store) stageTransfers(transfers []*core.Transfer) (map[pair]*uint256.Int, error) {
	staged := map[pair]*uint256.Int{}
	get := func(key pair) *uint256.Int {
		if b, ok := staged[key]; ok {
			return b
		}

		b := ray.Zero()
		if cur, ok := s.balances[key]; ok {
			b.Set(cur)
		}

		staged[key] = b
		return b
	}

	for _, t := range transfers {
		amount, err := number.ToUint256(t.Amount)
		if err != nil {
			return nil, err
		}

		from := get(pair{t.AssetID, t.Sender})
		if from.Lt(amount) {
			return nil, fmt.Errorf("%w: %s balance %s below %s", core.ErrTransferFailed, t.Sender, from.Dec(), amount.Dec())
		}

		from.Sub(from, amount)

		to := get(pair{t.AssetID, t.Opponent})
		sum, overflow := new(uint256.Int).AddOverflow(to, amount)
		if overflow {
			return nil, core.ErrArithmeticOverflow
		}

		to.Set(sum)
	}

	return staged, nil
}

func (s *Store) applyTransfers(staged map[pair]*uint256.Int, transfers []*core.Transfer) {
	for key, b := range staged {
		s.balances[key] = b
	}

	for _, t := range transfers {
		t.ID = s.nextID()
		t.CreatedAt = time.Now()
		cp := *t
		s.transfers = append(s.transfers, &cp)
	}
}

func (s balanceStore) ListTransfers(_ context.Context, assetID string, from uint64, limit int) ([]*core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var transfers []*core.Transfer
	for _, t := range s.transfers {
		if t.ID <= from || (assetID != "" && t.AssetID != assetID) {
			continue
		}

		cp := *t
		transfers = append(transfers, &cp)
		if limit > 0 && len(transfers) >= limit {
			break
		}
	}

	return transfers, nil
}

type sanctionStore struct{ *Store }

func (s sanctionStore) Flag(_ context.Context, account string) error {
	s.mu.Lock()
	s.flagged[account] = true
	s.mu.Unlock()
	return nil
}

func (s sanctionStore) Unflag(_ context.Context, account string) error {
	s.mu.Lock()
	delete(s.flagged, account)
	s.mu.Unlock()
	return nil
}

func (s sanctionStore) IsFlagged(_ context.Context, account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagged[account], nil
}

func (s sanctionStore) Override(_ context.Context, borrower, account string) error {
	s.mu.Lock()
	s.overrides[pair{borrower, account}] = true
	s.mu.Unlock()
	return nil
}

func (s sanctionStore) RemoveOverride(_ context.Context, borrower, account string) error {
	s.mu.Lock()
	delete(s.overrides, pair{borrower, account})
	s.mu.Unlock()
	return nil
}

func (s sanctionStore) HasOverride(_ context.Context, borrower, account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overrides[pair{borrower, account}], nil
}

type escrowStore struct{ *Store }

func (s escrowStore) Save(_ context.Context, _ *db.DB, escrows []*core.Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveEscrows(escrows)
	return nil
}

func (s *Store) saveEscrows(escrows []*core.Escrow) {
	for _, e := range escrows {
		if _, ok := s.escrows[e.Address]; ok {
			continue
		}

		e.ID = s.nextID()
		e.CreatedAt = time.Now()
		cp := *e
		s.escrows[e.Address] = &cp
	}
}

func (s escrowStore) Find(_ context.Context, address string) (*core.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.escrows[address]; ok {
		cp := *e
		return &cp, nil
	}

	return &core.Escrow{}, nil
}

func (s escrowStore) ListByAccount(_ context.Context, account string) ([]*core.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var escrows []*core.Escrow
	for _, e := range s.escrows {
		if e.Account == account {
			cp := *e
			escrows = append(escrows, &cp)
		}
	}

	sort.Slice(escrows, func(i, j int) bool { return escrows[i].ID < escrows[j].ID })
	return escrows, nil
}

type lenderStore struct{ *Store }

func (s lenderStore) Approve(_ context.Context, market, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pair{market, address}
	if _, ok := s.lenders[key]; !ok {
		s.lenders[key] = &core.Lender{
			ID:        s.nextID(),
			Market:    market,
			Address:   address,
			CreatedAt: time.Now(),
		}
	}

	return nil
}

func (s lenderStore) Revoke(_ context.Context, market, address string) error {
	s.mu.Lock()
	delete(s.lenders, pair{market, address})
	s.mu.Unlock()
	return nil
}

func (s lenderStore) IsApproved(_ context.Context, market, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.lenders[pair{market, address}]
	return ok, nil
}

func (s lenderStore) List(_ context.Context, market string) ([]*core.Lender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lenders []*core.Lender
	for key, l := range s.lenders {
		if key.a == market {
			cp := *l
			lenders = append(lenders, &cp)
		}
	}

	sort.Slice(lenders, func(i, j int) bool { return lenders[i].ID < lenders[j].ID })
	return lenders, nil
}

type eventStore struct{ *Store }

func (s eventStore) Save(_ context.Context, _ *db.DB, events []*core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveEvents(events)
	return nil
}

func (s *Store) saveEvents(events []*core.Event) {
	for _, e := range events {
		e.ID = s.nextID()
		e.CreatedAt = time.Now()
		cp := *e
		s.events = append(s.events, &cp)
	}
}

func (s eventStore) List(_ context.Context, market string, from uint64, limit int) ([]*core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []*core.Event
	for _, e := range s.events {
		if e.ID <= from || (market != "" && e.Market != market) {
			continue
		}

		cp := *e
		events = append(events, &cp)
		if limit > 0 && len(events) >= limit {
			break
		}
	}

	return events, nil
}
