package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"lending/core"
	"lending/pkg/fifo"
	"lending/pkg/id"
	"lending/pkg/number"
	"lending/pkg/ray"

	"github.com/fox-one/pkg/logger"
	foxuuid "github.com/fox-one/pkg/uuid"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx/types"
)

type statusKey struct {
	expiry  uint32
	account string
}

// session buffers every read and write of one operation. Nothing reaches
// the ledger until commit.
type session struct {
	ctx     context.Context
	engine  *Engine
	traceID string
	now     uint32
	state   core.MarketState

	accounts map[string]*core.Account
	batches  map[uint32]*core.WithdrawalBatch
	statuses map[statusKey]*core.AccountWithdrawalStatus

	unpaid      *fifo.Queue[uint32]
	unpaidDirty bool

	// asset balances read from the token, and buffered movements
	balances  map[string]*uint256.Int
	transfers []*core.Transfer
	escrows   map[string]*core.Escrow
	events    []pendingEvent
}

// pendingEvent is encoded when the session commits
type pendingEvent struct {
	name string
	data map[string]interface{}
}

func (e *Engine) begin(ctx context.Context) (*session, error) {
	state, err := e.ledger.State(ctx, e.market.Address)
	if err != nil {
		return nil, err
	}

	return &session{
		ctx:      ctx,
		engine:   e,
		traceID:  id.GenTraceID(),
		now:      e.clock.Now(),
		state:    *state,
		accounts: map[string]*core.Account{},
		batches:  map[uint32]*core.WithdrawalBatch{},
		statuses: map[statusKey]*core.AccountWithdrawalStatus{},
		balances: map[string]*uint256.Int{},
		escrows:  map[string]*core.Escrow{},
	}, nil
}

func (s *session) market() *core.Market {
	return s.engine.market
}

func (s *session) hooks() core.IHooks {
	return s.engine.hooks
}

func (s *session) account(address string) (*core.Account, error) {
	if a, ok := s.accounts[address]; ok {
		return a, nil
	}

	a, err := s.engine.ledger.Account(s.ctx, s.market().Address, address)
	if err != nil {
		return nil, err
	}

	a.Address = address
	s.accounts[address] = a
	return a, nil
}

func (s *session) batch(expiry uint32) (*core.WithdrawalBatch, error) {
	if b, ok := s.batches[expiry]; ok {
		return b, nil
	}

	b, err := s.engine.ledger.WithdrawalBatch(s.ctx, s.market().Address, expiry)
	if err != nil {
		return nil, err
	}

	b.Expiry = expiry
	s.batches[expiry] = b
	return b, nil
}

func (s *session) status(expiry uint32, account string) (*core.AccountWithdrawalStatus, error) {
	key := statusKey{expiry: expiry, account: account}
	if st, ok := s.statuses[key]; ok {
		return st, nil
	}

	st, err := s.engine.ledger.AccountWithdrawalStatus(s.ctx, s.market().Address, expiry, account)
	if err != nil {
		return nil, err
	}

	st.Expiry = expiry
	st.Account = account
	s.statuses[key] = st
	return st, nil
}

func (s *session) unpaidQueue() (*fifo.Queue[uint32], error) {
	if s.unpaid != nil {
		return s.unpaid, nil
	}

	q, err := s.engine.ledger.UnpaidBatches(s.ctx, s.market().Address)
	if err != nil {
		return nil, err
	}

	s.unpaid = q
	return q, nil
}

// balanceOf asset balance of owner including buffered transfers
func (s *session) balanceOf(owner string) (*uint256.Int, error) {
	if b, ok := s.balances[owner]; ok {
		return b, nil
	}

	b, err := s.engine.token.BalanceOf(s.ctx, owner)
	if err != nil {
		return nil, err
	}

	s.balances[owner] = b.Clone()
	return s.balances[owner], nil
}

// totalAssets asset balance held by the market
func (s *session) totalAssets() (*uint256.Int, error) {
	b, err := s.balanceOf(s.market().Address)
	if err != nil {
		return nil, err
	}

	return b.Clone(), nil
}

// transfer moves asset from sender to opponent. The move is applied by the
// ledger together with the rest of the session.
func (s *session) transfer(sender, opponent string, amount *uint256.Int, memo string) error {
	if amount.IsZero() {
		return nil
	}

	from, err := s.balanceOf(sender)
	if err != nil {
		return err
	}

	if from.Lt(amount) {
		return fmt.Errorf("%w: %s balance %s below %s", core.ErrTransferFailed, sender, from.Dec(), amount.Dec())
	}

	to, err := s.balanceOf(opponent)
	if err != nil {
		return err
	}

	from.Sub(from, amount)
	to.Set(ray.Add(to, amount))

	s.transfers = append(s.transfers, &core.Transfer{
		TraceID:  foxuuid.Modify(s.traceID, "transfer:"+strconv.Itoa(len(s.transfers))),
		AssetID:  s.engine.token.AssetID(),
		Sender:   sender,
		Opponent: opponent,
		Amount:   number.FromUint256(amount),
		Memo:     memo,
	})

	return nil
}

func (s *session) isSanctioned(account string) (bool, error) {
	return s.engine.sanctions.IsSanctioned(s.ctx, s.market().Borrower, account)
}

// ensureNotSanctioned fails with ErrAccountBlocked for sanctioned accounts
func (s *session) ensureNotSanctioned(accounts ...string) error {
	for _, account := range accounts {
		sanctioned, err := s.isSanctioned(account)
		if err != nil {
			return err
		}

		if sanctioned {
			return core.ErrAccountBlocked
		}
	}

	return nil
}

// emit records a domain event
func (s *session) emit(name string, data map[string]interface{}) {
	s.events = append(s.events, pendingEvent{name: name, data: data})
}

// encodeEvents encodes the recorded events, amounts as decimal strings
func (s *session) encodeEvents() ([]*core.Event, error) {
	log := logger.FromContext(s.ctx)

	events := make([]*core.Event, 0, len(s.events))
	for idx, e := range s.events {
		for k, v := range e.data {
			if i, ok := v.(*uint256.Int); ok {
				e.data[k] = i.Dec()
			}
		}

		b, err := json.Marshal(e.data)
		if err != nil {
			return nil, fmt.Errorf("encode event %s: %w", e.name, err)
		}

		events = append(events, &core.Event{
			TraceID:   foxuuid.Modify(s.traceID, "event:"+strconv.Itoa(idx)),
			Market:    s.market().Address,
			Name:      e.name,
			Data:      types.JSONText(b),
			Timestamp: s.now,
		})

		log.WithField("event", e.name).Debugln(string(b))
	}

	return events, nil
}

// writeState refreshes the delinquency flag against the assets held after
// the operation
func (s *session) writeState() error {
	totalAssets, err := s.totalAssets()
	if err != nil {
		return err
	}

	s.state.IsDelinquent = s.state.LiquidityRequired().Gt(totalAssets)
	s.emit(core.EventStateUpdated, map[string]interface{}{
		"scale_factor":  s.state.ScaleFactor.Clone(),
		"is_delinquent": s.state.IsDelinquent,
	})

	return nil
}

func (s *session) changeset() (*core.MarketChangeset, error) {
	events, err := s.encodeEvents()
	if err != nil {
		return nil, err
	}

	state := s.state
	cs := &core.MarketChangeset{
		Market:    s.market().Address,
		State:     &state,
		Transfers: s.transfers,
		Events:    events,
	}

	state.CheckBounds()

	addresses := make([]string, 0, len(s.accounts))
	for address := range s.accounts {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	for _, address := range addresses {
		a := s.accounts[address]
		a.CheckBounds()
		cs.Accounts = append(cs.Accounts, a)
	}

	expiries := make([]uint32, 0, len(s.batches))
	for expiry := range s.batches {
		expiries = append(expiries, expiry)
	}
	sort.Slice(expiries, func(i, j int) bool { return expiries[i] < expiries[j] })
	for _, expiry := range expiries {
		b := s.batches[expiry]
		b.CheckBounds()
		cs.Batches = append(cs.Batches, b)
	}

	keys := make([]statusKey, 0, len(s.statuses))
	for key := range s.statuses {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].expiry != keys[j].expiry {
			return keys[i].expiry < keys[j].expiry
		}
		return keys[i].account < keys[j].account
	})
	for _, key := range keys {
		st := s.statuses[key]
		st.CheckBounds()
		cs.Statuses = append(cs.Statuses, st)
	}

	if s.unpaidDirty {
		cs.Unpaid = s.unpaid
	}

	escrows := make([]string, 0, len(s.escrows))
	for address := range s.escrows {
		escrows = append(escrows, address)
	}
	sort.Strings(escrows)
	for _, address := range escrows {
		cs.Escrows = append(cs.Escrows, s.escrows[address])
	}

	return cs, nil
}

func (s *session) commit() error {
	if err := s.writeState(); err != nil {
		return err
	}

	cs, err := s.changeset()
	if err != nil {
		return err
	}

	return s.engine.ledger.Commit(s.ctx, cs)
}
