package market

import (
	"context"
	"fmt"
	"sync"

	"lending/core"
	"lending/internal/clock"
	"lending/pkg/ray"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Engine runs the operations of one market. All calls are serialized.
type Engine struct {
	market    *core.Market
	ledger    core.IMarketLedger
	token     core.IToken
	hooks     core.IHooks
	sanctions core.ISanctionsOracle
	escrows   core.IEscrowFactory
	clock     clock.Clock

	mu sync.Mutex
}

// NewEngine new market engine
func NewEngine(
	market *core.Market,
	ledger core.IMarketLedger,
	token core.IToken,
	hooks core.IHooks,
	sanctions core.ISanctionsOracle,
	escrows core.IEscrowFactory,
	clock clock.Clock,
) *Engine {
	return &Engine{
		market:    market,
		ledger:    ledger,
		token:     token,
		hooks:     hooks,
		sanctions: sanctions,
		escrows:   escrows,
		clock:     clock,
	}
}

var _ core.IMarketEngine = (*Engine)(nil)

// Market market info
func (e *Engine) Market() *core.Market {
	return e.market
}

type inflightKey struct{}

// inflight reports whether ctx belongs to a call already running on market
func inflight(ctx context.Context, market string) bool {
	set, _ := ctx.Value(inflightKey{}).(map[string]bool)
	return set[market]
}

func withInflight(ctx context.Context, market string) context.Context {
	prev, _ := ctx.Value(inflightKey{}).(map[string]bool)
	set := make(map[string]bool, len(prev)+1)
	for k := range prev {
		set[k] = true
	}
	set[market] = true
	return context.WithValue(ctx, inflightKey{}, set)
}

// mutate runs fn on a fresh session and commits it when fn succeeds
func (e *Engine) mutate(ctx context.Context, op string, fn func(s *session) error) error {
	return e.run(ctx, op, true, fn)
}

// view runs fn on a fresh session and discards it
func (e *Engine) view(ctx context.Context, op string, fn func(s *session) error) error {
	return e.run(ctx, op, false, fn)
}

func (e *Engine) run(ctx context.Context, op string, commit bool, fn func(s *session) error) (err error) {
	if inflight(ctx, e.market.Address) {
		return core.ErrReentrantCall
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"market": e.market.Symbol,
		"op":     op,
	})
	ctx = logger.WithContext(withInflight(ctx, e.market.Address), log)

	defer recoverOverflow(&err)

	s, err := e.begin(ctx)
	if err != nil {
		log.WithError(err).Errorln("begin session")
		return err
	}

	if err := fn(s); err != nil {
		log.WithError(err).Debugln("operation aborted")
		return err
	}

	if !commit {
		return nil
	}

	if err := s.commit(); err != nil {
		log.WithError(err).Errorln("commit")
		return err
	}

	return nil
}

func recoverOverflow(err *error) {
	r := recover()
	if r == nil {
		return
	}

	if oe, ok := r.(*ray.OverflowError); ok {
		*err = fmt.Errorf("%w: %s", core.ErrArithmeticOverflow, oe.Op)
		return
	}

	panic(r)
}

func validAmount(amount *uint256.Int) error {
	if amount == nil {
		return core.ErrInvalidAmount
	}

	return nil
}

func (e *Engine) onlyBorrower(caller string) error {
	if caller != e.market.Borrower {
		return core.ErrNotBorrower
	}

	return nil
}
