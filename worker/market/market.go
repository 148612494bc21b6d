package market

import (
	"context"
	"sync/atomic"
	"time"

	"lending/core"
	"lending/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const checkpointKey = "worker:market:state_updated_at"

// Worker settles every market on a schedule so interest, fees and batch
// expiries are persisted even when no one touches the market
type Worker struct {
	worker.BaseJob
	markets     core.IMarketService
	property    property.Store
	concurrency int
}

// New new market worker
func New(cfg core.Worker, location string, markets core.IMarketService, property property.Store) *Worker {
	job := Worker{
		markets:     markets,
		property:    property,
		concurrency: cfg.Concurrency,
	}

	if job.concurrency <= 0 {
		job.concurrency = 4
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@every 1m"
	}

	l, err := time.LoadLocation(location)
	if err != nil {
		l = time.Local
	}

	job.Cron = cron.New(cron.WithLocation(l))
	if _, err := job.Cron.AddFunc(schedule, job.Run); err != nil {
		panic(err)
	}

	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "market")

	v, err := w.property.Get(ctx, checkpointKey)
	if err != nil {
		log.WithError(err).Errorln("property.Get", checkpointKey)
		return err
	}

	if last := v.Time(); !last.IsZero() {
		log.Debugf("last run %s ago", time.Since(last).Truncate(time.Second))
	}

	updated, failed, err := w.updateAll(ctx)
	if err != nil {
		log.WithError(err).Errorln("list markets")
		return err
	}

	if err := w.property.Save(ctx, checkpointKey, time.Now()); err != nil {
		log.WithError(err).Errorln("property.Save", checkpointKey)
		return err
	}

	log.Infof("%d markets updated, %d failed", updated, failed)
	return nil
}

// updateAll runs UpdateState on every market. A market that fails is
// logged and does not stop the others.
func (w *Worker) updateAll(ctx context.Context) (updated, failed int64, err error) {
	log := logger.FromContext(ctx).WithField("worker", "market")

	markets, err := w.markets.All(ctx)
	if err != nil {
		return 0, 0, err
	}

	var g errgroup.Group
	g.SetLimit(w.concurrency)

	for _, m := range markets {
		market := m
		g.Go(func() error {
			log := log.WithField("market", market.Address)

			engine, err := w.markets.Engine(ctx, market.Address)
			if err == nil {
				err = engine.UpdateState(ctx)
			}

			if err != nil {
				log.WithError(err).Errorln("UpdateState")
				atomic.AddInt64(&failed, 1)
				return nil
			}

			atomic.AddInt64(&updated, 1)
			return nil
		})
	}

	_ = g.Wait()
	return updated, failed, nil
}
