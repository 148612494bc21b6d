package event

import (
	"context"

	"lending/core"

	"github.com/fox-one/pkg/store/db"
)

type eventStore struct {
	db *db.DB
}

// New new event store
func New(db *db.DB) core.IEventStore {
	return &eventStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Event{})
		if err := tx.AutoMigrate(core.Event{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *eventStore) Save(ctx context.Context, tx *db.DB, events []*core.Event) error {
	for _, event := range events {
		if err := tx.Update().Where("trace_id=?", event.TraceID).FirstOrCreate(event).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *eventStore) List(ctx context.Context, market string, from uint64, limit int) ([]*core.Event, error) {
	var events []*core.Event
	query := s.db.View().Where("id > ?", from)
	if market != "" {
		query = query.Where("market=?", market)
	}

	if err := query.Order("id").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
