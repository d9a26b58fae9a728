package eventstore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Append validates rec, derives its centroid, and commits it as a new event in its own transaction.
// Returns the id assigned to the event.
func (s *EventStore) Append(rec Record) (int64, error) {
	start := time.Now()
	if err := rec.Validate(); err != nil {
		s.metrics.RecordAppend("single", 0, start, err)
		return 0, storageError("append", err)
	}
	ev := rec.toEvent(s.nowFunc())
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&ev).Error
	})
	s.metrics.RecordAppend("single", 1, start, err)
	if err != nil {
		return 0, storageError("append", err)
	}
	return ev.ID, nil
}

// AppendBulk commits all of recs in a single transaction: either every record becomes
// visible, or none do. Ids are assigned in the order of recs, and returned in that order.
// If any record fails validation, nothing is written.
func (s *EventStore) AppendBulk(recs []Record) ([]int64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	start := time.Now()
	for i := range recs {
		if err := recs[i].Validate(); err != nil {
			err = fmt.Errorf("record %v: %w", i, err)
			s.metrics.RecordAppend("bulk", 0, start, err)
			return nil, storageError("append-bulk", err)
		}
	}

	now := s.nowFunc()
	events := make([]Event, len(recs))
	for i := range recs {
		events[i] = recs[i].toEvent(now)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&events, bulkInsertBatchSize).Error
	})
	s.metrics.RecordAppend("bulk", len(events), start, err)
	if err != nil {
		return nil, storageError("append-bulk", err)
	}

	ids := make([]int64, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	return ids, nil
}
