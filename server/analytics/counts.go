package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Count ties are broken by key, so repeated calls return the same order
const classCountsQuery = `
	SELECT class_id, COUNT(*) AS cnt
	FROM events
	WHERE class_id IS NOT NULL
	GROUP BY class_id
	ORDER BY cnt DESC, class_id ASC
	LIMIT ?`

const trackerCountsQuery = `
	SELECT tracker, COUNT(*) AS cnt
	FROM events
	GROUP BY tracker
	ORDER BY cnt DESC, tracker ASC`

// Summary returns the total number of events, the ten most frequent classes, and the
// number of events per tracker. All three are read from the same snapshot.
func (q *Queries) Summary() (*Summary, error) {
	start := time.Now()
	summary := &Summary{}
	err := q.readTx(func(tx *gorm.DB) error {
		if err := tx.Raw(`SELECT COUNT(*) FROM events`).Row().Scan(&summary.TotalEvents); err != nil {
			return fmt.Errorf("error counting events: %w", err)
		}
		byObject, err := classCounts(tx, DefaultLimit)
		if err != nil {
			return err
		}
		byTracker, err := trackerCounts(tx)
		if err != nil {
			return err
		}
		summary.ByObject = byObject
		summary.ByTracker = byTracker
		return nil
	})
	q.observe("summary", start, err)
	if err != nil {
		return nil, queryError(err)
	}
	return summary, nil
}

// TopObjects returns the most frequent classes, most frequent first, truncated to limit.
// A limit of zero or less means DefaultLimit, and a limit above MaxLimit (1000) is
// reduced to MaxLimit, so at most 1000 classes are ever returned.
func (q *Queries) TopObjects(limit int) ([]ClassCount, error) {
	start := time.Now()
	top, err := classCounts(q.db, ClampLimit(limit))
	q.observe("top_objects", start, err)
	if err != nil {
		return nil, queryError(err)
	}
	return top, nil
}

func classCounts(db *gorm.DB, limit int) ([]ClassCount, error) {
	rows, err := db.Raw(classCountsQuery, limit).Rows()
	if err != nil {
		return nil, fmt.Errorf("error getting class counts: %w", err)
	}
	defer rows.Close()

	counts := []ClassCount{}
	for rows.Next() {
		c := ClassCount{}
		if err := rows.Scan(&c.ClassID, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning class counts: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class counts: %w", err)
	}
	return counts, nil
}

func trackerCounts(db *gorm.DB) ([]TrackerCount, error) {
	rows, err := db.Raw(trackerCountsQuery).Rows()
	if err != nil {
		return nil, fmt.Errorf("error getting tracker counts: %w", err)
	}
	defer rows.Close()

	counts := []TrackerCount{}
	for rows.Next() {
		c := TrackerCount{}
		if err := rows.Scan(&c.Tracker, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning tracker counts: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracker counts: %w", err)
	}
	return counts, nil
}
