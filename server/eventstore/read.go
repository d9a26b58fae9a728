package eventstore

// Default and maximum page sizes for ReadPage
const (
	DefaultPageSize = 1000
	MaxPageSize     = 10000
)

// ReadPage returns up to limit events with id greater than afterID, in id order.
// Pass afterID = 0 to start from the beginning, and then the id of the last event
// of each page to continue. An empty result means there are no more events.
func (s *EventStore) ReadPage(afterID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}
	events := []Event{}
	if err := s.db.Where("id > ?", afterID).Order("id").Limit(limit).Find(&events).Error; err != nil {
		return nil, storageError("read", err)
	}
	return events, nil
}
