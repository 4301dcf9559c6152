package postprocessing

import (
	"sync"
	"time"

	"kepler-congestion-go/internal/models"
)

// AlertLog is a bounded in-memory log of published alerts. Once full, the
// oldest record is evicted.
type AlertLog struct {
	mu      sync.RWMutex
	records []models.AlertRecord
	size    int
}

func NewAlertLog(size int) *AlertLog {
	if size <= 0 {
		size = 1
	}
	return &AlertLog{size: size, records: make([]models.AlertRecord, 0, min(size, 1024))}
}

func (l *AlertLog) Append(record models.AlertRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) == l.size {
		copy(l.records, l.records[1:])
		l.records = l.records[:len(l.records)-1]
	}
	l.records = append(l.records, record)
}

// Snapshot copies the log in publication order
func (l *AlertLog) Snapshot() []models.AlertRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AlertRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Timestamps lists the event times of records at or after since
func (l *AlertLog) Timestamps(since time.Time) []time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]time.Time, 0, len(l.records))
	for _, record := range l.records {
		if !record.Event.Timestamp.Before(since) {
			out = append(out, record.Event.Timestamp)
		}
	}
	return out
}

func (l *AlertLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
