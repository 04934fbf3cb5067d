// Package analytics rolls transfer events up into daily volume points.
package analytics

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

const millisPerDay = 24 * 60 * 60 * 1000

// AggregateDaily buckets transfer events by UTC day. Points are returned
// in ascending day order.
func AggregateDaily(events []*domain.TransferEvent) []*domain.TransferVolumePoint {
	byDay := make(map[int64]*domain.TransferVolumePoint)
	for _, e := range events {
		day := (e.Timestamp / millisPerDay) * millisPerDay
		p, ok := byDay[day]
		if !ok {
			p = &domain.TransferVolumePoint{DayStartMs: day}
			byDay[day] = p
		}
		p.Transfers++
		p.Gross += e.Gross
		p.Net += e.Net
		p.Tax += e.Tax
	}

	points := make([]*domain.TransferVolumePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].DayStartMs < points[j].DayStartMs
	})
	return points
}

// Recorder incrementally drains new transfer events into the volume store.
// The volume store is additive per day, so flushing a partial day and then
// the rest of it sums correctly.
type Recorder struct {
	events  storage.TransferEventStore
	volumes storage.TransferVolumeStore
	logger  *log.Logger

	mu      sync.Mutex
	lastSeq int64
}

func NewRecorder(events storage.TransferEventStore, volumes storage.TransferVolumeStore, logger *log.Logger) *Recorder {
	return &Recorder{
		events:  events,
		volumes: volumes,
		logger:  logger,
		lastSeq: -1,
	}
}

// Flush aggregates events recorded since the previous flush and inserts
// the resulting points. Returns the number of events drained.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events.GetSince(ctx, r.lastSeq)
	if err != nil {
		return 0, fmt.Errorf("load events since seq %d: %w", r.lastSeq, err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	points := AggregateDaily(events)
	if err := r.volumes.InsertBulk(ctx, points); err != nil {
		return 0, fmt.Errorf("insert %d volume points: %w", len(points), err)
	}

	r.lastSeq = events[len(events)-1].Seq
	r.logger.Printf("flushed %d transfer events into %d daily points (through seq %d)",
		len(events), len(points), r.lastSeq)
	return len(events), nil
}
