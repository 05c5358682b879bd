package calendar

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
)

// MemoryRepository keeps events in a map. It backs the "memory" storage
// driver and the service tests.
//
// A transaction works on its own copy of the map, which replaces the
// committed one on success. Readers outside the transaction only ever see
// committed events.
type MemoryRepository struct {
	writeMu        sync.Mutex // one writer at a time, transactions included
	mu             sync.RWMutex
	items          eventMap
	transactionErr error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(eventMap),
	}
}

func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	tx := &memoryTransaction{items: maps.Clone(r.items)}
	r.mu.RUnlock()

	err := fn(tx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		err = r.transactionErr
	}
	r.transactionErr = nil
	if err != nil {
		return err
	}
	r.items = tx.items
	return nil
}

func (r *MemoryRepository) GetAllEvents(ctx context.Context) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items.sorted(), nil
}

func (r *MemoryRepository) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return recurrence.Between(from, to, r.items.sorted()), nil
}

func (r *MemoryRepository) GetEvent(ctx context.Context, id string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items.get(id)
}

func (r *MemoryRepository) StoreEvents(ctx context.Context, events []Event) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.store(events)
	return nil
}

func (r *MemoryRepository) UpdateEvent(ctx context.Context, event Event) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.update(event)
}

func (r *MemoryRepository) DeleteEvents(ctx context.Context, ids []string) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.delete(ids), nil
}

// SetTransactionError makes the next transaction roll back with err.
func (r *MemoryRepository) SetTransactionError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactionErr = err
}

// memoryTransaction is the handle passed to a transaction's fn. It is only
// used by that fn, so it needs no locking.
type memoryTransaction struct {
	items eventMap
}

func (t *memoryTransaction) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(t)
}

func (t *memoryTransaction) GetAllEvents(ctx context.Context) ([]Event, error) {
	return t.items.sorted(), nil
}

func (t *memoryTransaction) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	return recurrence.Between(from, to, t.items.sorted()), nil
}

func (t *memoryTransaction) GetEvent(ctx context.Context, id string) (Event, error) {
	return t.items.get(id)
}

func (t *memoryTransaction) StoreEvents(ctx context.Context, events []Event) error {
	t.items.store(events)
	return nil
}

func (t *memoryTransaction) UpdateEvent(ctx context.Context, event Event) error {
	return t.items.update(event)
}

func (t *memoryTransaction) DeleteEvents(ctx context.Context, ids []string) (int, error) {
	return t.items.delete(ids), nil
}

type eventMap map[string]Event // id -> event

func (m eventMap) get(id string) (Event, error) {
	event, ok := m[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (m eventMap) store(events []Event) {
	for _, event := range events {
		event.SeriesID = event.SeriesKey()
		m[event.ID] = event
	}
}

func (m eventMap) update(event Event) error {
	if _, ok := m[event.ID]; !ok {
		return ErrEventNotFound
	}
	event.SeriesID = event.SeriesKey()
	m[event.ID] = event
	return nil
}

func (m eventMap) delete(ids []string) int {
	deleted := 0
	for _, id := range ids {
		if _, ok := m[id]; ok {
			delete(m, id)
			deleted++
		}
	}
	return deleted
}

func (m eventMap) sorted() []Event {
	events := slices.Collect(maps.Values(m))
	slices.SortFunc(events, func(a, b Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return events
}
