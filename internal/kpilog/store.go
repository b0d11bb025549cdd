package kpilog

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultKey is the blob key the store is persisted under.
const DefaultKey = "chemkpi-data"

// Store is the append-only, most-recent-first KPI log, partitioned by
// department and KPI. Every mutation re-serializes the whole store through
// the Persister; persistence failures are logged and never undo the mutation.
type Store struct {
	mu         sync.RWMutex
	logs       Data
	persister  Persister
	key        string
	now        func() time.Time
	lastID     int64
	persistErr error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for entry dates and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates a store backed by p and hydrates it from the blob under key.
// A missing or unreadable blob yields an empty store.
func Open(p Persister, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	if p == nil {
		p = NewMemoryPersister()
	}
	s := &Store{
		logs:      make(Data),
		persister: p,
		key:       key,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	blob, err := s.persister.Read(s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Debug().Str("key", s.key).Msg("No persisted KPI data yet")
			return
		}
		log.Warn().Err(err).Str("key", s.key).Msg("Failed to read persisted KPI data, starting empty")
		return
	}
	if len(blob) == 0 {
		return
	}

	var data Data
	if err := json.Unmarshal(blob, &data); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Persisted KPI data is corrupt, starting empty")
		return
	}

	count := 0
	for dept, kpis := range data {
		if kpis == nil {
			continue
		}
		clean := make(map[string]Log, len(kpis))
		for kpi, entries := range kpis {
			clean[kpi] = entries
			count += len(entries)
			for _, e := range entries {
				if e.ID > s.lastID {
					s.lastID = e.ID
				}
			}
		}
		s.logs[dept] = clean
	}
	log.Info().Str("key", s.key).Int("departments", len(s.logs)).Int("entries", count).Msg("Loaded KPI data")
}

// Record builds an entry from measurement and prepends it to the KPI's log.
// measurement["value"] becomes Entry.Value (0 when absent or not numeric) and
// the whole measurement is kept as Entry.Data.
func (s *Store) Record(departmentID, kpiID string, measurement Payload, notes string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	data := normalize(measurement)
	value, _ := data.Float("value")

	entry := Entry{
		ID:    id,
		Value: value,
		Data:  data,
		Date:  now,
		Notes: notes,
	}

	kpis, ok := s.logs[departmentID]
	if !ok {
		kpis = make(map[string]Log)
		s.logs[departmentID] = kpis
	}
	current := kpis[kpiID]
	next := make(Log, 0, len(current)+1)
	next = append(next, entry)
	next = append(next, current...)
	kpis[kpiID] = next

	log.Debug().Str("department", departmentID).Str("kpi", kpiID).Int64("id", id).Float64("value", value).Msg("Recorded KPI entry")

	s.persistLocked()
	return entry
}

// Latest returns the most recent entry for the KPI.
func (s *Store) Latest(departmentID, kpiID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[departmentID][kpiID]
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0].clone(), true
}

// History returns a copy of the KPI's log, most recent first.
func (s *Store) History(departmentID, kpiID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[departmentID][kpiID]
	if len(entries) == 0 {
		return []Entry{}
	}
	return entries.clone()
}

// Count returns the number of entries recorded for the KPI.
func (s *Store) Count(departmentID, kpiID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[departmentID][kpiID])
}

// Trend returns up to limit of the most recent entries in chronological
// order. A non-positive limit returns the whole history.
func (s *Store) Trend(departmentID, kpiID string, limit int) []TrendPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[departmentID][kpiID]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	points := make([]TrendPoint, limit)
	for i := 0; i < limit; i++ {
		e := entries[limit-1-i]
		points[i] = TrendPoint{Date: e.Date, Value: e.Value, Notes: e.Notes}
	}
	return points
}

// Delete removes the entry with the given id. It reports whether an entry was removed.
func (s *Store) Delete(departmentID, kpiID string, entryID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.logs[departmentID][kpiID]
	idx := -1
	for i, e := range entries {
		if e.ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	next := make(Log, 0, len(entries)-1)
	next = append(next, entries[:idx]...)
	next = append(next, entries[idx+1:]...)
	s.logs[departmentID][kpiID] = next

	log.Debug().Str("department", departmentID).Str("kpi", kpiID).Int64("id", entryID).Msg("Deleted KPI entry")

	s.persistLocked()
	return true
}

// Departments returns the department ids that have a log, sorted.
func (s *Store) Departments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.logs))
	for d := range s.logs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// KPIs returns the KPI ids logged for a department, sorted.
func (s *Store) KPIs(departmentID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kpis := s.logs[departmentID]
	out := make([]string, 0, len(kpis))
	for k := range kpis {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the whole store.
func (s *Store) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Data {
	out := make(Data, len(s.logs))
	for dept, kpis := range s.logs {
		inner := make(map[string]Log, len(kpis))
		for kpi, entries := range kpis {
			inner[kpi] = entries.clone()
		}
		out[dept] = inner
	}
	return out
}

// MarshalJSON encodes the store in its persisted blob format.
func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.logs)
}

// LastPersistError returns the error of the most recent persist attempt, or nil.
func (s *Store) LastPersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// Flush re-serializes the store to the persister.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
	return s.persistErr
}

// Close releases the persister.
func (s *Store) Close() error {
	return s.persister.Close()
}

func (s *Store) persistLocked() {
	blob, err := json.Marshal(s.logs)
	if err == nil {
		err = s.persister.Write(s.key, blob)
	}
	s.persistErr = err
	if err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("Failed to persist KPI data, continuing with in-memory state")
	}
}
