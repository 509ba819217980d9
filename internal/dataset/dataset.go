// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dataset holds the immutable in-memory snapshot of the congestion
// dataset served by the API.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/metrocrowd/internal/congestion"
	xglog "github.com/ManuGH/metrocrowd/internal/log"
)

// ErrUnknownTimeSlot is returned when a time-slot label is not in the dataset.
var ErrUnknownTimeSlot = errors.New("unknown time slot")

// Source reads persisted records.
type Source interface {
	Records(ctx context.Context, f congestion.Filter) ([]congestion.Record, error)
}

// Revisioner is implemented by sources that can name the stored data with
// an identifier that survives restarts.
type Revisioner interface {
	DataRevision(ctx context.Context) (string, error)
}

// Options lists the distinct filter values of a snapshot.
type Options struct {
	Weekdays   []string `json:"weekdays"`
	Lines      []string `json:"lines"`
	Stations   []string `json:"stations"`
	Directions []string `json:"directions"`
	TimeSlots  []string `json:"time_slots"`
}

// Snapshot is an immutable view of the dataset. Callers must not modify
// slices returned by its methods unless documented as copies.
type Snapshot struct {
	records    []congestion.Record
	orders     map[string]int
	options    Options
	loadedAt   time.Time
	generation uint64
	revision   string
}

// NewSnapshot indexes records. The slice is owned by the snapshot afterwards.
func NewSnapshot(records []congestion.Record, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		records:  records,
		orders:   make(map[string]int),
		loadedAt: loadedAt,
	}

	weekdays := map[string]struct{}{}
	lines := map[string]struct{}{}
	stations := map[string]struct{}{}
	directions := map[string]struct{}{}
	for _, r := range records {
		weekdays[r.Weekday] = struct{}{}
		lines[r.Line] = struct{}{}
		stations[r.StationName] = struct{}{}
		directions[r.Direction] = struct{}{}
		if _, ok := s.orders[r.TimeSlot]; !ok {
			s.orders[r.TimeSlot] = r.TimeOrder
		}
	}

	slots := make([]string, 0, len(s.orders))
	for slot := range s.orders {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		return s.orders[slots[i]] < s.orders[slots[j]]
	})

	s.options = Options{
		Weekdays:   sortedKeys(weekdays),
		Lines:      sortedKeys(lines),
		Stations:   sortedKeys(stations),
		Directions: sortedKeys(directions),
		TimeSlots:  slots,
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Generation increases with every swap; zero means never loaded.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Revision names the data behind the snapshot for keys that outlive the
// process, such as persistent response caches. Snapshots loaded from a
// Revisioner use the stored revision; others fall back to the generation.
func (s *Snapshot) Revision() string {
	if s.revision != "" {
		return s.revision
	}
	return "gen-" + strconv.FormatUint(s.generation, 10)
}

// Options returns the filter options.
func (s *Snapshot) Options() Options { return s.options }

// TimeOrders returns a copy of the time slot → time order mapping.
func (s *Snapshot) TimeOrders() map[string]int {
	out := make(map[string]int, len(s.orders))
	for k, v := range s.orders {
		out[k] = v
	}
	return out
}

// ResolveTimeRange maps slot labels to an inclusive order range. Empty
// bounds default to the first and last slot; both empty means no range.
// Reversed bounds are swapped.
func (s *Snapshot) ResolveTimeRange(from, to string) (*congestion.TimeRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	slots := s.options.TimeSlots
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrUnknownTimeSlot)
	}
	if from == "" {
		from = slots[0]
	}
	if to == "" {
		to = slots[len(slots)-1]
	}

	start, ok := s.orders[congestion.NormalizeTimeSlot(from)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeSlot, from)
	}
	end, ok := s.orders[congestion.NormalizeTimeSlot(to)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeSlot, to)
	}
	if start > end {
		start, end = end, start
	}
	return &congestion.TimeRange{Start: start, End: end}, nil
}

// Query returns a new slice with the records matching f.
func (s *Snapshot) Query(f congestion.Filter) []congestion.Record {
	return f.Apply(s.records)
}

// Dataset publishes snapshots to concurrent readers.
type Dataset struct {
	src     Source
	current atomic.Pointer[Snapshot]

	mu  sync.Mutex // serializes swaps so generations only grow
	gen uint64
}

// New returns a dataset with an empty snapshot.
func New(src Source) *Dataset {
	d := &Dataset{src: src}
	d.current.Store(NewSnapshot(nil, time.Time{}))
	return d
}

// Load reads every record from the source and swaps in a new snapshot.
// On error the current snapshot stays in place.
func (d *Dataset) Load(ctx context.Context) (*Snapshot, error) {
	if d.src == nil {
		return nil, errors.New("dataset: no source configured")
	}
	start := time.Now()
	// The revision is read first: a concurrent replace then yields newer
	// records under an older revision, never the reverse.
	var revision string
	if rv, ok := d.src.(Revisioner); ok {
		var err error
		if revision, err = rv.DataRevision(ctx); err != nil {
			return nil, fmt.Errorf("load revision: %w", err)
		}
	}
	records, err := d.src.Records(ctx, congestion.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	snap := d.swap(records, revision)

	logger := xglog.WithComponentFromContext(ctx, "dataset")
	logger.Info().
		Str(xglog.FieldEvent, "dataset.loaded").
		Int(xglog.FieldRecords, snap.Len()).
		Int("time_slots", len(snap.options.TimeSlots)).
		Uint64("generation", snap.generation).
		Str("revision", snap.Revision()).
		Dur("duration", time.Since(start)).
		Msg("dataset snapshot loaded")
	return snap, nil
}

// Swap publishes a snapshot built from records.
func (d *Dataset) Swap(records []congestion.Record) *Snapshot {
	return d.swap(records, "")
}

func (d *Dataset) swap(records []congestion.Record, revision string) *Snapshot {
	snap := NewSnapshot(records, time.Now())
	snap.revision = revision

	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	snap.generation = d.gen
	d.current.Store(snap)
	return snap
}

// Snapshot returns the current snapshot. It is never nil.
func (d *Dataset) Snapshot() *Snapshot {
	return d.current.Load()
}
