package kpilog

import "time"

// Entry is one timestamped measurement recorded against a KPI.
// Entries are never mutated once recorded; corrections are new entries.
type Entry struct {
	// ID is the creation time in Unix milliseconds, unique within a store.
	ID int64 `json:"id"`
	// Value is the primary measurement used in all arithmetic.
	Value float64 `json:"value"`
	// Data carries the detail behind Value (employees, receptions, batches...).
	// A nil Data means the entry was recorded without a payload.
	Data Payload `json:"data"`
	// Date is the recording time (UTC, millisecond precision).
	Date time.Time `json:"date"`
	// Notes is a free-text annotation.
	Notes string `json:"notes"`
}

// TrendPoint is the chart projection of an Entry.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Notes string    `json:"notes"`
}

// Log is the most-recent-first sequence of entries for one KPI.
type Log []Entry

// Data is the full persisted shape: department -> KPI -> entries.
type Data map[string]map[string]Log

func (l Log) clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	for i, e := range l {
		out[i] = e.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	e.Data = e.Data.clone()
	return e
}
