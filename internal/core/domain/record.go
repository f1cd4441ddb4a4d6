package domain

import (
	"sort"
	"strings"
	"time"
)

// Separators for the two render modes of the master sheet.
const (
	SeparatorInline    = ", "
	SeparatorFormatted = "\n"
)

// RecordBuilder accumulates one message's matched cell values across all of
// its attachments and sheets. It lives only for the duration of one
// message's processing and is discarded after Finalize.
type RecordBuilder struct {
	subject string
	date    string
	order   []Category
	raw     map[Category][]string
	hasData bool
}

func NewRecordBuilder(subject string, received time.Time, catalog *Catalog) *RecordBuilder {
	return &RecordBuilder{
		subject: subject,
		date:    received.Format("2006-01-02"),
		order:   catalog.Categories(),
		raw:     make(map[Category][]string),
	}
}

// Collect appends the cell values under every classified column of one table
// into the per-category accumulators. Empty cells are dropped; duplicates
// are kept until Finalize. Accumulation is additive across tables: the same
// value seen in two attachments of one message contributes twice here.
func (b *RecordBuilder) Collect(t Table, classified map[Category]int) {
	for cat, col := range classified {
		for _, row := range t.Rows {
			if col >= len(row) {
				continue
			}
			v := row[col]
			if v == "" {
				continue
			}
			b.raw[cat] = append(b.raw[cat], v)
			b.hasData = true
		}
	}
}

// HasData reports whether at least one value was collected from at least
// one table.
func (b *RecordBuilder) HasData() bool {
	return b.hasData
}

// Finalize produces the message's immutable record: per category the
// distinct collected values (exact string equality, no case folding),
// lexicographically sorted and joined with sep. A message that collected
// nothing produces no record.
func (b *RecordBuilder) Finalize(sep string) (MessageRecord, bool) {
	if !b.hasData {
		return MessageRecord{}, false
	}

	rec := MessageRecord{
		Subject:  b.subject,
		Date:     b.date,
		Fields:   make(map[Category]string, len(b.order)),
		Distinct: make(map[Category][]string, len(b.order)),
	}
	for _, cat := range b.order {
		vals := distinctSorted(b.raw[cat])
		rec.Distinct[cat] = vals
		rec.Fields[cat] = strings.Join(vals, sep)
	}
	return rec, true
}

func distinctSorted(vals []string) []string {
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MessageRecord is one message's finalized output row.
type MessageRecord struct {
	Subject  string
	Date     string
	Fields   map[Category]string   // joined blob per category
	Distinct map[Category][]string // deduplicated, sorted raw values
}

// Row renders the record against the dataset column order:
// Subject, Date, then one blob per category.
func (r MessageRecord) Row(categories []Category) []string {
	row := make([]string, 0, 2+len(categories))
	row = append(row, r.Subject, r.Date)
	for _, cat := range categories {
		row = append(row, r.Fields[cat])
	}
	return row
}
