package domain

// Dataset is the master sheet's content: a header row and the accumulated
// record rows across all runs. Persisted rows are opaque here; nothing is
// validated or deduplicated against history.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// DatasetColumns is the schema written for a freshly created master sheet.
func DatasetColumns(catalog *Catalog) []string {
	cols := []string{"Subject", "Date"}
	for _, cat := range catalog.Categories() {
		cols = append(cols, string(cat))
	}
	return cols
}

// MergeDataset combines newly produced records with the previously
// persisted dataset.
//
// With no existing dataset the result is exactly the new records in
// processing order. With an existing dataset its rows are kept verbatim and
// in order, the new rows appended after them. When the persisted header
// predates a later-added category the rows are still concatenated blindly;
// no column reconciliation is attempted.
//
// Re-running over an overlapping date window re-appends already-seen
// messages as new rows. Known gap, not a feature.
func MergeDataset(existing *Dataset, records []MessageRecord, catalog *Catalog) *Dataset {
	out := &Dataset{Columns: DatasetColumns(catalog)}
	if existing != nil {
		if len(existing.Columns) > 0 {
			out.Columns = existing.Columns
		}
		out.Rows = append(out.Rows, existing.Rows...)
	}
	cats := catalog.Categories()
	for _, rec := range records {
		out.Rows = append(out.Rows, rec.Row(cats))
	}
	return out
}
