package domain

// Table is one decoded sheet: the decoder's declared column names (usually
// the first physical row) plus the remaining rows as text cells. Rows may be
// ragged; consumers guard column indexes against short rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// headerScanLimit bounds how deep LocateHeader looks for a buried header
// row. A sheet whose header is not in the first 10 data rows is treated as
// having none.
const headerScanLimit = 10

// LocateHeader finds the true header row of a table.
//
// If any declared column name already contains a catalog keyword, the table
// is returned unchanged. Otherwise the first keyword-bearing row within the
// scan window becomes the header: its normalized cells are the new column
// names and the rows strictly after it are the new data rows. The input
// table is never mutated.
//
// The second return value is false when no header could be located; such
// tables are skipped for extraction.
func LocateHeader(t Table, catalog *Catalog) (Table, bool) {
	for _, name := range t.Columns {
		if catalog.MatchesAny(name) {
			return t, true
		}
	}

	limit := headerScanLimit
	if len(t.Rows) < limit {
		limit = len(t.Rows)
	}
	for i := 0; i < limit; i++ {
		row := t.Rows[i]
		for _, cell := range row {
			if catalog.MatchesAny(cell) {
				cols := make([]string, len(row))
				for j, c := range row {
					cols[j] = NormalizeName(c)
				}
				return Table{Columns: cols, Rows: t.Rows[i+1:]}, true
			}
		}
	}

	return Table{}, false
}
