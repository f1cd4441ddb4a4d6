package domain

import "strings"

// ClassifyColumns maps each catalog category to at most one column index.
//
// Categories are evaluated independently in catalog order. Within a
// category, keywords are tried in their declared order and the first header
// (left to right) containing the keyword as a substring wins; the keyword
// loop stops at the first keyword that yields any match. A category with no
// matching header is simply absent from the result.
//
// No exclusivity is enforced across categories: a single header may satisfy
// several categories' keyword lists and will be classified under each.
func ClassifyColumns(columns []string, catalog *Catalog) map[Category]int {
	out := make(map[Category]int)
	for _, entry := range catalog.Entries() {
		for _, kw := range entry.Keywords {
			idx := -1
			for i, name := range columns {
				if strings.Contains(NormalizeName(name), kw) {
					idx = i
					break
				}
			}
			if idx >= 0 {
				out[entry.Category] = idx
				break
			}
		}
	}
	return out
}
