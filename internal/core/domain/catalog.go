package domain

import "strings"

// CatalogEntry binds one IOC category to its ordered header keywords.
// Keyword order matters: the first keyword that matches any header wins.
type CatalogEntry struct {
	Category Category
	Keywords []string
}

// Catalog is the keyword configuration used to recognize header rows and
// classify columns. It is built once at startup and never mutated; every
// consumer receives it explicitly so tests can substitute arbitrary catalogs.
type Catalog struct {
	entries []CatalogEntry
	flat    []string
}

// NewCatalog normalizes every keyword (lowercase, trimmed) and keeps the
// declared category order.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{}
	for _, e := range entries {
		kws := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = NormalizeName(kw)
			if kw == "" {
				continue
			}
			kws = append(kws, kw)
		}
		if len(kws) == 0 {
			continue
		}
		c.entries = append(c.entries, CatalogEntry{Category: e.Category, Keywords: kws})
		c.flat = append(c.flat, kws...)
	}
	return c
}

// DefaultCatalog covers the hash, IP and domain headers seen in the wild.
func DefaultCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{Category: MD5, Keywords: []string{"md-5", "md5"}},
		{Category: SHA1, Keywords: []string{"sha-1", "sha1"}},
		{Category: SHA256, Keywords: []string{"sha-256", "sha256"}},
		{Category: IPAddress, Keywords: []string{"ip address", "ip_address", "ip's", "ips", "ip"}},
		{Category: Domain, Keywords: []string{"domain", "domains", "url", "host"}},
	})
}

func (c *Catalog) Entries() []CatalogEntry {
	return c.entries
}

// Categories returns the categories in declared order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Category
	}
	return out
}

// MatchesAny reports whether the normalized name contains any catalog
// keyword, regardless of category. Used for header-row detection.
func (c *Catalog) MatchesAny(name string) bool {
	name = NormalizeName(name)
	if name == "" {
		return false
	}
	for _, kw := range c.flat {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// NormalizeName is the single normalization applied to header names and
// keywords: lowercase and trim. Cell values under matched columns are never
// normalized.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
