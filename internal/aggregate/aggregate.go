// Package aggregate groups journal entries into per-category text pools.
package aggregate

import (
	"github.com/ryosukesatoh/journalbot/internal/category"
	"github.com/ryosukesatoh/journalbot/internal/store"
)

// Pools maps every vocabulary category to the ordered texts contributing to
// it. Every category is always present, even when empty.
type Pools map[category.Category][]string

// Group builds the category pools for a batch of entries. An entry listing
// several categories contributes its full text to each of them; tokens
// outside the vocabulary are dropped silently; entries with no recognized
// token contribute to no pool. Input order is preserved within each pool.
func Group(entries []store.Entry) Pools {
	pools := make(Pools, len(category.All))
	for _, c := range category.All {
		pools[c] = []string{}
	}

	for _, e := range entries {
		for _, token := range category.ParseList(e.Categories) {
			c, ok := category.Lookup(token)
			if !ok {
				continue
			}
			pools[c] = append(pools[c], e.Text)
		}
	}

	return pools
}
