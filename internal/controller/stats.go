package controller

import (
	"sort"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// BuildItemStats summarizes a crate's items for the listing view, ordered by
// declaration.
func BuildItemStats(crate *m.Crate) []ItemStat {
	stats := make([]ItemStat, 0, len(crate.Items))

	for _, item := range crate.Items {
		stat := ItemStat{
			Item:         item.Path,
			Kind:         item.Kind,
			Unsafe:       item.Unsafe,
			Requirements: len(item.Requires.Reqs),
		}

		for _, op := range item.Body {
			switch {
			case op.Kind.Primitive():
				stat.UnsafeOps++
			case op.Kind == m.OpCall:
				stat.Calls++
			}
		}

		stats = append(stats, stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Item < stats[j].Item
	})

	return stats
}
