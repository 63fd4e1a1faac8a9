// Package memory implements the repositories in process memory. Records are
// lost on restart; it backs tests and local development without Postgres.
package memory

import (
	"slices"
	"sort"

	"github.com/shaan-hospital/apiserver/types"
)

// entry pairs a record with its insertion sequence, which orders listings
// when timestamps collide.
type entry[T any] struct {
	value T
	seq   int64
}

// newestFirst returns the values ordered by descending insertion sequence.
func newestFirst[T any](entries map[string]*entry[T], keep func(T) bool) []T {
	selected := make([]*entry[T], 0, len(entries))
	for _, e := range entries {
		if keep == nil || keep(e.value) {
			selected = append(selected, e)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].seq > selected[j].seq
	})
	out := make([]T, 0, len(selected))
	for _, e := range selected {
		out = append(out, e.value)
	}
	return out
}

func cloneImage(img *types.Image) *types.Image {
	if img == nil {
		return nil
	}
	c := *img
	return &c
}

func cloneStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return slices.Clone(items)
}
