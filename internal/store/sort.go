package store

import (
	"sort"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
)

func sortedCategories(t affinity.Table) []string {
	cats := make([]string, 0, len(t))
	for c := range t {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
