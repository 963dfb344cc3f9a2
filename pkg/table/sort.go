package table

import (
	"sort"

	"github.com/agentstation/alloymap/pkg/property"
)

func sortedColumns(cells map[string]property.Value) []string {
	keys := make([]string, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
