package catalog

import (
	"sort"
	"strings"
)

// Row is one data row keyed by its header cell.
type Row map[string]string

// PickField returns the trimmed value of the first candidate header that
// is present and non-blank. Headers match case-insensitively after
// trimming. It returns "" when nothing matches.
func PickField(row Row, candidates ...string) string {
	return PickFieldOr(row, "", candidates...)
}

// PickFieldOr is PickField with a caller-supplied default.
func PickFieldOr(row Row, def string, candidates ...string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, want := range candidates {
		want = strings.TrimSpace(want)
		for _, k := range keys {
			if !strings.EqualFold(strings.TrimSpace(k), want) {
				continue
			}
			if v := strings.TrimSpace(row[k]); v != "" {
				return v
			}
		}
	}
	return def
}
