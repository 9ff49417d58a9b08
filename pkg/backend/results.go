package backend

import "sort"

// SortResults orders results by name, version and architecture. Ties keep
// their relative order.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if c := results[i].ID.Compare(results[j].ID); c != 0 {
			return c < 0
		}
		return results[i].Info < results[j].Info
	})
}

// Dedupe removes adjacent results with the same id and info. The input must
// already be sorted.
func Dedupe(results []Result) []Result {
	if len(results) < 2 {
		return results
	}
	out := results[:1]
	for _, r := range results[1:] {
		last := out[len(out)-1]
		if r.ID == last.ID && r.Info == last.Info {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Normalize sorts and de-duplicates results. The whole candidate set must be
// accumulated before calling it.
func Normalize(results []Result) []Result {
	SortResults(results)
	return Dedupe(results)
}
