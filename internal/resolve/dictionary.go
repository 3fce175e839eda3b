package resolve

import "sort"

// Dictionary maps free-text spellings to a canonical value, e.g.
// "cambridge assessment" -> "Cambridge International (CIE)".
type Dictionary map[string]string

// Mapping is the outcome of a dictionary lookup.
type Mapping struct {
	Input  string  `json:"input"`
	Value  string  `json:"value"`
	Key    string  `json:"key,omitempty"`
	Score  float64 `json:"score"`
	Mapped bool    `json:"mapped"`
}

// Lookup scores input against every key and keeps the best. The canonical
// value is used only when the best score exceeds threshold; otherwise the
// input passes through unchanged. Ties go to the lexically first key.
func (d Dictionary) Lookup(input string, threshold float64) Mapping {
	res := Mapping{Input: input, Value: input}
	if len(d) == 0 || Normalize(input) == "" {
		return res
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestKey := 0.0, ""
	for _, k := range keys {
		if Normalize(k) == "" {
			continue
		}
		if s := Similarity(input, k); s > best {
			best, bestKey = s, k
		}
	}
	res.Key, res.Score = bestKey, best
	if best > threshold {
		res.Value = d[bestKey]
		res.Mapped = true
	}
	return res
}
