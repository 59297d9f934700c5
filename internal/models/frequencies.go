// internal/models/frequencies.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// TermCount is one row of a frequency table
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Frequencies is an ordered term -> count table. It serializes as a JSON
// object whose key order is the slice order.
type Frequencies []TermCount

// CountTerms tallies terms keeping first-seen order
func CountTerms(terms []string) Frequencies {
	index := make(map[string]int, len(terms))
	out := make(Frequencies, 0, len(terms))
	for _, t := range terms {
		if i, ok := index[t]; ok {
			out[i].Count++
			continue
		}
		index[t] = len(out)
		out = append(out, TermCount{Term: t, Count: 1})
	}
	return out
}

// Top returns the n most frequent terms. Ties keep their original order.
func (f Frequencies) Top(n int) Frequencies {
	sorted := make(Frequencies, len(f))
	copy(sorted, f)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Get returns the count of term, or 0
func (f Frequencies) Get(term string) int {
	for _, tc := range f {
		if tc.Term == term {
			return tc.Count
		}
	}
	return 0
}

func (f Frequencies) Terms() []string {
	out := make([]string, len(f))
	for i, tc := range f {
		out[i] = tc.Term
	}
	return out
}

func (f Frequencies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Term)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Frequencies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("frequencies: expected object, got %v", tok)
	}

	out := make(Frequencies, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("frequencies: expected string key, got %v", keyTok)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("frequencies: count for %q: %w", key, err)
		}
		count, err := n.Int64()
		if err != nil {
			return fmt.Errorf("frequencies: count for %q: %w", key, err)
		}
		out = append(out, TermCount{Term: key, Count: int(count)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
