package baseline

import (
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/result"
)

// bucket holds the baseline entries sharing one match key.
type bucket struct {
	entries []Entry
	used    []bool
	left    int
}

func (b *bucket) take(i int) {
	b.used[i] = true
	b.left--
}

type index map[string]map[graph.Kind]map[uint64]*bucket

func matchKey(text string, cat result.Category) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(text)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(string(cat))
	return d.Sum64()
}

func newIndex(b *Baseline) index {
	idx := make(index)
	if b == nil {
		return idx
	}
	for file, entries := range b.Files {
		byKind := make(map[graph.Kind]map[uint64]*bucket)
		idx[file] = byKind
		for _, e := range entries {
			e.SymbolIDs = sortedIDs(e.SymbolIDs)
			byKey := byKind[e.Kind]
			if byKey == nil {
				byKey = make(map[uint64]*bucket)
				byKind[e.Kind] = byKey
			}
			k := matchKey(e.Text, e.Category)
			bk := byKey[k]
			if bk == nil {
				bk = &bucket{}
				byKey[k] = bk
			}
			bk.entries = append(bk.entries, e)
			bk.used = append(bk.used, false)
			bk.left++
		}
	}
	return idx
}

func (idx index) lookup(file string, kind graph.Kind, key uint64) *bucket {
	return idx[file][kind][key]
}

// Filter returns the findings not covered by b, in location order. Within a
// match key, findings whose symbol ids equal a baseline entry's are matched
// first; the rest consume the remaining entries by count, and whatever
// exceeds the baseline count is new.
func Filter(b *Baseline, findings []result.Finding, lines LineReader, root string) []result.Finding {
	sorted := append([]result.Finding(nil), findings...)
	result.Sort(sorted)

	type candidate struct {
		finding result.Finding
		bucket  *bucket
		ids     []string
	}

	idx := newIndex(b)
	cands := make([]candidate, len(sorted))
	matched := make([]bool, len(sorted))

	for i, f := range sorted {
		key := matchKey(lineText(lines, f.Location), f.Category)
		cands[i] = candidate{
			finding: f,
			bucket:  idx.lookup(relPath(root, f.Location.Path), f.Kind, key),
			ids:     sortedIDs(f.SymbolIDs),
		}
	}

	for i, c := range cands {
		if c.bucket == nil || len(c.ids) == 0 {
			continue
		}
		for j, e := range c.bucket.entries {
			if !c.bucket.used[j] && slices.Equal(e.SymbolIDs, c.ids) {
				c.bucket.take(j)
				matched[i] = true
				break
			}
		}
	}

	var out []result.Finding
	for i, c := range cands {
		if matched[i] {
			continue
		}
		if c.bucket != nil && c.bucket.left > 0 {
			for j := range c.bucket.entries {
				if !c.bucket.used[j] {
					c.bucket.take(j)
					break
				}
			}
			continue
		}
		out = append(out, c.finding)
	}
	return out
}
