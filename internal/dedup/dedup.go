// Package dedup collapses listings that describe the same posting across
// providers into one representative each.
package dedup

import (
	"slices"
	"strings"

	"github.com/Irehund/JobTrack/internal/model"
)

// Key identifies a posting independent of the provider that returned it.
type Key struct {
	Title   string
	Company string
	State   string
}

// String joins the fields into a stable identifier for persistence.
func (k Key) String() string {
	return k.Title + "|" + k.Company + "|" + k.State
}

// KeyOf builds the dedup key for a listing. Fields are lowercased and runs of
// whitespace collapse to a single space. Punctuation is kept, so "C++" and
// "C#" stay distinct. Missing fields normalize to "".
func KeyOf(j model.JobListing) Key {
	return Key{
		Title:   normalize(j.Title),
		Company: normalize(j.Company),
		State:   normalize(j.State),
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Merge flattens the lists in the order given, keeps one representative per
// key and returns them newest first. The input slices are not modified.
func Merge(lists ...[]model.JobListing) []model.JobListing {
	index := make(map[Key]int)
	var out []model.JobListing

	for _, list := range lists {
		for _, j := range list {
			k := KeyOf(j)
			i, seen := index[k]
			if !seen {
				index[k] = len(out)
				out = append(out, j)
				continue
			}
			if better(j, out[i]) {
				out[i] = j
			}
		}
	}

	slices.SortStableFunc(out, func(a, b model.JobListing) int {
		return b.PostedAt.Compare(a.PostedAt)
	})
	return out
}

// better reports whether candidate should replace the current representative.
// Equal score and equal PostedAt keeps the first encountered.
func better(candidate, current model.JobListing) bool {
	cs, ks := candidate.CompletenessScore(), current.CompletenessScore()
	if cs != ks {
		return cs > ks
	}
	return candidate.PostedAt.After(current.PostedAt)
}
