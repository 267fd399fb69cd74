// Package filter narrows an aggregated listing set in memory. Filters run in
// a fixed order (radius, work type, experience, keywords) and each one is
// skipped entirely when set to its neutral value.
package filter

import (
	"strings"

	"github.com/Irehund/JobTrack/internal/model"
)

// FilterSet holds the user's active filter choices. The zero value filters
// nothing.
type FilterSet struct {
	Home        *model.Coordinates
	RadiusMiles int
	WorkType    WorkType
	Experience  Experience
	Keywords    []string
}

// Apply returns the listings that pass every active filter, preserving input
// order. The input slice is never modified.
func Apply(listings []model.JobListing, fs FilterSet) []model.JobListing {
	out := make([]model.JobListing, 0, len(listings))

	radius := SnapRadius(fs.RadiusMiles)
	useRadius := fs.Home != nil && radius > 0
	useWorkType := fs.WorkType != WorkTypeAny && fs.WorkType != WorkTypeUnknown
	useExperience := fs.Experience != ExperienceAny && fs.Experience != ExperienceUnknown
	keywords := lowerKeywords(fs.Keywords)

	for _, j := range listings {
		if useRadius && !withinRadius(j, *fs.Home, float64(radius)) {
			continue
		}
		if useWorkType && !matchWorkType(j, fs.WorkType) {
			continue
		}
		if useExperience && !matchExperience(j, fs.Experience) {
			continue
		}
		if len(keywords) > 0 && !matchAny(j.Title+" "+j.Description, keywords) {
			continue
		}
		out = append(out, j)
	}
	return out
}

// withinRadius keeps listings without coordinates unconditionally.
func withinRadius(j model.JobListing, home model.Coordinates, radius float64) bool {
	if j.Coordinates == nil {
		return true
	}
	return Haversine(home, *j.Coordinates) <= radius
}

func matchWorkType(j model.JobListing, want WorkType) bool {
	got := ClassifyWorkType(j)
	return got == WorkTypeUnknown || got == want
}

func matchExperience(j model.JobListing, want Experience) bool {
	got := ClassifyExperience(j)
	return got == ExperienceUnknown || got == want
}

func lowerKeywords(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// matchAny reports whether text contains any of the lowercase keywords.
func matchAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
