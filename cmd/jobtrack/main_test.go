package main

import (
	"testing"

	"github.com/Irehund/JobTrack/internal/config"
	"github.com/Irehund/JobTrack/internal/filter"
)

func testConfig() *config.Config {
	lat, lon := 32.78, -96.80
	return &config.Config{
		Home: config.HomeConfig{Lat: &lat, Lon: &lon},
		Search: config.SearchConfig{
			Keywords:   []string{"analyst"},
			Location:   "Dallas, TX",
			MaxResults: 100,
		},
		Filters: config.FilterConfig{
			WorkType:    filter.WorkTypeAny,
			Experience:  filter.ExperienceAny,
			RadiusMiles: 0,
		},
	}
}

func TestSearchFlags_DefaultsFromConfig(t *testing.T) {
	q, fs := searchFlags{radius: -1}.apply(testConfig())

	if q.Location != "Dallas, TX" || len(q.Keywords) != 1 || q.Keywords[0] != "analyst" {
		t.Errorf("query = %+v", q)
	}
	if fs.WorkType != filter.WorkTypeAny || fs.RadiusMiles != 0 || fs.Home == nil {
		t.Errorf("filters = %+v", fs)
	}
}

func TestSearchFlags_Override(t *testing.T) {
	f := searchFlags{
		query:      []string{"soc", "security"},
		location:   "Austin, TX",
		workType:   "Remote",
		experience: "senior",
		radius:     30,
		keywords:   []string{"splunk"},
	}
	q, fs := f.apply(testConfig())

	if q.Location != "Austin, TX" || len(q.Keywords) != 2 {
		t.Errorf("query = %+v", q)
	}
	if q.RadiusMiles != 50 {
		t.Errorf("query radius = %d, want snapped 50", q.RadiusMiles)
	}
	if fs.WorkType != filter.WorkTypeRemote || fs.Experience != filter.ExperienceSenior {
		t.Errorf("filters = %+v", fs)
	}
	if fs.RadiusMiles != 30 || len(fs.Keywords) != 1 {
		t.Errorf("filters = %+v", fs)
	}
}

func TestRateKey(t *testing.T) {
	for name, want := range map[string]string{
		"indeed":    "rapidapi",
		"linkedin":  "rapidapi",
		"glassdoor": "rapidapi",
		"usajobs":   "usajobs",
		"adzuna":    "adzuna",
	} {
		if got := rateKey(name); got != want {
			t.Errorf("rateKey(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCompareCommute(t *testing.T) {
	ten, forty := 10, 40
	m := map[string]*int{"a": &ten, "b": &forty, "c": nil}

	if compareCommute(m, "a", "b") >= 0 {
		t.Error("shorter commute should sort first")
	}
	if compareCommute(m, "c", "a") <= 0 {
		t.Error("unknown commute should sort after known")
	}
	if compareCommute(m, "c", "missing") != 0 {
		t.Error("two unknown commutes should compare equal")
	}
}
