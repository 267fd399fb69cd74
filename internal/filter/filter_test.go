package filter

import (
	"testing"

	"github.com/Irehund/JobTrack/internal/model"
)

var (
	forney  = model.Coordinates{Lat: 32.7459, Lon: -96.4685}
	dallas  = model.Coordinates{Lat: 32.7767, Lon: -96.7970}
	seattle = model.Coordinates{Lat: 47.6062, Lon: -122.3321}
	ftWorth = model.Coordinates{Lat: 32.7555, Lon: -97.3308}
)

func boolPtr(b bool) *bool { return &b }

func coords(c model.Coordinates) *model.Coordinates { return &c }

func job(id string, opts ...func(*model.JobListing)) model.JobListing {
	j := model.JobListing{JobID: id, Title: "SOC Analyst", Company: "CISA", State: "TX"}
	for _, o := range opts {
		o(&j)
	}
	return j
}

func ids(jobs []model.JobListing) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.JobID
	}
	return out
}

func equalIDs(t *testing.T, got []model.JobListing, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestApply_ZeroFilterSetIsNeutral(t *testing.T) {
	in := []model.JobListing{
		job("a", func(j *model.JobListing) { j.Coordinates = coords(seattle) }),
		job("b", func(j *model.JobListing) { j.Remote = boolPtr(true) }),
		job("c", func(j *model.JobListing) { j.ExperienceLevel = "senior" }),
	}
	equalIDs(t, Apply(in, FilterSet{}), "a", "b", "c")
	equalIDs(t, Apply(in, FilterSet{WorkType: WorkTypeAny, Experience: ExperienceAny}), "a", "b", "c")
}

func TestApply_RadiusFilter(t *testing.T) {
	in := []model.JobListing{
		job("near", func(j *model.JobListing) { j.Coordinates = coords(dallas) }),
		job("far", func(j *model.JobListing) { j.Coordinates = coords(seattle) }),
		job("unknown"),
	}
	got := Apply(in, FilterSet{Home: coords(forney), RadiusMiles: 50})
	equalIDs(t, got, "near", "unknown")
}

func TestApply_RadiusWithoutHomeSkips(t *testing.T) {
	in := []model.JobListing{job("far", func(j *model.JobListing) { j.Coordinates = coords(seattle) })}
	equalIDs(t, Apply(in, FilterSet{RadiusMiles: 10}), "far")
}

func TestApply_WiderRadiusIncludesMore(t *testing.T) {
	in := []model.JobListing{job("fw", func(j *model.JobListing) { j.Coordinates = coords(ftWorth) })}
	equalIDs(t, Apply(in, FilterSet{Home: coords(forney), RadiusMiles: 25}))
	equalIDs(t, Apply(in, FilterSet{Home: coords(forney), RadiusMiles: 100}), "fw")
}

func TestApply_RadiusBoundaryIsInclusive(t *testing.T) {
	home := model.Coordinates{Lat: 0, Lon: 0}
	// One degree of latitude along a meridian.
	oneDegree := Haversine(home, model.Coordinates{Lat: 1, Lon: 0})
	if oneDegree < 69 || oneDegree > 69.2 {
		t.Fatalf("unexpected one-degree distance %f", oneDegree)
	}

	// Place a job exactly on the 25 mile circle.
	lat := 25 / oneDegree
	on := job("on", func(j *model.JobListing) { j.Coordinates = &model.Coordinates{Lat: lat, Lon: 0} })
	d := Haversine(home, *on.Coordinates)
	if d > 25 {
		// Floating point put it a hair outside; pull it in.
		on.Coordinates.Lat = lat * (1 - 1e-12)
	}
	equalIDs(t, Apply([]model.JobListing{on}, FilterSet{Home: &home, RadiusMiles: 25}), "on")
}

func TestApply_WorkTypeFilter(t *testing.T) {
	in := []model.JobListing{
		job("r", func(j *model.JobListing) { j.Remote, j.Hybrid = boolPtr(true), boolPtr(false) }),
		job("h", func(j *model.JobListing) { j.Remote, j.Hybrid = boolPtr(false), boolPtr(true) }),
		job("o", func(j *model.JobListing) { j.Remote, j.Hybrid = boolPtr(false), boolPtr(false) }),
		job("u"),
	}

	tests := []struct {
		want WorkType
		ids  []string
	}{
		{WorkTypeRemote, []string{"r", "u"}},
		{WorkTypeHybrid, []string{"h", "u"}},
		{WorkTypeOnsite, []string{"o", "u"}},
		{WorkTypeAny, []string{"r", "h", "o", "u"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			equalIDs(t, Apply(in, FilterSet{WorkType: tt.want}), tt.ids...)
		})
	}
}

func TestApply_ExperienceFilter(t *testing.T) {
	in := []model.JobListing{
		job("e", func(j *model.JobListing) { j.ExperienceLevel = "entry" }),
		job("m", func(j *model.JobListing) { j.ExperienceLevel = "mid" }),
		job("s", func(j *model.JobListing) { j.ExperienceLevel = "senior" }),
		job("u", func(j *model.JobListing) { j.Title = "Analyst" }),
	}
	equalIDs(t, Apply(in, FilterSet{Experience: ExperienceEntry}), "e", "u")
	equalIDs(t, Apply(in, FilterSet{Experience: ExperienceMid}), "m", "u")
	equalIDs(t, Apply(in, FilterSet{Experience: ExperienceSenior}), "s", "u")
}

func TestApply_KeywordsOR(t *testing.T) {
	in := []model.JobListing{
		job("title", func(j *model.JobListing) { j.Title = "Junior SOC Analyst II" }),
		job("desc", func(j *model.JobListing) {
			j.Title = "Security Specialist"
			j.Description = "Must have soc analyst experience"
		}),
		job("intel", func(j *model.JobListing) { j.Title = "Intelligence Analyst" }),
		job("miss", func(j *model.JobListing) { j.Title = "Software Engineer" }),
	}
	equalIDs(t, Apply(in, FilterSet{Keywords: []string{"SOC ANALYST"}}), "title", "desc")
	equalIDs(t, Apply(in, FilterSet{Keywords: []string{"soc analyst", "Intelligence"}}), "title", "desc", "intel")
	equalIDs(t, Apply(in, FilterSet{Keywords: []string{"  ", ""}}), "title", "desc", "intel", "miss")
}

func TestApply_CombinedPreservesOrder(t *testing.T) {
	in := []model.JobListing{
		job("1", func(j *model.JobListing) { j.Coordinates = coords(dallas); j.Remote = boolPtr(true) }),
		job("2", func(j *model.JobListing) { j.Coordinates = coords(seattle); j.Remote = boolPtr(true) }),
		job("3", func(j *model.JobListing) { j.Title = "Senior SOC Analyst" }),
		job("4", func(j *model.JobListing) { j.Title = "Payroll Clerk" }),
		job("5", func(j *model.JobListing) { j.Coordinates = coords(dallas) }),
	}
	got := Apply(in, FilterSet{
		Home:        coords(forney),
		RadiusMiles: 50,
		WorkType:    WorkTypeRemote,
		Experience:  ExperienceEntry,
		Keywords:    []string{"soc"},
	})
	// 2 is too far, 3 is senior, 4 misses the keyword.
	equalIDs(t, got, "1", "5")
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	in := []model.JobListing{job("a"), job("b", func(j *model.JobListing) { j.Title = "Welder" })}
	_ = Apply(in, FilterSet{Keywords: []string{"welder"}})
	equalIDs(t, in, "a", "b")
}

func TestSnapRadius(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0},
		{-5, 0},
		{1, 10},
		{10, 10},
		{11, 25},
		{40, 50},
		{75, 75},
		{100, 100},
		{500, 100},
	}
	for _, tt := range tests {
		if got := SnapRadius(tt.in); got != tt.want {
			t.Errorf("SnapRadius(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHaversine_KnownDistances(t *testing.T) {
	if d := Haversine(forney, dallas); d < 15 || d > 25 {
		t.Errorf("Forney to Dallas = %.1f mi, want about 19", d)
	}
	if d := Haversine(forney, seattle); d < 1600 || d > 1900 {
		t.Errorf("Forney to Seattle = %.1f mi, want about 1,700", d)
	}
	if d := Haversine(dallas, dallas); d != 0 {
		t.Errorf("same point distance = %f, want 0", d)
	}
}
