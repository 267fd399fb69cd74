package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Irehund/JobTrack/internal/model"
)

const (
	usajobsBaseURL     = "https://data.usajobs.gov/api/search"
	usajobsMaxPageSize = 500
	biweeklyPeriods    = 26
)

type usajobsResponse struct {
	SearchResult struct {
		SearchResultCount int           `json:"SearchResultCount"`
		SearchResultItems []usajobsItem `json:"SearchResultItems"`
	} `json:"SearchResult"`
}

type usajobsItem struct {
	MatchedObjectID         string             `json:"MatchedObjectId"`
	MatchedObjectDescriptor *usajobsDescriptor `json:"MatchedObjectDescriptor"`
}

type usajobsDescriptor struct {
	PositionID            string                `json:"PositionID"`
	PositionTitle         string                `json:"PositionTitle"`
	OrganizationName      string                `json:"OrganizationName"`
	DepartmentName        string                `json:"DepartmentName"`
	PositionLocation      []usajobsLocation     `json:"PositionLocation"`
	PositionURI           string                `json:"PositionURI"`
	PublicationStartDate  string                `json:"PublicationStartDate"`
	ApplicationCloseDate  string                `json:"ApplicationCloseDate"`
	PositionRemuneration  []usajobsRemuneration `json:"PositionRemuneration"`
	PositionSchedule      []usajobsCodeName     `json:"PositionSchedule"`
	TeleworkSchedule      []usajobsCodeName     `json:"TeleworkSchedule"`
	JobGrade              []usajobsCodeName     `json:"JobGrade"`
	UserArea              struct {
		Details struct {
			JobSummary string `json:"JobSummary"`
			LowGrade   string `json:"LowGrade"`
		} `json:"Details"`
	} `json:"UserArea"`
}

type usajobsLocation struct {
	CityName               string `json:"CityName"`
	CountrySubDivisionCode string `json:"CountrySubDivisionCode"`
	CountryCode            string `json:"CountryCode"`
	Latitude               any    `json:"Latitude"`
	Longitude              any    `json:"Longitude"`
}

type usajobsRemuneration struct {
	MinimumRange     string `json:"MinimumRange"`
	MaximumRange     string `json:"MaximumRange"`
	RateIntervalCode string `json:"RateIntervalCode"`
}

type usajobsCodeName struct {
	Code string `json:"Code"`
	Name string `json:"Name"`
}

// USAJobsAdapter searches the federal USAJobs.gov API.
type USAJobsAdapter struct {
	apiKey  string
	email   string
	baseURL string
	client  *http.Client
}

// NewUSAJobsAdapter creates an adapter. USAJobs identifies callers by the
// registered email address sent as User-Agent.
func NewUSAJobsAdapter(apiKey, email string, client *http.Client) *USAJobsAdapter {
	return &USAJobsAdapter{
		apiKey:  apiKey,
		email:   email,
		baseURL: usajobsBaseURL,
		client:  client,
	}
}

func (a *USAJobsAdapter) Name() string { return "usajobs" }

func (a *USAJobsAdapter) headers() map[string]string {
	return map[string]string{
		"User-Agent":        a.email,
		"Authorization-Key": a.apiKey,
	}
}

// Fetch searches USAJobs and normalizes every result. Malformed items are
// skipped.
func (a *USAJobsAdapter) Fetch(ctx context.Context, q model.Query) ([]model.JobListing, error) {
	pageSize := q.MaxResults
	if pageSize <= 0 {
		pageSize = 50
	}
	pageSize = min(pageSize, usajobsMaxPageSize)

	params := url.Values{}
	params.Set("Keyword", strings.Join(q.Keywords, " "))
	if q.Location != "" {
		params.Set("LocationName", q.Location)
	}
	if q.RadiusMiles > 0 {
		params.Set("Radius", strconv.Itoa(q.RadiusMiles))
	}
	params.Set("ResultsPerPage", strconv.Itoa(pageSize))

	var resp usajobsResponse
	if err := getJSON(ctx, a.client, a.baseURL+"?"+params.Encode(), a.headers(), &resp, "usajobs"); err != nil {
		return nil, err
	}

	jobs := make([]model.JobListing, 0, len(resp.SearchResult.SearchResultItems))
	for _, item := range resp.SearchResult.SearchResultItems {
		if item.MatchedObjectDescriptor == nil {
			continue
		}
		jobs = append(jobs, normalizeUSAJobs(item))
	}
	return jobs, nil
}

// Validate makes a one-result search to confirm the key is accepted.
func (a *USAJobsAdapter) Validate(ctx context.Context) error {
	var resp usajobsResponse
	return getJSON(ctx, a.client, a.baseURL+"?ResultsPerPage=1", a.headers(), &resp, "usajobs")
}

func normalizeUSAJobs(item usajobsItem) model.JobListing {
	d := item.MatchedObjectDescriptor
	id := d.PositionID
	if id == "" {
		id = item.MatchedObjectID
	}

	job := model.JobListing{
		JobID:       "usajobs_" + id,
		Provider:    "usajobs",
		Title:       d.PositionTitle,
		Company:     d.OrganizationName,
		Description: extractText(d.UserArea.Details.JobSummary),
		URL:         d.PositionURI,
	}
	if job.Company == "" {
		job.Company = d.DepartmentName
	}

	if len(d.PositionLocation) > 0 {
		loc := d.PositionLocation[0]
		job.State = NormalizeState(loc.CountrySubDivisionCode)
		job.Location = cityState(loc.CityName, loc.CountrySubDivisionCode)
		if extra := len(d.PositionLocation) - 1; extra > 0 {
			job.Location += fmt.Sprintf(" (+%d locations)", extra)
		}
		lat, latOK := parseCoordinate(loc.Latitude)
		lon, lonOK := parseCoordinate(loc.Longitude)
		if latOK && lonOK {
			job.Coordinates = &model.Coordinates{Lat: lat, Lon: lon}
		}
	}

	if t, ok := parseDate(d.PublicationStartDate); ok {
		job.PostedAt = t
	}
	if t, ok := parseDate(d.ApplicationCloseDate); ok {
		job.ClosingDate = &t
	}

	if len(d.PositionRemuneration) > 0 {
		rem := d.PositionRemuneration[0]
		factor := 1.0
		switch rem.RateIntervalCode {
		case "PA":
			job.SalaryInterval = "annual"
		case "BW":
			job.SalaryInterval = "annual"
			factor = biweeklyPeriods
		case "PH":
			job.SalaryInterval = "hourly"
		}
		if v, err := strconv.ParseFloat(rem.MinimumRange, 64); err == nil && v > 0 {
			job.SalaryMin = ptr(v * factor)
		}
		if v, err := strconv.ParseFloat(rem.MaximumRange, 64); err == nil && v > 0 {
			job.SalaryMax = ptr(v * factor)
		}
	}

	if len(d.PositionSchedule) > 0 {
		job.EmploymentType = d.PositionSchedule[0].Name
	}

	job.Remote, job.Hybrid = usajobsTelework(d.TeleworkSchedule)
	if strings.Contains(strings.ToLower(d.PositionTitle), "remote") {
		job.Remote, job.Hybrid = ptr(true), ptr(false)
	}

	if len(d.JobGrade) > 0 {
		job.Grade = d.JobGrade[0].Code
		if !strings.Contains(job.Grade, "-") && d.UserArea.Details.LowGrade != "" {
			job.Grade += "-" + d.UserArea.Details.LowGrade
		}
		job.ExperienceLevel = gradeLevel(job.Grade)
	}

	return job
}

// usajobsTelework maps telework codes: 01 is fully remote, any other code
// means some telework (hybrid). No schedule leaves both unknown.
func usajobsTelework(schedule []usajobsCodeName) (remote, hybrid *bool) {
	if len(schedule) == 0 {
		return nil, nil
	}
	switch schedule[0].Code {
	case "01":
		return ptr(true), ptr(false)
	case "":
		return nil, nil
	default:
		return ptr(false), ptr(true)
	}
}

// gradeLevel maps a GS grade to an experience band: 1-7 entry, 8-11 mid,
// 12 and up senior.
func gradeLevel(grade string) string {
	digits := strings.TrimLeft(strings.ToUpper(grade), "GS- ")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return ""
	}
	switch {
	case n <= 7:
		return "entry"
	case n <= 11:
		return "mid"
	default:
		return "senior"
	}
}

// parseCoordinate accepts the string or number forms USAJobs returns.
func parseCoordinate(v any) (float64, bool) {
	switch c := v.(type) {
	case float64:
		return c, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
