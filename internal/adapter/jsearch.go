package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Irehund/JobTrack/internal/model"
)

const (
	jsearchHost    = "jsearch.p.rapidapi.com"
	jsearchBaseURL = "https://" + jsearchHost + "/search"
)

type jsearchResponse struct {
	Status string       `json:"status"`
	Data   []jsearchJob `json:"data"`
}

type jsearchJob struct {
	JobID              string   `json:"job_id"`
	Title              string   `json:"job_title"`
	EmployerName       string   `json:"employer_name"`
	Publisher          string   `json:"job_publisher"`
	EmploymentType     string   `json:"job_employment_type"`
	ApplyLink          string   `json:"job_apply_link"`
	Description        string   `json:"job_description"`
	IsRemote           *bool    `json:"job_is_remote"`
	PostedAtUTC        string   `json:"job_posted_at_datetime_utc"`
	City               string   `json:"job_city"`
	State              string   `json:"job_state"`
	Country            string   `json:"job_country"`
	Latitude           *float64 `json:"job_latitude"`
	Longitude          *float64 `json:"job_longitude"`
	MinSalary          *float64 `json:"job_min_salary"`
	MaxSalary          *float64 `json:"job_max_salary"`
	SalaryPeriod       string   `json:"job_salary_period"`
	ExpirationUTC      string   `json:"job_offer_expiration_datetime_utc"`
	RequiredExperience struct {
		NoExperienceRequired bool `json:"no_experience_required"`
		RequiredMonths       *int `json:"required_experience_in_months"`
	} `json:"job_required_experience"`
}

// JSearchAdapter reaches Indeed, LinkedIn and Glassdoor postings through the
// RapidAPI JSearch aggregator. Each instance keeps only postings from its own
// publisher.
type JSearchAdapter struct {
	name      string // provider name, e.g. "linkedin"
	publisher string // JSearch job_publisher to keep, e.g. "LinkedIn"
	apiKey    string
	baseURL   string
	client    *http.Client
}

// NewJSearchAdapter creates an adapter reporting as name and keeping results
// whose publisher contains publisher (case-insensitive).
func NewJSearchAdapter(name, publisher, apiKey string, client *http.Client) *JSearchAdapter {
	return &JSearchAdapter{
		name:      name,
		publisher: publisher,
		apiKey:    apiKey,
		baseURL:   jsearchBaseURL,
		client:    client,
	}
}

func (a *JSearchAdapter) Name() string { return a.name }

func (a *JSearchAdapter) headers() map[string]string {
	return map[string]string{
		"X-RapidAPI-Key":  a.apiKey,
		"X-RapidAPI-Host": jsearchHost,
	}
}

// Fetch runs one JSearch query and keeps this adapter's publisher.
func (a *JSearchAdapter) Fetch(ctx context.Context, q model.Query) ([]model.JobListing, error) {
	query := strings.Join(q.Keywords, " ")
	if q.Location != "" {
		query += " in " + q.Location
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("num_pages", "1")
	if q.RadiusMiles > 0 {
		params.Set("radius", strconv.Itoa(int(float64(q.RadiusMiles)*kmPerMile+0.5)))
	}

	var resp jsearchResponse
	if err := getJSON(ctx, a.client, a.baseURL+"?"+params.Encode(), a.headers(), &resp, a.name); err != nil {
		return nil, err
	}

	want := strings.ToLower(a.publisher)
	var jobs []model.JobListing
	for _, j := range resp.Data {
		if want != "" && !strings.Contains(strings.ToLower(j.Publisher), want) {
			continue
		}
		jobs = append(jobs, a.normalize(j))
		if q.MaxResults > 0 && len(jobs) >= q.MaxResults {
			break
		}
	}
	return jobs, nil
}

// Validate runs a minimal query to confirm the RapidAPI key.
func (a *JSearchAdapter) Validate(ctx context.Context) error {
	var resp jsearchResponse
	return getJSON(ctx, a.client, a.baseURL+"?query=analyst&num_pages=1", a.headers(), &resp, a.name)
}

func (a *JSearchAdapter) normalize(j jsearchJob) model.JobListing {
	job := model.JobListing{
		JobID:          a.name + "_" + j.JobID,
		Provider:       a.name,
		Title:          j.Title,
		Company:        j.EmployerName,
		State:          NormalizeState(j.State),
		Description:    extractText(j.Description),
		URL:            j.ApplyLink,
		SalaryMin:      j.MinSalary,
		SalaryMax:      j.MaxSalary,
		Remote:         j.IsRemote,
		EmploymentType: strings.ToLower(j.EmploymentType),
	}
	job.Location = cityState(j.City, job.State)
	if job.Location == "" {
		job.Location = j.State
	}

	switch strings.ToUpper(j.SalaryPeriod) {
	case "YEAR":
		job.SalaryInterval = "annual"
	case "HOUR":
		job.SalaryInterval = "hourly"
	}

	if j.Latitude != nil && j.Longitude != nil {
		job.Coordinates = &model.Coordinates{Lat: *j.Latitude, Lon: *j.Longitude}
	}
	if t, ok := parseDate(j.PostedAtUTC); ok {
		job.PostedAt = t
	}
	if t, ok := parseDate(j.ExpirationUTC); ok {
		job.ClosingDate = &t
	}

	switch m := j.RequiredExperience.RequiredMonths; {
	case j.RequiredExperience.NoExperienceRequired:
		job.ExperienceLevel = "entry"
	case m != nil && *m < 24:
		job.ExperienceLevel = "entry"
	case m != nil && *m < 60:
		job.ExperienceLevel = "mid"
	case m != nil:
		job.ExperienceLevel = "senior"
	}
	return job
}
