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
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3
	kmPerMile      = 1.609344
)

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	SalaryMin    *float64       `json:"salary_min"`
	SalaryMax    *float64       `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
	ContractType string         `json:"contract_type"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string   `json:"display_name"`
	Area        []string `json:"area"` // country, state, county, city
}

// AdzunaAdapter searches the Adzuna jobs API.
type AdzunaAdapter struct {
	appID   string
	appKey  string
	country string // "us", "gb", ...
	baseURL string
	client  *http.Client
}

// NewAdzunaAdapter creates an adapter for one Adzuna country index.
func NewAdzunaAdapter(appID, appKey, country string, client *http.Client) *AdzunaAdapter {
	if country == "" {
		country = "us"
	}
	return &AdzunaAdapter{
		appID:   appID,
		appKey:  appKey,
		country: country,
		baseURL: adzunaBaseURL,
		client:  client,
	}
}

func (a *AdzunaAdapter) Name() string { return "adzuna" }

// Fetch pages through results, newest first, until MaxResults are collected
// or the result set is exhausted.
func (a *AdzunaAdapter) Fetch(ctx context.Context, q model.Query) ([]model.JobListing, error) {
	limit := q.MaxResults
	if limit <= 0 {
		limit = adzunaPageSize
	}

	var jobs []model.JobListing
	for page := 1; page <= adzunaMaxPages && len(jobs) < limit; page++ {
		batch, err := a.fetchPage(ctx, q, page)
		if err != nil {
			return nil, fmt.Errorf("adzuna page %d: %w", page, err)
		}
		jobs = append(jobs, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Validate requests a single result to confirm the credentials.
func (a *AdzunaAdapter) Validate(ctx context.Context) error {
	params := a.auth()
	params.Set("results_per_page", "1")
	var resp adzunaResponse
	return getJSON(ctx, a.client, a.pageURL(1)+"?"+params.Encode(), nil, &resp, "adzuna")
}

func (a *AdzunaAdapter) auth() url.Values {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	return params
}

func (a *AdzunaAdapter) pageURL(page int) string {
	return fmt.Sprintf("%s/%s/search/%d", a.baseURL, a.country, page)
}

func (a *AdzunaAdapter) fetchPage(ctx context.Context, q model.Query, page int) ([]model.JobListing, error) {
	params := a.auth()
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", strings.Join(q.Keywords, " "))
	if q.Location != "" {
		params.Set("where", q.Location)
	}
	if q.RadiusMiles > 0 {
		params.Set("distance", strconv.Itoa(int(float64(q.RadiusMiles)*kmPerMile+0.5)))
	}
	params.Set("sort_by", "date")

	var resp adzunaResponse
	if err := getJSON(ctx, a.client, a.pageURL(page)+"?"+params.Encode(), nil, &resp, "adzuna"); err != nil {
		return nil, err
	}

	jobs := make([]model.JobListing, 0, len(resp.Results))
	for _, r := range resp.Results {
		jobs = append(jobs, normalizeAdzuna(r))
	}
	return jobs, nil
}

func normalizeAdzuna(r adzunaResult) model.JobListing {
	job := model.JobListing{
		JobID:          "adzuna_" + r.ID,
		Provider:       "adzuna",
		Title:          extractText(r.Title),
		Company:        r.Company.DisplayName,
		Location:       r.Location.DisplayName,
		Description:    extractText(r.Description),
		URL:            r.RedirectURL,
		SalaryMin:      r.SalaryMin,
		SalaryMax:      r.SalaryMax,
		EmploymentType: r.ContractTime,
	}
	if r.ContractType == "contract" {
		job.EmploymentType = "contract"
	}
	if job.SalaryMin != nil || job.SalaryMax != nil {
		job.SalaryInterval = "annual"
	}
	if len(r.Location.Area) > 1 {
		job.State = NormalizeState(r.Location.Area[1])
	}
	if job.State == "" {
		if i := strings.LastIndex(r.Location.DisplayName, ","); i >= 0 {
			job.State = NormalizeState(r.Location.DisplayName[i+1:])
		}
	}
	if r.Latitude != nil && r.Longitude != nil {
		job.Coordinates = &model.Coordinates{Lat: *r.Latitude, Lon: *r.Longitude}
	}
	if t, ok := parseDate(r.Created); ok {
		job.PostedAt = t
	}
	return job
}
