package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Irehund/JobTrack/internal/model"
)

const jsearchPayload = `{
	"status": "OK",
	"data": [
		{
			"job_id": "abc123",
			"job_title": "SOC Analyst",
			"employer_name": "Acme",
			"job_publisher": "LinkedIn",
			"job_employment_type": "FULLTIME",
			"job_apply_link": "https://www.linkedin.com/jobs/view/abc123",
			"job_description": "Monitor security events.",
			"job_is_remote": false,
			"job_posted_at_datetime_utc": "2026-01-12T08:30:00.000Z",
			"job_city": "Dallas",
			"job_state": "Texas",
			"job_country": "US",
			"job_latitude": 32.7767,
			"job_longitude": -96.797,
			"job_min_salary": 30,
			"job_max_salary": 42.5,
			"job_salary_period": "HOUR",
			"job_offer_expiration_datetime_utc": "2026-02-12T00:00:00.000Z",
			"job_required_experience": {"no_experience_required": false, "required_experience_in_months": 36}
		},
		{
			"job_id": "zzz",
			"job_title": "Welder",
			"employer_name": "Forge",
			"job_publisher": "Indeed",
			"job_is_remote": null,
			"job_latitude": null,
			"job_longitude": null
		}
	]
}`

func jsearchServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "rapid-key" {
			t.Errorf("missing RapidAPI key header")
		}
		if r.Header.Get("X-RapidAPI-Host") != jsearchHost {
			t.Errorf("unexpected RapidAPI host header %q", r.Header.Get("X-RapidAPI-Host"))
		}
		if got := r.URL.Query().Get("query"); got != "soc analyst in Dallas, TX" {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(jsearchPayload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var jsearchQuery = model.Query{Keywords: []string{"soc", "analyst"}, Location: "Dallas, TX"}

func TestJSearchFetch_FiltersByPublisher(t *testing.T) {
	srv := jsearchServer(t)

	linkedin := NewJSearchAdapter("linkedin", "LinkedIn", "rapid-key", redirectClient(srv))
	jobs, err := linkedin.Fetch(context.Background(), jsearchQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 LinkedIn job, got %d", len(jobs))
	}

	j := jobs[0]
	if j.JobID != "linkedin_abc123" || j.Provider != "linkedin" {
		t.Errorf("unexpected identity %s/%s", j.Provider, j.JobID)
	}
	if j.State != "TX" || j.Location != "Dallas, TX" {
		t.Errorf("unexpected location %q / %q", j.Location, j.State)
	}
	if j.SalaryInterval != "hourly" || j.SalaryMax == nil || *j.SalaryMax != 42.5 {
		t.Errorf("unexpected salary %v %q", j.SalaryMax, j.SalaryInterval)
	}
	if j.Remote == nil || *j.Remote {
		t.Errorf("expected explicit non-remote flag, got %v", j.Remote)
	}
	if j.ExperienceLevel != "mid" {
		t.Errorf("expected 36 months to be mid, got %q", j.ExperienceLevel)
	}
	if j.ClosingDate == nil || j.PostedAt.Day() != 12 {
		t.Errorf("unexpected dates %v / %v", j.PostedAt, j.ClosingDate)
	}
	if j.EmploymentType != "fulltime" {
		t.Errorf("unexpected employment type %q", j.EmploymentType)
	}

	indeed := NewJSearchAdapter("indeed", "Indeed", "rapid-key", redirectClient(srv))
	jobs, err = indeed.Fetch(context.Background(), jsearchQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].JobID != "indeed_zzz" {
		t.Fatalf("expected the Indeed job only, got %v", jobs)
	}
	if jobs[0].Remote != nil || jobs[0].Coordinates != nil {
		t.Errorf("expected unknown remote flag and coordinates")
	}
}

func TestJSearchFetch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewJSearchAdapter("glassdoor", "Glassdoor", "k", redirectClient(srv)).Fetch(context.Background(), jsearchQuery)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected HTTPError 429, got %v", err)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("expected Retry-After 30s, got %v", httpErr.RetryAfter)
	}
}

func TestJSearchFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [`))
	}))
	defer srv.Close()

	_, err := NewJSearchAdapter("indeed", "Indeed", "k", redirectClient(srv)).Fetch(context.Background(), jsearchQuery)
	if err == nil {
		t.Fatal("expected decode error")
	}
}
