package filter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Irehund/JobTrack/internal/model"
)

// WorkType is a listing's work arrangement.
type WorkType string

const (
	WorkTypeAny     WorkType = "any"
	WorkTypeRemote  WorkType = "remote"
	WorkTypeHybrid  WorkType = "hybrid"
	WorkTypeOnsite  WorkType = "onsite"
	WorkTypeUnknown WorkType = ""
)

// ParseWorkType accepts "any", "remote", "hybrid", "onsite" and "on-site".
// Anything else, including "", maps to WorkTypeAny.
func ParseWorkType(s string) WorkType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote":
		return WorkTypeRemote
	case "hybrid":
		return WorkTypeHybrid
	case "onsite", "on-site":
		return WorkTypeOnsite
	default:
		return WorkTypeAny
	}
}

// Experience is a listing's seniority band.
type Experience string

const (
	ExperienceAny     Experience = "any"
	ExperienceEntry   Experience = "entry"
	ExperienceMid     Experience = "mid"
	ExperienceSenior  Experience = "senior"
	ExperienceUnknown Experience = ""
)

// ParseExperience accepts "any", "entry", "mid" and "senior". Anything else
// maps to ExperienceAny.
func ParseExperience(s string) Experience {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry":
		return ExperienceEntry
	case "mid":
		return ExperienceMid
	case "senior":
		return ExperienceSenior
	default:
		return ExperienceAny
	}
}

var (
	hybridPhrases = []string{"hybrid"}
	remotePhrases = []string{"remote", "work from home", "work-from-home", "telework", "telecommute"}
	onsitePhrases = []string{"on-site", "onsite", "in office", "in-office"}
)

// ClassifyWorkType uses the provider's explicit flags first and falls back to
// phrases in the title and description.
func ClassifyWorkType(j model.JobListing) WorkType {
	if j.Hybrid != nil && *j.Hybrid {
		return WorkTypeHybrid
	}
	if j.Remote != nil && *j.Remote {
		return WorkTypeRemote
	}
	if j.Remote != nil && j.Hybrid != nil {
		return WorkTypeOnsite
	}

	text := strings.ToLower(j.Title + " " + j.Description)
	switch {
	case containsAny(text, hybridPhrases):
		return WorkTypeHybrid
	case containsAny(text, remotePhrases):
		return WorkTypeRemote
	case containsAny(text, onsitePhrases):
		return WorkTypeOnsite
	}

	// One flag explicitly false and nothing else said: the job is in person.
	if j.Remote != nil || j.Hybrid != nil {
		return WorkTypeOnsite
	}
	return WorkTypeUnknown
}

var gsGrade = regexp.MustCompile(`(?i)\bGS-?\s*(\d{1,2})\b`)

var (
	seniorTokens = map[string]bool{"senior": true, "sr": true, "lead": true, "principal": true, "staff": true, "iii": true, "iv": true, "chief": true}
	entryTokens  = map[string]bool{"junior": true, "jr": true, "entry": true, "intern": true, "internship": true, "trainee": true, "graduate": true, "apprentice": true, "associate": true}
	midTokens    = map[string]bool{"mid": true, "intermediate": true, "ii": true}
)

// ClassifyExperience checks the provider hint, then a GS pay grade, then
// title words.
func ClassifyExperience(j model.JobListing) Experience {
	switch e := Experience(strings.ToLower(strings.TrimSpace(j.ExperienceLevel))); e {
	case ExperienceEntry, ExperienceMid, ExperienceSenior:
		return e
	}

	if m := gsGrade.FindStringSubmatch(j.Grade); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			switch {
			case n <= 7:
				return ExperienceEntry
			case n <= 11:
				return ExperienceMid
			default:
				return ExperienceSenior
			}
		}
	}

	tokens := strings.FieldsFunc(strings.ToLower(j.Title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, set := range []struct {
		words map[string]bool
		level Experience
	}{
		{seniorTokens, ExperienceSenior},
		{entryTokens, ExperienceEntry},
		{midTokens, ExperienceMid},
	} {
		for _, tok := range tokens {
			if set.words[tok] {
				return set.level
			}
		}
	}
	return ExperienceUnknown
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
