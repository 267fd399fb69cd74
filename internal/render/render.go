package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Irehund/JobTrack/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // bright blue
			Width(10)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dim gray

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	bandStyles = map[CommuteBand]lipgloss.Style{
		BandShort:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),  // green
		BandMedium:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		BandLong:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		BandUnknown: dimStyle,
	}
)

// CommuteBand buckets a drive time for colouring.
type CommuteBand int

const (
	BandUnknown CommuteBand = iota
	BandShort               // under 30 minutes
	BandMedium              // 30 to 60 minutes
	BandLong                // over 60 minutes
)

func (b CommuteBand) String() string {
	switch b {
	case BandShort:
		return "short"
	case BandMedium:
		return "medium"
	case BandLong:
		return "long"
	default:
		return "unknown"
	}
}

// BandFor returns the band for a commute; nil means no known route.
func BandFor(minutes *int) CommuteBand {
	switch {
	case minutes == nil:
		return BandUnknown
	case *minutes < 30:
		return BandShort
	case *minutes <= 60:
		return BandMedium
	default:
		return BandLong
	}
}

// CommuteLabel renders a commute such as "34 min" in its band colour.
func CommuteLabel(minutes *int) string {
	text := "no route"
	if minutes != nil {
		text = fmt.Sprintf("%d min", *minutes)
	}
	return bandStyles[BandFor(minutes)].Render(text)
}

// FormatSalary renders a salary range for display.
//
//	FormatSalary(80000, 100000, "annual") -> "$80,000 – $100,000 / year"
//	FormatSalary(25, 30, "hourly")        -> "$25 – $30 / hour"
func FormatSalary(lo, hi *float64, interval string) string {
	hourly := interval == "hourly"
	period := "/ year"
	if hourly {
		period = "/ hour"
	}
	amount := func(n float64) string {
		if hourly {
			s := strconv.FormatFloat(n, 'f', 2, 64)
			s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
			whole, frac, _ := strings.Cut(s, ".")
			if frac != "" {
				return "$" + groupThousands(whole) + "." + frac
			}
			return "$" + groupThousands(whole)
		}
		return "$" + groupThousands(strconv.FormatFloat(n, 'f', 0, 64))
	}

	switch {
	case lo == nil && hi == nil:
		return "Salary not listed"
	case lo != nil && hi != nil:
		return fmt.Sprintf("%s – %s %s", amount(*lo), amount(*hi), period)
	case lo != nil:
		return fmt.Sprintf("%s+ %s", amount(*lo), period)
	default:
		return fmt.Sprintf("Up to %s %s", amount(*hi), period)
	}
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// DaysAgo describes how long ago t was, relative to now.
func DaysAgo(t, now time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	delta := now.Sub(t)
	if delta < 0 {
		return "Just posted"
	}
	days := int(delta.Hours() / 24)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 14:
		return "1 week ago"
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	case days < 60:
		return "1 month ago"
	default:
		return fmt.Sprintf("%d months ago", days/30)
	}
}

// Listing renders one listing as a short block. commute may be nil when
// no route is known, and is omitted entirely when showCommute is false.
func Listing(j model.JobListing, commute *int, showCommute bool, now time.Time) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(j.Title))
	b.WriteByte('\n')

	sub := j.Company
	if j.Location != "" {
		sub += " · " + j.Location
	}
	sub += " · " + DaysAgo(j.PostedAt, now)
	b.WriteString(subtitleStyle.Render(sub))
	b.WriteByte('\n')

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Salary", FormatSalary(j.SalaryMin, j.SalaryMax, j.SalaryInterval))
	if showCommute {
		addField("Commute", CommuteLabel(commute))
	}
	addField("Grade", j.Grade)
	addField("Source", j.Provider)
	addField("Apply", j.URL)
	return b.String()
}

// Summary renders the header line and per-provider failures of a search.
func Summary(res model.AggregatedResult, shown int) string {
	var b strings.Builder

	ok := res.Providers - res.Failed()
	head := fmt.Sprintf("%d listings (%d shown) from %d/%d providers in %s",
		len(res.Listings), shown, ok, res.Providers, res.Duration.Round(time.Millisecond))
	b.WriteString(headerStyle.Render(head))
	b.WriteByte('\n')

	for _, perr := range res.Errors {
		b.WriteString(errorStyle.Render("⚠ " + perr.Error()))
		b.WriteByte('\n')
	}
	if res.SearchID != "" {
		b.WriteString(dimStyle.Render("search " + res.SearchID))
		b.WriteByte('\n')
	}
	return b.String()
}

// Divider returns a dim horizontal rule of the given width.
func Divider(width int) string {
	return dimStyle.Render(strings.Repeat("─", max(width, 3)))
}
