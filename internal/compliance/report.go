package compliance

import (
	"encoding/json"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	StatusCompliant    = "compliant"
	StatusPartial      = "partial"
	StatusNonCompliant = "non-compliant"
)

// StatusOf buckets a score: 100 is compliant, 0 is non-compliant.
func StatusOf(score int) string {
	switch {
	case score >= 100:
		return StatusCompliant
	case score <= 0:
		return StatusNonCompliant
	default:
		return StatusPartial
	}
}

type Summary struct {
	TotalQuestions     int `json:"totalQuestions"`
	FullyCompliant     int `json:"fullyCompliant"`
	PartiallyCompliant int `json:"partiallyCompliant"`
	NonCompliant       int `json:"nonCompliant"`
	AverageScore       int `json:"averageScore"`
	Errors             int `json:"errors"`
	Warnings           int `json:"warnings"`
}

func Summarize(r Report) Summary {
	s := Summary{TotalQuestions: len(r)}
	sum := 0
	for _, res := range r {
		sum += res.Score
		switch StatusOf(res.Score) {
		case StatusCompliant:
			s.FullyCompliant++
		case StatusNonCompliant:
			s.NonCompliant++
		default:
			s.PartiallyCompliant++
		}
		for _, f := range res.FailedRules {
			if f.Severity == SeverityError {
				s.Errors++
			} else {
				s.Warnings++
			}
		}
		s.Warnings += len(res.Warnings)
	}
	if len(r) > 0 {
		s.AverageScore = int(math.Round(float64(sum) / float64(len(r))))
	}
	return s
}

// Blocking counts error-severity failures. A paper cannot be confirmed
// while it is non-zero.
func (r Report) Blocking() int {
	n := 0
	for _, res := range r {
		for _, f := range res.FailedRules {
			if f.Severity == SeverityError {
				n++
			}
		}
	}
	return n
}

// Numbers returns the item numbers in paper order ("2" before "10").
func (r Report) Numbers() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return lessNumber(out[i], out[j]) })
	return out
}

func lessNumber(a, b string) bool {
	an, arest := leadingInt(a)
	bn, brest := leadingInt(b)
	if an != bn {
		return an < bn
	}
	return arest < brest
}

func leadingInt(s string) (int, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return math.MaxInt, s
	}
	return n, s[i:]
}

// FilterOpts narrows a report for display. Zero values match everything.
type FilterOpts struct {
	Category Category `json:"category,omitempty"`
	Status   string   `json:"status,omitempty"` // "passed" or "failed"
	Query    string   `json:"query,omitempty"`
}

// Filter keeps the items that match every set option. A category matches
// only through a failure in that category; passing rules do not count.
func Filter(r Report, o FilterOpts) Report {
	q := strings.ToLower(strings.TrimSpace(o.Query))
	out := Report{}
	for num, res := range r {
		switch o.Status {
		case "passed":
			if res.Score != 100 {
				continue
			}
		case "failed":
			if res.Score == 100 {
				continue
			}
		}
		if o.Category != "" && !failsIn(res, o.Category) {
			continue
		}
		if q != "" && !mentions(num, res, q) {
			continue
		}
		out[num] = res
	}
	return out
}

func failsIn(res Result, c Category) bool {
	for _, f := range res.FailedRules {
		if f.Category == c {
			return true
		}
	}
	return false
}

func mentions(num string, res Result, q string) bool {
	if strings.Contains(strings.ToLower(num), q) {
		return true
	}
	for _, f := range res.FailedRules {
		if strings.Contains(strings.ToLower(f.RuleName), q) || strings.Contains(strings.ToLower(f.Message), q) {
			return true
		}
	}
	for _, w := range res.Warnings {
		if strings.Contains(strings.ToLower(w.Message), q) {
			return true
		}
	}
	return false
}

// Export is the downloadable report. Consumers depend on the three keys.
type Export struct {
	Summary   Summary   `json:"summary"`
	Details   Report    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExport(r Report, now time.Time) Export {
	return Export{Summary: Summarize(r), Details: r, Timestamp: now.UTC()}
}

func (e Export) WriteTo(w io.Writer) (int64, error) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return 0, err
	}
	b = append(b, '\n')
	n, err := w.Write(b)
	return int64(n), err
}
