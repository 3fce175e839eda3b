package compliance

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		"1": {TotalRules: 2, PassedRules: 2, FailedRules: []Failure{}, Warnings: []Warning{}, Score: 100},
		"2": {TotalRules: 2, PassedRules: 1, Score: 50, FailedRules: []Failure{
			{RuleID: "topic-tagged", RuleName: "Topic", Category: CategoryEducational, Severity: SeverityWarning, Message: "topic not set"},
		}},
		"10": {TotalRules: 2, PassedRules: 0, Score: 0, FailedRules: []Failure{
			{RuleID: "mark-distribution", RuleName: "Mark distribution", Category: CategoryStructure, Severity: SeverityError, Message: "alternatives total 3 marks but the question is worth 4"},
			{RuleID: "figure-attachment", RuleName: "Figure attachment", Category: CategoryContent, Severity: SeverityError, Message: "question refers to a figure but has no attachment"},
		}, Warnings: []Warning{{RuleID: "x", Message: "rule x panicked"}}},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleReport())
	assert.Equal(t, Summary{
		TotalQuestions:     3,
		FullyCompliant:     1,
		PartiallyCompliant: 1,
		NonCompliant:       1,
		AverageScore:       50,
		Errors:             2,
		Warnings:           2,
	}, s)

	assert.Equal(t, Summary{}, Summarize(Report{}))
}

func TestSummarize_RoundsAverage(t *testing.T) {
	r := Report{"1": {Score: 100}, "2": {Score: 67}, "3": {Score: 0}}
	assert.Equal(t, 56, Summarize(r).AverageScore)
}

func TestBlocking(t *testing.T) {
	assert.Equal(t, 2, sampleReport().Blocking())
	assert.Equal(t, 0, Report{"1": {Score: 100}}.Blocking())
}

func TestNumbers(t *testing.T) {
	r := Report{"10": {}, "2(b)": {}, "2(a)": {}, "1": {}}
	assert.Equal(t, []string{"1", "2(a)", "2(b)", "10"}, r.Numbers())
}

func TestFilter(t *testing.T) {
	r := sampleReport()

	assert.ElementsMatch(t, []string{"1"}, keys(Filter(r, FilterOpts{Status: "passed"})))
	assert.ElementsMatch(t, []string{"2", "10"}, keys(Filter(r, FilterOpts{Status: "failed"})))
	assert.ElementsMatch(t, []string{"10"}, keys(Filter(r, FilterOpts{Category: CategoryStructure})))
	assert.ElementsMatch(t, []string{"2"}, keys(Filter(r, FilterOpts{Category: CategoryEducational})))
	assert.Empty(t, Filter(r, FilterOpts{Category: CategorySubjectSpecific}))
	assert.ElementsMatch(t, []string{"10"}, keys(Filter(r, FilterOpts{Query: "FIGURE"})))
	assert.ElementsMatch(t, []string{"1", "10"}, keys(Filter(r, FilterOpts{Query: "1"})))
	assert.Len(t, Filter(r, FilterOpts{}), 3)
}

func TestExport_Keys(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	_, err := NewExport(sampleReport(), now).WriteTo(&buf)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 3)
	assert.Contains(t, got, "summary")
	assert.Contains(t, got, "details")
	assert.JSONEq(t, `"2024-05-01T12:00:00Z"`, string(got["timestamp"]))

	var details map[string]Result
	require.NoError(t, json.Unmarshal(got["details"], &details))
	assert.Equal(t, 50, details["2"].Score)
}

func keys(r Report) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}
