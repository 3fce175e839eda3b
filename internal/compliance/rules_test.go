package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/paperdesk/internal/paper"
)

func ruleByID(t *testing.T, rules []Rule, id string) Rule {
	t.Helper()
	for _, r := range rules {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("rule %s not found", id)
	return Rule{}
}

func sampleItem() paper.Item {
	return paper.Item{
		Number:       "1",
		Type:         "descriptive",
		Description:  "Explain why the sky is blue.",
		Topic:        "Optics",
		Marks:        5,
		AnswerFormat: "text",
		CorrectAnswers: []paper.Alternative{
			{AlternativeID: 1, Answer: "Rayleigh scattering", Marks: 3},
			{AlternativeID: 2, Answer: "shorter wavelengths scatter more", Marks: 2},
		},
		Hint:        "Think about wavelength.",
		Explanation: "Blue light scatters more strongly.",
	}
}

func TestDefaultRules_Order(t *testing.T) {
	var ids []string
	for _, r := range DefaultRules(Settings{}, Tables{}) {
		ids = append(ids, r.ID)
		assert.NotNil(t, r.Check, r.ID)
	}
	assert.Equal(t, []string{
		"alternative-linking", "alternative-ids-unique", "mark-distribution", "figure-attachment",
		"mcq-options", "marks-positive", "description-present", "answer-present", "answer-context",
		"answer-format", "hint-present", "explanation-present", "numeric-units", "topic-tagged",
	}, ids)
}

func TestDefaultRules_CleanItemScores100(t *testing.T) {
	e := NewEngine(DefaultRules(Settings{HintsRequired: true, ExplanationsRequired: true}, Tables{}))
	res := e.Evaluate([]paper.Item{sampleItem()})["1"]
	assert.Empty(t, res.FailedRules)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 100, res.Score)
}

func TestMarkDistribution(t *testing.T) {
	it := sampleItem()
	assert.NoError(t, checkMarkDistribution(it))
	assert.NoError(t, checkLinking(it))

	for i := range it.CorrectAnswers {
		mutated := sampleItem()
		mutated.CorrectAnswers[i].Marks++
		err := checkMarkDistribution(mutated)
		var v *Violation
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Message, "6")
	}

	it.Marks = 5.5
	assert.Error(t, checkMarkDistribution(it))

	cases := []struct {
		name  string
		marks float64
		alts  []paper.Alternative
		ok    bool
	}{
		{"no alternatives on a marked item", 2, nil, false},
		{"no alternatives on a zero-mark item", 0, nil, true},
		{"blank answer still carries marks", 3, []paper.Alternative{{AlternativeID: 1, Answer: "x", Marks: 1}, {AlternativeID: 2, Marks: 2}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkMarkDistribution(paper.Item{Marks: tc.marks, CorrectAnswers: tc.alts})
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "alternatives total 0 marks but the question is worth 2")
			}
		})
	}
}

func TestMarkDistribution_MCQWithoutAlternatives(t *testing.T) {
	it := paper.Item{Number: "1", Type: "mcq", Marks: 2, Options: []paper.Option{
		{Label: "A", Text: "yes", IsCorrect: true},
		{Label: "B", Text: "no"},
	}}
	e := NewEngine(DefaultRules(Settings{}, Tables{}))
	res := e.Evaluate([]paper.Item{it}, "mark-distribution", "answer-present")["1"]
	assert.Equal(t, 1, res.PassedRules)
	require.Len(t, res.FailedRules, 1)
	assert.Equal(t, "mark-distribution", res.FailedRules[0].RuleID)
	assert.Equal(t, SeverityError, res.FailedRules[0].Severity)
	assert.Equal(t, 50, res.Score)
}

func TestAnswerPresent(t *testing.T) {
	cases := []struct {
		name string
		item paper.Item
		want string
	}{
		{"answered", sampleItem(), ""},
		{"nothing recorded", paper.Item{Type: "descriptive"}, "no correct answer recorded"},
		{"mcq with correct option", paper.Item{Type: "mcq", Options: []paper.Option{{Label: "A", IsCorrect: true}}}, ""},
		{"blank alternative", paper.Item{CorrectAnswers: []paper.Alternative{
			{AlternativeID: 1, Answer: "x"}, {AlternativeID: 2, Answer: "  ", Marks: 2},
		}}, "alternative(s) 2 have no answer text"},
		{"context only", paper.Item{CorrectAnswers: []paper.Alternative{
			{AlternativeID: 1, Context: &paper.AnswerContext{Value: "working shown"}},
		}}, ""},
	}
	r := ruleByID(t, DefaultRules(Settings{}, Tables{}), "answer-present")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Check(tc.item)
			if tc.want == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.want)
			}
		})
	}
}

func TestAlternativeLinking(t *testing.T) {
	it := paper.Item{CorrectAnswers: []paper.Alternative{
		{AlternativeID: 1, LinkedAlternatives: []int{2}},
		{AlternativeID: 2},
		{AlternativeID: 3, LinkedAlternatives: []int{4}},
	}}
	err := checkLinking(it)
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Message, "missing alternative 4")

	it.CorrectAnswers[2].LinkedAlternatives = []int{3}
	assert.ErrorContains(t, checkLinking(it), "links to itself")

	it.CorrectAnswers[2].LinkedAlternatives = []int{1, 2}
	assert.NoError(t, checkLinking(it))
}

func TestUniqueIDs(t *testing.T) {
	it := paper.Item{CorrectAnswers: []paper.Alternative{{AlternativeID: 1}, {AlternativeID: 1}, {AlternativeID: 2}, {AlternativeID: 1}}}
	assert.EqualError(t, checkUniqueIDs(it), "duplicate alternative id(s): 1")
}

func TestFigureAttachment(t *testing.T) {
	check := figureCheck(DefaultTables.FigureKeywords)

	it := sampleItem()
	assert.NoError(t, check(it))

	it.Description = "Use the DIAGRAM to label the heart."
	assert.Error(t, check(it))

	it.Attachments = []string{""}
	assert.Error(t, check(it), "blank attachment keys do not count")

	it.Attachments = []string{"papers/p1/1/fig.png"}
	assert.NoError(t, check(it))

	it = sampleItem()
	it.FigureRequired = true
	assert.Error(t, check(it))
}

func TestMCQOptions(t *testing.T) {
	r := ruleByID(t, DefaultRules(Settings{}, Tables{}), "mcq-options")

	it := paper.Item{Type: "mcq", Options: []paper.Option{{Label: "A"}}}
	assert.ErrorContains(t, r.Check(it), "at least 2")

	it.Options = append(it.Options, paper.Option{Label: "B"})
	assert.ErrorContains(t, r.Check(it), "marked correct")

	it.Options[1].IsCorrect = true
	assert.NoError(t, r.Check(it))

	it.Options[1].IsCorrect = false
	it.CorrectAnswers = []paper.Alternative{{AlternativeID: 1, Answer: "b", Marks: 1}}
	assert.NoError(t, r.Check(it), "an alternative naming an option label marks it correct")

	assert.NoError(t, r.Check(paper.Item{Type: "descriptive"}))
}

func TestConditionalRulesFlipSeverity(t *testing.T) {
	it := sampleItem()
	it.Hint = ""

	for _, required := range []bool{false, true} {
		e := NewEngine(DefaultRules(Settings{HintsRequired: required}, Tables{}))
		res := e.Evaluate([]paper.Item{it}, "hint-present")["1"]
		require.Len(t, res.FailedRules, 1)
		want := SeverityWarning
		if required {
			want = SeverityError
		}
		assert.Equal(t, want, res.FailedRules[0].Severity)
		assert.Equal(t, CategoryEducational, res.FailedRules[0].Category)
	}
}

func TestNumericUnits(t *testing.T) {
	check := unitsCheck(DefaultTables.NumericFormats)
	it := paper.Item{AnswerFormat: "calculation", CorrectAnswers: []paper.Alternative{
		{AlternativeID: 1, Answer: "9.8"},
		{AlternativeID: 2, Answer: "9.8 m/s^2"},
		{AlternativeID: 3, Answer: "10", Context: &paper.AnswerContext{Type: "unit", Value: "N"}},
	}}
	assert.EqualError(t, check(it), "numeric answer(s) without unit: alternative 1")

	it.AnswerFormat = "text"
	assert.NoError(t, check(it))
}

func TestAnswerContext(t *testing.T) {
	it := paper.Item{CorrectAnswers: []paper.Alternative{
		{AlternativeID: 1, Context: &paper.AnswerContext{Type: "unit"}},
		{AlternativeID: 2, Context: &paper.AnswerContext{Type: "unit", Value: "kg"}},
		{AlternativeID: 3},
	}}
	assert.ErrorContains(t, checkContext(it), "alternative(s) 1 ")
}
