package compliance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/paperdesk/internal/paper"
)

// Settings are the editor toggles that decide whether the conditional rules
// are errors or warnings. The rules run either way.
type Settings struct {
	HintsRequired        bool            `json:"hintsRequired"`
	ExplanationsRequired bool            `json:"explanationsRequired"`
	SubjectRules         map[string]bool `json:"subjectRules,omitempty"` // "units"
}

// Tables is the keyword data the rules read.
type Tables struct {
	FigureKeywords []string `json:"figure_keywords"`
	MCQTypes       []string `json:"mcq_types"`
	NumericFormats []string `json:"numeric_formats"`
}

var DefaultTables = Tables{
	FigureKeywords: []string{"figure", "fig.", "diagram", "graph", "image", "picture", "chart", "illustration", "photograph", "sketch"},
	MCQTypes:       []string{"mcq", "multiple_choice", "multiple-choice", "mcq_single", "mcq_multi"},
	NumericFormats: []string{"calculation", "numeric", "numerical"},
}

func (t Tables) withDefaults() Tables {
	if len(t.FigureKeywords) == 0 {
		t.FigureKeywords = DefaultTables.FigureKeywords
	}
	if len(t.MCQTypes) == 0 {
		t.MCQTypes = DefaultTables.MCQTypes
	}
	if len(t.NumericFormats) == 0 {
		t.NumericFormats = DefaultTables.NumericFormats
	}
	return t
}

// DefaultRules returns the built-in rule list in evaluation order.
func DefaultRules(s Settings, t Tables) []Rule {
	t = t.withDefaults()
	isMCQ := func(it paper.Item) bool { return inFold(it.Type, t.MCQTypes) }

	return []Rule{
		{
			ID:          "alternative-linking",
			Name:        "Alternative linking",
			Description: "Every linked alternative id must be another alternative of the same question.",
			Category:    CategoryStructure,
			Required:    true,
			Fixable:     true,
			Check:       checkLinking,
		},
		{
			ID:          "alternative-ids-unique",
			Name:        "Unique alternative ids",
			Description: "Alternative ids may not repeat within a question.",
			Category:    CategoryStructure,
			Required:    true,
			Fixable:     true,
			Check:       checkUniqueIDs,
		},
		{
			ID:          "mark-distribution",
			Name:        "Mark distribution",
			Description: "The alternatives' marks must add up to the question's marks exactly.",
			Category:    CategoryStructure,
			Required:    true,
			Fixable:     true,
			Check:       checkMarkDistribution,
		},
		{
			ID:          "figure-attachment",
			Name:        "Figure attachment",
			Description: "Questions that refer to a figure, diagram or graph need an attachment.",
			Category:    CategoryContent,
			Required:    true,
			Check:       figureCheck(t.FigureKeywords),
		},
		{
			ID:          "mcq-options",
			Name:        "MCQ options",
			Description: "Multiple-choice questions need at least two options and one correct option.",
			Category:    CategoryStructure,
			Required:    true,
			Check: func(it paper.Item) error {
				if !isMCQ(it) {
					return nil
				}
				if len(it.Options) < 2 {
					return violationf("multiple-choice question has %d option(s); at least 2 required", len(it.Options))
				}
				if !hasCorrectOption(it) {
					return violationf("no option is marked correct")
				}
				return nil
			},
		},
		{
			ID:          "marks-positive",
			Name:        "Marks allocated",
			Description: "Every question must be worth more than zero marks.",
			Category:    CategoryContent,
			Required:    true,
			Check: func(it paper.Item) error {
				if it.Marks <= 0 {
					return violationf("question is worth %s marks", fmtMarks(it.Marks))
				}
				return nil
			},
		},
		{
			ID:          "description-present",
			Name:        "Question text",
			Description: "The question text must not be empty.",
			Category:    CategoryContent,
			Required:    true,
			Check: func(it paper.Item) error {
				if strings.TrimSpace(it.Description) == "" {
					return violationf("question text is empty")
				}
				return nil
			},
		},
		{
			ID:          "answer-present",
			Name:        "Correct answer",
			Description: "Every question needs at least one correct answer.",
			Category:    CategoryContent,
			Required:    true,
			Check:       answerPresentCheck(isMCQ),
		},
		{
			ID:          "answer-context",
			Name:        "Answer context",
			Description: "Context attached to an alternative needs both a type and a value.",
			Category:    CategoryStructure,
			Check:       checkContext,
		},
		{
			ID:          "answer-format",
			Name:        "Answer format",
			Description: "Written questions should declare an answer format.",
			Category:    CategoryContent,
			Check: func(it paper.Item) error {
				if isMCQ(it) || strings.TrimSpace(it.AnswerFormat) != "" {
					return nil
				}
				return violationf("answer format not set")
			},
		},
		{
			ID:          "hint-present",
			Name:        "Hint",
			Description: "Every question carries a hint for students.",
			Category:    CategoryEducational,
			Required:    s.HintsRequired,
			Check: func(it paper.Item) error {
				if strings.TrimSpace(it.Hint) == "" {
					return violationf("hint missing")
				}
				return nil
			},
		},
		{
			ID:          "explanation-present",
			Name:        "Explanation",
			Description: "Every question carries a worked explanation.",
			Category:    CategoryEducational,
			Required:    s.ExplanationsRequired,
			Check: func(it paper.Item) error {
				if strings.TrimSpace(it.Explanation) == "" {
					return violationf("explanation missing")
				}
				return nil
			},
		},
		{
			ID:          "numeric-units",
			Name:        "Units on numeric answers",
			Description: "Numeric answers to calculations state their unit.",
			Category:    CategorySubjectSpecific,
			Required:    s.SubjectRules["units"],
			Check:       unitsCheck(t.NumericFormats),
		},
		{
			ID:          "topic-tagged",
			Name:        "Topic",
			Description: "Questions should be tagged with a syllabus topic.",
			Category:    CategoryEducational,
			Check: func(it paper.Item) error {
				if strings.TrimSpace(it.Topic) == "" {
					return violationf("topic not set")
				}
				return nil
			},
		},
	}
}

func checkLinking(it paper.Item) error {
	ids := make(map[int]bool, len(it.CorrectAnswers))
	for _, a := range it.CorrectAnswers {
		ids[a.AlternativeID] = true
	}
	var problems []string
	for _, a := range it.CorrectAnswers {
		for _, link := range a.LinkedAlternatives {
			switch {
			case link == a.AlternativeID:
				problems = append(problems, fmt.Sprintf("alternative %d links to itself", a.AlternativeID))
			case !ids[link]:
				problems = append(problems, fmt.Sprintf("alternative %d links to missing alternative %d", a.AlternativeID, link))
			}
		}
	}
	if len(problems) > 0 {
		return &Violation{Message: strings.Join(problems, "; ")}
	}
	return nil
}

func checkUniqueIDs(it paper.Item) error {
	seen := make(map[int]int, len(it.CorrectAnswers))
	for _, a := range it.CorrectAnswers {
		seen[a.AlternativeID]++
	}
	var dups []string
	for _, a := range it.CorrectAnswers {
		if seen[a.AlternativeID] > 1 {
			dups = append(dups, fmt.Sprint(a.AlternativeID))
			seen[a.AlternativeID] = 0
		}
	}
	if len(dups) > 0 {
		return violationf("duplicate alternative id(s): %s", strings.Join(dups, ", "))
	}
	return nil
}

// answerPresentCheck also fails alternatives that carry neither answer text
// nor a context.
func answerPresentCheck(isMCQ func(paper.Item) bool) Check {
	return func(it paper.Item) error {
		if len(it.CorrectAnswers) == 0 {
			if isMCQ(it) && hasCorrectOption(it) {
				return nil
			}
			return violationf("no correct answer recorded")
		}
		var blank []string
		for _, a := range it.CorrectAnswers {
			if strings.TrimSpace(a.Answer) == "" && a.Context == nil {
				blank = append(blank, strconv.Itoa(a.AlternativeID))
			}
		}
		if len(blank) > 0 {
			return violationf("alternative(s) %s have no answer text", strings.Join(blank, ", "))
		}
		return nil
	}
}

// checkMarkDistribution compares with ==; marks are whole or half numbers
// in practice, which float64 represents exactly.
// An item with no alternatives totals 0.
func checkMarkDistribution(it paper.Item) error {
	total := 0.0
	for _, a := range it.CorrectAnswers {
		total += a.Marks
	}
	if total != it.Marks {
		return violationf("alternatives total %s marks but the question is worth %s", fmtMarks(total), fmtMarks(it.Marks))
	}
	return nil
}

func figureCheck(keywords []string) Check {
	return func(it paper.Item) error {
		needs := it.FigureRequired
		if !needs {
			low := strings.ToLower(it.Description)
			for _, kw := range keywords {
				if kw != "" && strings.Contains(low, strings.ToLower(kw)) {
					needs = true
					break
				}
			}
		}
		if !needs {
			return nil
		}
		for _, a := range it.Attachments {
			if strings.TrimSpace(a) != "" {
				return nil
			}
		}
		return violationf("question refers to a figure but has no attachment")
	}
}

func checkContext(it paper.Item) error {
	var bad []string
	for _, a := range it.CorrectAnswers {
		if a.Context == nil {
			continue
		}
		if strings.TrimSpace(a.Context.Type) == "" || strings.TrimSpace(a.Context.Value) == "" {
			bad = append(bad, fmt.Sprint(a.AlternativeID))
		}
	}
	if len(bad) > 0 {
		return violationf("context of alternative(s) %s lacks a type or value", strings.Join(bad, ", "))
	}
	return nil
}

var bareNumber = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?$`)

func unitsCheck(formats []string) Check {
	return func(it paper.Item) error {
		if !inFold(it.AnswerFormat, formats) && !inFold(it.Type, formats) {
			return nil
		}
		var bare []string
		for _, a := range it.CorrectAnswers {
			if a.Context != nil && strings.EqualFold(a.Context.Type, "unit") && a.Context.Value != "" {
				continue
			}
			if bareNumber.MatchString(strings.TrimSpace(a.Answer)) {
				bare = append(bare, fmt.Sprint(a.AlternativeID))
			}
		}
		if len(bare) > 0 {
			return violationf("numeric answer(s) without unit: alternative %s", strings.Join(bare, ", "))
		}
		return nil
	}
}

// hasCorrectOption accepts an option flagged correct, or an alternative
// whose answer is an option label.
func hasCorrectOption(it paper.Item) bool {
	for _, o := range it.Options {
		if o.IsCorrect {
			return true
		}
		for _, a := range it.CorrectAnswers {
			if o.Label != "" && strings.EqualFold(strings.TrimSpace(a.Answer), o.Label) {
				return true
			}
		}
	}
	return false
}

func inFold(s string, set []string) bool {
	s = strings.TrimSpace(s)
	for _, v := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func fmtMarks(f float64) string { return fmt.Sprintf("%g", f) }
