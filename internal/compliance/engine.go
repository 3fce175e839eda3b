package compliance

import (
	"errors"
	"fmt"
	"math"

	"github.com/mind-engage/paperdesk/internal/paper"
)

type Failure struct {
	RuleID   string   `json:"ruleId"`
	RuleName string   `json:"ruleName"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fixable  bool     `json:"fixable"`
}

// Warning records a rule that could not be evaluated for an item.
type Warning struct {
	RuleID  string `json:"ruleId"`
	Message string `json:"message"`
}

// Result is the outcome for one item. A rule that could not run is counted
// in TotalRules but neither passes nor fails.
type Result struct {
	TotalRules  int       `json:"totalRules"`
	PassedRules int       `json:"passedRules"`
	FailedRules []Failure `json:"failedRules"`
	Warnings    []Warning `json:"warnings"`
	Score       int       `json:"score"`
}

// Report maps item numbers ("1", "3(b)(ii)") to their result.
type Report map[string]Result

type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: append([]Rule(nil), rules...)}
}

func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Evaluate runs the enabled rules over every item. With no ruleIDs every
// rule is enabled; otherwise only the named ones are, and unknown ids are
// ignored. A number seen twice is reported again as "2#2", "2#3", so no
// item's result is lost.
func (e *Engine) Evaluate(items []paper.Item, ruleIDs ...string) Report {
	rules := e.enabled(ruleIDs)
	rep := make(Report, len(items))
	for _, it := range items {
		rep[reportKey(rep, it.Number)] = evaluateItem(it, rules)
	}
	return rep
}

func reportKey(rep Report, num string) string {
	if _, taken := rep[num]; !taken {
		return num
	}
	for n := 2; ; n++ {
		k := fmt.Sprintf("%s#%d", num, n)
		if _, taken := rep[k]; !taken {
			return k
		}
	}
}

func (e *Engine) enabled(ids []string) []Rule {
	if len(ids) == 0 {
		return e.rules
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]Rule, 0, len(ids))
	for _, r := range e.rules {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func evaluateItem(it paper.Item, rules []Rule) Result {
	res := Result{
		TotalRules:  len(rules),
		FailedRules: []Failure{},
		Warnings:    []Warning{},
	}
	for _, r := range rules {
		err := run(r, it)
		if err == nil {
			res.PassedRules++
			continue
		}
		var v *Violation
		if errors.As(err, &v) {
			res.FailedRules = append(res.FailedRules, Failure{
				RuleID:   r.ID,
				RuleName: r.Name,
				Category: r.Category,
				Severity: r.severity(),
				Message:  v.Message,
				Fixable:  r.Fixable,
			})
			continue
		}
		res.Warnings = append(res.Warnings, Warning{RuleID: r.ID, Message: err.Error()})
	}
	res.Score = score(res.PassedRules, res.TotalRules)
	return res
}

func run(r Rule, it paper.Item) (err error) {
	if r.Check == nil {
		return fmt.Errorf("rule %s has no check", r.ID)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule %s panicked: %v", r.ID, p)
		}
	}()
	return r.Check(it)
}

// score is round(100*passed/total); zero rules score 0.
func score(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(passed) * 100 / float64(total)))
}
