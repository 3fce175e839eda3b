package paper

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError blocks a save; Problems lists every failed check.
type ValidationError struct {
	Problems []string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return "invalid answers: " + strings.Join(e.Problems, "; ")
}

// ValidateAnswers checks an alternative list against the item's marks. All
// three checks always run and their messages accumulate:
//
//  1. the alternatives' marks add up to the item's marks exactly
//  2. alternative ids are unique
//  3. every linked alternative resolves to an id in the list
//
// An empty result means the list may be saved.
func ValidateAnswers(itemMarks float64, alts []Alternative) []string {
	var problems []string

	total := 0.0
	for _, a := range alts {
		total += a.Marks
	}
	if total != itemMarks {
		problems = append(problems, fmt.Sprintf("total marks of alternatives (%s) must equal question marks (%s)",
			formatMarks(total), formatMarks(itemMarks)))
	}

	ids := make(map[int]int, len(alts))
	for _, a := range alts {
		ids[a.AlternativeID]++
	}
	for _, a := range alts {
		if n := ids[a.AlternativeID]; n > 1 {
			problems = append(problems, fmt.Sprintf("alternative id %d is used %d times", a.AlternativeID, n))
			ids[a.AlternativeID] = 1 // report each duplicate once
		}
	}

	for _, a := range alts {
		for _, link := range a.LinkedAlternatives {
			if _, ok := ids[link]; !ok {
				problems = append(problems, fmt.Sprintf("alternative %d links to missing alternative %d", a.AlternativeID, link))
			}
		}
	}
	return problems
}

func formatMarks(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
