package paper

import "strings"

// Flatten lists the answerable units of a question tree in document order.
// Parts inherit type, figure flag and topic from their parent when unset.
func Flatten(questions []Question) []Item {
	var out []Item
	for _, q := range questions {
		if len(q.Parts) == 0 {
			out = append(out, Item{
				Number:            q.Number,
				QuestionID:        q.ID,
				Type:              q.Type,
				Description:       q.Description,
				Topic:             q.Topic,
				Marks:             q.Marks,
				AnswerFormat:      q.AnswerFormat,
				AnswerRequirement: q.AnswerRequirement,
				CorrectAnswers:    q.CorrectAnswers,
				Options:           q.Options,
				Attachments:       q.Attachments,
				FigureRequired:    q.FigureRequired,
				Hint:              q.Hint,
				Explanation:       q.Explanation,
			})
			continue
		}
		parent := Item{
			Number:         q.Number,
			QuestionID:     q.ID,
			Type:           q.Type,
			Topic:          q.Topic,
			Attachments:    q.Attachments,
			FigureRequired: q.FigureRequired,
		}
		for _, p := range q.Parts {
			out = flattenPart(out, parent, p)
		}
	}
	return out
}

func flattenPart(out []Item, parent Item, p Part) []Item {
	it := Item{
		Number:            parent.Number + "(" + trimLabel(p.Label) + ")",
		QuestionID:        parent.QuestionID,
		Type:              p.Type,
		Description:       p.Description,
		Topic:             parent.Topic,
		Marks:             p.Marks,
		AnswerFormat:      p.AnswerFormat,
		AnswerRequirement: p.AnswerRequirement,
		CorrectAnswers:    p.CorrectAnswers,
		Options:           p.Options,
		Attachments:       p.Attachments,
		FigureRequired:    p.FigureRequired || parent.FigureRequired,
		Hint:              p.Hint,
		Explanation:       p.Explanation,
	}
	if it.Type == "" {
		it.Type = parent.Type
	}
	// a figure attached to the stem serves every part below it
	if len(it.Attachments) == 0 {
		it.Attachments = parent.Attachments
	}
	if len(p.Subparts) == 0 {
		return append(out, it)
	}
	for _, sp := range p.Subparts {
		out = flattenPart(out, it, sp)
	}
	return out
}

func trimLabel(s string) string {
	return strings.Trim(strings.TrimSpace(s), "().")
}

// node exposes the mutable answer fields of one answerable unit.
type node struct {
	marks          *float64
	correctAnswers *[]Alternative
	attachments    *[]string
}

// findNode walks the tree for the unit whose display number is number.
func findNode(questions []Question, number string) (node, bool) {
	for i := range questions {
		q := &questions[i]
		if len(q.Parts) == 0 {
			if q.Number == number {
				return node{&q.Marks, &q.CorrectAnswers, &q.Attachments}, true
			}
			continue
		}
		if n, ok := findPart(q.Parts, q.Number, number); ok {
			return n, true
		}
	}
	return node{}, false
}

func findPart(parts []Part, prefix, number string) (node, bool) {
	for i := range parts {
		p := &parts[i]
		num := prefix + "(" + trimLabel(p.Label) + ")"
		if len(p.Subparts) == 0 {
			if num == number {
				return node{&p.Marks, &p.CorrectAnswers, &p.Attachments}, true
			}
			continue
		}
		if !strings.HasPrefix(number, num) {
			continue
		}
		if n, ok := findPart(p.Subparts, num, number); ok {
			return n, true
		}
	}
	return node{}, false
}
