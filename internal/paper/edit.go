package paper

import (
	"encoding/json"
	"errors"
)

var (
	ErrNotFound     = errors.New("paper not found")
	ErrItemNotFound = errors.New("question item not found")
	ErrLocked       = errors.New("paper already confirmed")
)

// SetAnswers replaces the alternatives of one item. Nothing is written
// unless ValidateAnswers reports no problems.
func SetAnswers(p *Paper, number string, alts []Alternative) error {
	if p.Status == StatusConfirmed {
		return ErrLocked
	}
	n, ok := findNode(p.Questions, number)
	if !ok {
		return ErrItemNotFound
	}
	if problems := ValidateAnswers(*n.marks, alts); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	*n.correctAnswers = append([]Alternative(nil), alts...)
	return nil
}

// AttachFile records a stored attachment key on one item.
func AttachFile(p *Paper, number, key string) error {
	if p.Status == StatusConfirmed {
		return ErrLocked
	}
	n, ok := findNode(p.Questions, number)
	if !ok {
		return ErrItemNotFound
	}
	*n.attachments = append(*n.attachments, key)
	return nil
}

func clonePaper(p Paper) Paper {
	buf, err := json.Marshal(p)
	if err != nil {
		return p
	}
	var out Paper
	if err := json.Unmarshal(buf, &out); err != nil {
		return p
	}
	return out
}
