package compliance

import (
	"fmt"

	"github.com/mind-engage/paperdesk/internal/paper"
)

type Category string

const (
	CategoryStructure       Category = "structure"
	CategoryContent         Category = "content"
	CategoryEducational     Category = "educational"
	CategorySubjectSpecific Category = "subject-specific"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Check inspects one item. It returns nil when the item passes, a
// *Violation when it fails, and any other error when the check itself
// could not run.
type Check func(item paper.Item) error

// Violation is a rule failure with a message for the editor.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

func violationf(format string, args ...any) error {
	return &Violation{Message: fmt.Sprintf(format, args...)}
}

type Rule struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	// Required failures are errors and block confirmation; the rest are warnings.
	Required bool `json:"required"`
	// Fixable marks rules the editor offers a one-click fix for.
	Fixable bool  `json:"fixable"`
	Check   Check `json:"-"`
}

func (r Rule) severity() Severity {
	if r.Required {
		return SeverityError
	}
	return SeverityWarning
}
