package paper

// SchemaVersion is stamped on every paper produced by Ingest.
const SchemaVersion = 1

// Metadata is the flat header extracted from an uploaded paper.
type Metadata struct {
	ExamBoard     string  `json:"exam_board,omitempty"`
	Qualification string  `json:"qualification,omitempty"`
	Subject       string  `json:"subject,omitempty"`
	SubjectCode   string  `json:"subject_code,omitempty"`
	PaperCode     string  `json:"paper_code,omitempty"`
	PaperNumber   int     `json:"paper_number,omitempty"`
	Variant       int     `json:"variant_number,omitempty"`
	Session       string  `json:"session,omitempty"`
	Year          int     `json:"year,omitempty"`
	Duration      string  `json:"duration,omitempty"`
	TotalMarks    float64 `json:"total_marks,omitempty"`
	PaperType     string  `json:"paper_type,omitempty"`
	Title         string  `json:"title,omitempty"`
}

type AnswerContext struct {
	Type  string `json:"type,omitempty"`  // unit, option, step, ...
	Value string `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
}

// Alternative is one accepted answer for an answerable item.
type Alternative struct {
	AlternativeID      int            `json:"alternative_id"`
	Answer             string         `json:"answer"`
	Marks              float64        `json:"marks"`
	LinkedAlternatives []int          `json:"linked_alternatives,omitempty"`
	Context            *AnswerContext `json:"context,omitempty"`
}

type Option struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// Part is a question part or subpart; parts nest to any depth.
type Part struct {
	Label             string        `json:"part"`
	Description       string        `json:"question_description,omitempty"`
	Type              string        `json:"type,omitempty"`
	Marks             float64       `json:"marks"`
	AnswerFormat      string        `json:"answer_format,omitempty"`
	AnswerRequirement string        `json:"answer_requirement,omitempty"`
	CorrectAnswers    []Alternative `json:"correct_answers,omitempty"`
	Options           []Option      `json:"options,omitempty"`
	Attachments       []string      `json:"attachments,omitempty"`
	FigureRequired    bool          `json:"figure,omitempty"`
	Hint              string        `json:"hint,omitempty"`
	Explanation       string        `json:"explanation,omitempty"`
	Subparts          []Part        `json:"subparts,omitempty"`
}

type Question struct {
	Number            string        `json:"question_number"`
	ID                string        `json:"id,omitempty"`
	Type              string        `json:"type"` // mcq, descriptive, calculation, ...
	Description       string        `json:"question_description,omitempty"`
	Topic             string        `json:"topic,omitempty"`
	Subtopic          string        `json:"subtopic,omitempty"`
	Difficulty        string        `json:"difficulty,omitempty"`
	Marks             float64       `json:"marks"`
	AnswerFormat      string        `json:"answer_format,omitempty"`
	AnswerRequirement string        `json:"answer_requirement,omitempty"`
	CorrectAnswers    []Alternative `json:"correct_answers,omitempty"`
	Options           []Option      `json:"options,omitempty"`
	Attachments       []string      `json:"attachments,omitempty"`
	FigureRequired    bool          `json:"figure,omitempty"`
	Hint              string        `json:"hint,omitempty"`
	Explanation       string        `json:"explanation,omitempty"`
	Parts             []Part        `json:"parts,omitempty"`
}

// Item is one answerable unit of a paper: a question without parts, or a
// leaf part/subpart. Number carries the display path, e.g. "3(b)(ii)".
type Item struct {
	Number            string        `json:"number"`
	QuestionID        string        `json:"question_id,omitempty"`
	Type              string        `json:"type"`
	Description       string        `json:"question_description"`
	Topic             string        `json:"topic,omitempty"`
	Marks             float64       `json:"marks"`
	AnswerFormat      string        `json:"answer_format,omitempty"`
	AnswerRequirement string        `json:"answer_requirement,omitempty"`
	CorrectAnswers    []Alternative `json:"correct_answers"`
	Options           []Option      `json:"options,omitempty"`
	Attachments       []string      `json:"attachments,omitempty"`
	FigureRequired    bool          `json:"figure,omitempty"`
	Hint              string        `json:"hint,omitempty"`
	Explanation       string        `json:"explanation,omitempty"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
)

type Paper struct {
	ID              string     `json:"id"`
	SchemaVersion   int        `json:"schema_version"`
	Metadata        Metadata   `json:"metadata"`
	Questions       []Question `json:"questions"`
	DataStructureID string     `json:"data_structure_id,omitempty"`
	Status          Status     `json:"status"`
	CreatedAt       int64      `json:"created_at,omitempty"`
	UpdatedAt       int64      `json:"updated_at,omitempty"`
}

// Summary is the list view of a stored paper.
type Summary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Status          Status `json:"status"`
	DataStructureID string `json:"data_structure_id,omitempty"`
	Questions       int    `json:"questions"`
	CreatedAt       int64  `json:"created_at"`
}
