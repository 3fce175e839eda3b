package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/paperdesk/internal/paper"
)

// DefaultPaperCodePattern matches codes such as "0452/12/M/J/23" or "9702/42".
const DefaultPaperCodePattern = `^(?P<subject>\d{4})\s*[/-]\s*(?P<paper>\d)(?P<variant>\d)?(?:\s*[/-]\s*(?P<session>[A-Za-z]\s*/\s*[A-Za-z])\s*[/-]\s*(?P<year>\d{2,4}))?`

// PaperType is one entry of the paper-type keyword table. Entries are tried
// in order, so more specific phrases go first.
type PaperType struct {
	Type     string   `yaml:"type" json:"type"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Extractor turns the loose header of an uploaded document into Metadata.
type Extractor struct {
	Providers  Dictionary
	Programs   Dictionary
	Sessions   Dictionary
	PaperTypes []PaperType
	Thresholds Thresholds

	paperCode *regexp.Regexp
}

// NewExtractor compiles the paper-code pattern; an empty pattern uses
// DefaultPaperCodePattern. The pattern may name the groups subject, paper,
// variant, session and year.
func NewExtractor(providers, programs, sessions Dictionary, types []PaperType, pattern string, t Thresholds) (*Extractor, error) {
	if pattern == "" {
		pattern = DefaultPaperCodePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("paper code pattern: %w", err)
	}
	return &Extractor{
		Providers:  providers,
		Programs:   programs,
		Sessions:   sessions,
		PaperTypes: types,
		Thresholds: t.withDefaults(),
		paperCode:  re,
	}, nil
}

// Extract reads the header fields, fills gaps from the paper code and maps
// board, qualification and session onto canonical values.
func (x *Extractor) Extract(h paper.Header) paper.Metadata {
	m := paper.Metadata{
		ExamBoard:     h.String("exam_board", "board", "examination_board", "provider"),
		Qualification: h.String("qualification", "program", "programme", "level"),
		Subject:       h.String("subject", "subject_name"),
		SubjectCode:   h.String("subject_code", "syllabus_code"),
		PaperCode:     h.String("paper_code", "component_code", "code"),
		PaperNumber:   h.Int("paper_number", "paper"),
		Variant:       h.Int("variant_number", "variant"),
		Session:       h.String("session", "exam_session", "series"),
		Year:          h.Int("year", "exam_year"),
		Duration:      h.String("duration", "time_allowed"),
		TotalMarks:    h.Float("total_marks", "max_marks", "maximum_marks"),
		PaperType:     h.String("paper_type", "component"),
		Title:         h.String("title", "paper_title", "paper_name"),
	}
	x.applyPaperCode(&m)
	return x.Canonicalize(m)
}

// Canonicalize maps free-text fields through the dictionaries and derives
// the paper type and title. It is also run after a user edits metadata.
func (x *Extractor) Canonicalize(m paper.Metadata) paper.Metadata {
	m.ExamBoard = x.Providers.Lookup(m.ExamBoard, x.Thresholds.ProviderMapping).Value
	m.Qualification = x.Programs.Lookup(m.Qualification, x.Thresholds.ProgramMapping).Value
	m.Session = x.Sessions.Lookup(m.Session, x.Thresholds.SessionMapping).Value
	if t := x.DetectPaperType(m.PaperType + " " + m.Title); t != "" {
		m.PaperType = t
	}
	if m.Title == "" {
		m.Title = DeriveTitle(m)
	}
	return m
}

func (x *Extractor) applyPaperCode(m *paper.Metadata) {
	if m.PaperCode == "" || x.paperCode == nil {
		return
	}
	match := x.paperCode.FindStringSubmatch(strings.TrimSpace(m.PaperCode))
	if match == nil {
		return
	}
	group := func(name string) string {
		if i := x.paperCode.SubexpIndex(name); i > 0 && i < len(match) {
			return strings.TrimSpace(match[i])
		}
		return ""
	}
	if m.SubjectCode == "" {
		m.SubjectCode = group("subject")
	}
	if m.PaperNumber == 0 {
		m.PaperNumber, _ = strconv.Atoi(group("paper"))
	}
	if m.Variant == 0 {
		m.Variant, _ = strconv.Atoi(group("variant"))
	}
	if m.Session == "" {
		m.Session = strings.ToUpper(strings.ReplaceAll(group("session"), " ", ""))
	}
	if m.Year == 0 {
		if y, err := strconv.Atoi(group("year")); err == nil {
			if y < 100 {
				y += 2000
			}
			m.Year = y
		}
	}
}

// DetectPaperType returns the first table type whose keyword occurs in text.
func (x *Extractor) DetectPaperType(text string) string {
	low := strings.ToLower(text)
	for _, pt := range x.PaperTypes {
		for _, kw := range pt.Keywords {
			if kw != "" && strings.Contains(low, strings.ToLower(kw)) {
				return pt.Type
			}
		}
	}
	return ""
}

// DeriveTitle composes "Board Qualification Subject Paper NV Session Year".
func DeriveTitle(m paper.Metadata) string {
	parts := make([]string, 0, 6)
	for _, s := range []string{m.ExamBoard, m.Qualification, m.Subject} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if m.PaperNumber > 0 {
		p := "Paper " + strconv.Itoa(m.PaperNumber)
		if m.Variant > 0 {
			p += strconv.Itoa(m.Variant)
		}
		parts = append(parts, p)
	}
	if s := strings.TrimSpace(m.Session); s != "" {
		parts = append(parts, s)
	}
	if m.Year > 0 {
		parts = append(parts, strconv.Itoa(m.Year))
	}
	return strings.Join(parts, " ")
}
