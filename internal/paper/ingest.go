package paper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNoQuestions = errors.New("paper: document has no questions")

// Document is an uploaded paper after ingestion: the loose header fields
// (left for metadata extraction) and the normalized question tree.
type Document struct {
	Header    Header
	Questions []Question
}

// Header holds the loose top-level fields of an uploaded document.
type Header map[string]any

// String returns the first non-empty value among keys.
func (h Header) String(keys ...string) string { return firstString(h, keys...) }

// Float returns the first non-zero numeric value among keys.
func (h Header) Float(keys ...string) float64 {
	for _, k := range keys {
		if f := asFloat(h[k]); f != 0 {
			return f
		}
	}
	return 0
}

func (h Header) Int(keys ...string) int { return int(h.Float(keys...)) }

// headerKeys are nested objects whose fields are lifted into the header.
var headerKeys = []string{"paper_metadata", "metadata", "exam_info", "paper_info"}

// Ingest decodes an uploaded past-paper document. Every shape variant the
// extractors produce is folded here, once, so nothing downstream has to
// look for fallbacks:
//
//   - correct_answer (single) or correct_answers (list), strings or objects
//   - marks as numbers or strings ("4", "4 marks")
//   - question_number / number / id for the question label
//   - attachments as strings or {file_url|url|key|file_name} objects
//   - missing alternative ids, assigned by position, skipping ids the
//     list already uses
//   - missing question numbers and part labels, assigned by position,
//     skipping values given explicitly
//
// Repeated question numbers, sibling part labels or flattened item numbers
// are rejected, since items are addressed by number.
func Ingest(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var top map[string]any
	if err := dec.Decode(&top); err != nil {
		return Document{}, fmt.Errorf("paper: decode: %w", err)
	}

	header := Header{}
	for k, v := range top {
		if k != "questions" {
			header[k] = v
		}
	}
	for _, hk := range headerKeys {
		nested, ok := top[hk].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range nested {
			if _, exists := header[k]; !exists {
				header[k] = v
			}
		}
	}

	list, _ := top["questions"].([]any)
	if len(list) == 0 {
		return Document{}, ErrNoQuestions
	}
	objs := make([]map[string]any, 0, len(list))
	taken := map[string]bool{}
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return Document{}, fmt.Errorf("paper: question %d is not an object", i+1)
		}
		if n := questionNumber(m); n != "" {
			if taken[n] {
				return Document{}, fmt.Errorf("paper: duplicate question number %q", n)
			}
			taken[n] = true
		}
		objs = append(objs, m)
	}

	questions := make([]Question, 0, len(objs))
	for i, m := range objs {
		q, err := questionFrom(m, i, taken)
		if err != nil {
			return Document{}, err
		}
		questions = append(questions, q)
	}
	if err := uniqueItems(questions); err != nil {
		return Document{}, err
	}
	return Document{Header: header, Questions: questions}, nil
}

func questionNumber(m map[string]any) string {
	return firstString(m, "question_number", "number", "id")
}

// uniqueItems catches collisions across levels, e.g. a question numbered
// "2(a)" next to part (a) of question 2.
func uniqueItems(questions []Question) error {
	seen := map[string]bool{}
	for _, it := range Flatten(questions) {
		if seen[it.Number] {
			return fmt.Errorf("paper: duplicate item number %q", it.Number)
		}
		seen[it.Number] = true
	}
	return nil
}

func questionFrom(m map[string]any, idx int, taken map[string]bool) (Question, error) {
	q := Question{
		Number:            questionNumber(m),
		ID:                asString(m["id"]),
		Type:              strings.ToLower(firstString(m, "type", "question_type")),
		Description:       firstString(m, "question_description", "question_text", "description", "text"),
		Topic:             asString(m["topic"]),
		Subtopic:          asString(m["subtopic"]),
		Difficulty:        asString(m["difficulty"]),
		Marks:             asFloat(m["marks"]),
		AnswerFormat:      asString(m["answer_format"]),
		AnswerRequirement: asString(m["answer_requirement"]),
		Options:           optionsFrom(m["options"]),
		Attachments:       stringList(m["attachments"]),
		FigureRequired:    firstBool(m, "figure", "figure_required", "requires_figure"),
		Hint:              asString(m["hint"]),
		Explanation:       asString(m["explanation"]),
	}
	if q.Number == "" {
		n := idx + 1
		for taken[strconv.Itoa(n)] {
			n++
		}
		q.Number = strconv.Itoa(n)
		taken[q.Number] = true
	}
	q.CorrectAnswers = alternativesFrom(m, q.Marks)
	parts, err := partsFrom(listOf(m["parts"]), q.Number)
	if err != nil {
		return Question{}, err
	}
	q.Parts = parts
	return q, nil
}

func partLabel(m map[string]any) string {
	return firstString(m, "part", "subpart", "label")
}

// partsFrom reads one sibling group; path is the display number of the
// parent, used in errors.
func partsFrom(list []map[string]any, path string) ([]Part, error) {
	taken := map[string]bool{}
	for _, m := range list {
		if l := trimLabel(partLabel(m)); l != "" {
			if taken[l] {
				return nil, fmt.Errorf("paper: question %s: duplicate part label %q", path, l)
			}
			taken[l] = true
		}
	}
	var out []Part
	for i, m := range list {
		p, err := partFrom(m, i, taken, path)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// defaultLabel yields a..z, then aa..zz, and so on.
func defaultLabel(n int) string {
	return strings.Repeat(string(rune('a'+n%26)), n/26+1)
}

func partFrom(m map[string]any, idx int, taken map[string]bool, path string) (Part, error) {
	p := Part{
		Label:             partLabel(m),
		Description:       firstString(m, "question_description", "question_text", "description", "text"),
		Type:              strings.ToLower(firstString(m, "type", "question_type")),
		Marks:             asFloat(m["marks"]),
		AnswerFormat:      asString(m["answer_format"]),
		AnswerRequirement: asString(m["answer_requirement"]),
		Options:           optionsFrom(m["options"]),
		Attachments:       stringList(m["attachments"]),
		FigureRequired:    firstBool(m, "figure", "figure_required", "requires_figure"),
		Hint:              asString(m["hint"]),
		Explanation:       asString(m["explanation"]),
	}
	if trimLabel(p.Label) == "" {
		n := idx
		for taken[defaultLabel(n)] {
			n++
		}
		p.Label = defaultLabel(n)
		taken[p.Label] = true
	}
	p.CorrectAnswers = alternativesFrom(m, p.Marks)
	subparts, err := partsFrom(listOf(m["subparts"]), path+"("+trimLabel(p.Label)+")")
	if err != nil {
		return Part{}, err
	}
	p.Subparts = subparts
	return p, nil
}

// alternativesFrom reads correct_answers, falling back to the legacy single
// correct_answer. A legacy answer without marks carries the item's marks.
// Every listed alternative is kept, blank ones included, so the compliance
// rules see what was uploaded; only JSON nulls are skipped.
func alternativesFrom(m map[string]any, itemMarks float64) []Alternative {
	var raw []any
	legacy := false
	switch v := m["correct_answers"].(type) {
	case []any:
		raw = v
	case nil:
		single, ok := m["correct_answer"]
		if s, isStr := single.(string); ok && single != nil && (!isStr || strings.TrimSpace(s) != "") {
			raw = []any{single}
			legacy = true
		}
	default:
		raw = []any{v}
	}

	used := map[int]bool{}
	for _, el := range raw {
		if v, ok := el.(map[string]any); ok {
			if id := asInt(v["alternative_id"]); id != 0 {
				used[id] = true
			}
		}
	}

	out := make([]Alternative, 0, len(raw))
	for i, el := range raw {
		if el == nil {
			continue
		}
		alt := Alternative{}
		switch v := el.(type) {
		case map[string]any:
			alt.AlternativeID = asInt(v["alternative_id"])
			alt.Answer = firstString(v, "answer", "text", "value")
			alt.Marks = asFloat(v["marks"])
			alt.LinkedAlternatives = intList(v["linked_alternatives"])
			alt.Context = contextFrom(v["context"])
			if _, hasMarks := v["marks"]; !hasMarks && legacy {
				alt.Marks = itemMarks
			}
		default:
			alt.Answer = asString(v)
			if legacy {
				alt.Marks = itemMarks
			}
		}
		if alt.AlternativeID == 0 {
			id := i + 1
			for used[id] {
				id++
			}
			used[id] = true
			alt.AlternativeID = id
		}
		out = append(out, alt)
	}
	return out
}

func contextFrom(v any) *AnswerContext {
	switch c := v.(type) {
	case map[string]any:
		ctx := &AnswerContext{
			Type:  asString(c["type"]),
			Value: asString(c["value"]),
			Label: asString(c["label"]),
		}
		if *ctx == (AnswerContext{}) {
			return nil
		}
		return ctx
	case string:
		if strings.TrimSpace(c) == "" {
			return nil
		}
		return &AnswerContext{Value: strings.TrimSpace(c)}
	}
	return nil
}

func optionsFrom(v any) []Option {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Option, 0, len(list))
	for i, el := range list {
		label := string(rune('A' + i%26))
		switch o := el.(type) {
		case map[string]any:
			opt := Option{
				Label:     firstString(o, "label", "option", "letter"),
				Text:      firstString(o, "text", "value"),
				IsCorrect: firstBool(o, "is_correct", "correct"),
			}
			if opt.Label == "" {
				opt.Label = label
			}
			out = append(out, opt)
		default:
			out = append(out, Option{Label: label, Text: asString(o)})
		}
	}
	return out
}

// ---- loose value helpers ----

func listOf(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch b := m[k].(type) {
		case bool:
			if b {
				return true
			}
		case string:
			if v, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil && v {
				return true
			}
		}
	}
	return false
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		if fs := strings.Fields(s); len(fs) > 0 {
			if f, err := strconv.ParseFloat(fs[0], 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func asInt(v any) int { return int(asFloat(v)) }

func intList(v any) []int {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, el := range list {
		out = append(out, asInt(el))
	}
	return out
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			var s string
			if m, ok := el.(map[string]any); ok {
				s = firstString(m, "file_url", "url", "key", "file_name", "name")
			} else {
				s = asString(el)
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
