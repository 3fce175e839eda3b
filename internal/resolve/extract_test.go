package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/paperdesk/internal/paper"
)

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	x, err := NewExtractor(
		Dictionary{"cambridge assessment": "Cambridge International (CIE)", "aqa": "AQA"},
		Dictionary{"igcse": "IGCSE", "international gcse": "IGCSE"},
		Dictionary{"may/june": "May/June", "m/j": "May/June"},
		[]PaperType{
			{Type: "mark_scheme", Keywords: []string{"mark scheme"}},
			{Type: "question_paper", Keywords: []string{"question paper"}},
		},
		"", Thresholds{},
	)
	require.NoError(t, err)
	return x
}

func TestExtract_FromPaperCode(t *testing.T) {
	x := testExtractor(t)
	md := x.Extract(paper.Header{
		"exam_board":    "cambridge assessment",
		"qualification": "igcse",
		"subject":       "Computer Science",
		"paper_code":    "0478/12/M/J/23",
	})
	assert.Equal(t, "Cambridge International (CIE)", md.ExamBoard)
	assert.Equal(t, "IGCSE", md.Qualification)
	assert.Equal(t, "0478", md.SubjectCode)
	assert.Equal(t, 1, md.PaperNumber)
	assert.Equal(t, 2, md.Variant)
	assert.Equal(t, "May/June", md.Session)
	assert.Equal(t, 2023, md.Year)
	assert.Equal(t, "Cambridge International (CIE) IGCSE Computer Science Paper 12 May/June 2023", md.Title)
}

func TestExtract_HeaderWins(t *testing.T) {
	x := testExtractor(t)
	md := x.Extract(paper.Header{
		"board":        "Edexcel",
		"paper_code":   "9702/42",
		"paper_number": 3,
		"subject_code": "9702",
		"paper_type":   "Mark Scheme",
		"title":        "Physics summer",
	})
	assert.Equal(t, "Edexcel", md.ExamBoard, "unknown boards pass through")
	assert.Equal(t, 3, md.PaperNumber)
	assert.Equal(t, 2, md.Variant)
	assert.Equal(t, 0, md.Year)
	assert.Equal(t, "mark_scheme", md.PaperType)
	assert.Equal(t, "Physics summer", md.Title)
}

func TestExtract_UnparsableCode(t *testing.T) {
	x := testExtractor(t)
	md := x.Extract(paper.Header{"paper_code": "N/A", "subject": "Biology"})
	assert.Equal(t, "N/A", md.PaperCode)
	assert.Empty(t, md.SubjectCode)
	assert.Equal(t, "Biology", md.Title)
}

func TestNewExtractor_BadPattern(t *testing.T) {
	_, err := NewExtractor(nil, nil, nil, nil, "(", Thresholds{})
	assert.ErrorContains(t, err, "paper code pattern")
}

func TestCanonicalize_AfterEdit(t *testing.T) {
	x := testExtractor(t)
	md := x.Canonicalize(paper.Metadata{ExamBoard: "aqa", Qualification: "International GCSE", Title: "Chemistry question paper"})
	assert.Equal(t, "AQA", md.ExamBoard)
	assert.Equal(t, "IGCSE", md.Qualification)
	assert.Equal(t, "question_paper", md.PaperType)
	assert.Equal(t, "Chemistry question paper", md.Title)
}
