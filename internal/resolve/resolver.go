package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/paper"
)

// MatchResult is the resolver's verdict for one paper. A nil
// DataStructureID with zero confidence is the normal no-match outcome.
type MatchResult struct {
	DataStructureID *string  `json:"dataStructureId"`
	RegionID        *string  `json:"regionId"`
	ProgramID       *string  `json:"programId,omitempty"`
	ProviderID      *string  `json:"providerId,omitempty"`
	SubjectID       *string  `json:"subjectId,omitempty"`
	Confidence      float64  `json:"confidence"`
	MatchedOn       []string `json:"matchedOn"`
	Suggestions     []string `json:"suggestions"`
}

func (r MatchResult) Matched() bool { return r.DataStructureID != nil }

type Resolver struct {
	t Thresholds
}

func NewResolver(t Thresholds) *Resolver { return &Resolver{t: t.withDefaults()} }

type scored struct {
	entry       catalog.Entry
	score       float64
	matchedOn   []string
	codeMatched bool
}

// Match scores every entry and keeps the single best one:
//
//	subject code equal           +SubjectCodeWeight
//	else subject name sim > 0.7  +SubjectNameWeight*sim
//	provider sim > 0.8           +ProviderWeight*sim
//	program sim > 0.8            +ProgramWeight*sim
//
// Each gate is a hard cliff: similarity under the cutoff adds nothing.
func (r *Resolver) Match(meta paper.Metadata, entries []catalog.Entry) MatchResult {
	var best *scored
	for _, e := range entries {
		s := r.score(meta, e)
		if best == nil || s.score > best.score {
			best = &s
		}
	}

	if best == nil || best.score <= r.t.Accept {
		return MatchResult{
			MatchedOn:   []string{},
			Suggestions: []string{noMatchSuggestion(meta)},
		}
	}

	e := best.entry
	res := MatchResult{
		DataStructureID: ptr(e.ID),
		RegionID:        ptr(e.Region.ID),
		ProgramID:       ptr(e.Program.ID),
		ProviderID:      ptr(e.Provider.ID),
		SubjectID:       ptr(e.Subject.ID),
		Confidence:      best.score,
		MatchedOn:       best.matchedOn,
		Suggestions:     []string{},
	}
	if best.score < r.t.Good {
		if meta.SubjectCode != "" && !best.codeMatched {
			res.Suggestions = append(res.Suggestions, fmt.Sprintf("subject code mismatch: paper has %q, data structure has %q",
				meta.SubjectCode, e.Subject.Code))
		}
		res.Suggestions = append(res.Suggestions, fmt.Sprintf("confidence %.0f%% is low; review the match or consider creating a new data structure",
			best.score*100))
	}
	return res
}

func (r *Resolver) score(meta paper.Metadata, e catalog.Entry) scored {
	s := scored{entry: e, matchedOn: []string{}}

	if code := Normalize(meta.SubjectCode); code != "" && code == Normalize(e.Subject.Code) {
		s.score += r.t.SubjectCodeWeight
		s.codeMatched = true
		s.matchedOn = append(s.matchedOn, "subject code "+e.Subject.Code)
	} else if sim := fieldSimilarity(meta.Subject, e.Subject.Name); sim > r.t.SubjectNameMatch {
		s.score += r.t.SubjectNameWeight * sim
		s.matchedOn = append(s.matchedOn, fmt.Sprintf("subject name %q (%.0f%%)", e.Subject.Name, sim*100))
	}

	if sim := fieldSimilarity(meta.ExamBoard, e.Provider.Name); sim > r.t.ProviderMatch {
		s.score += r.t.ProviderWeight * sim
		s.matchedOn = append(s.matchedOn, fmt.Sprintf("provider %q (%.0f%%)", e.Provider.Name, sim*100))
	}
	if sim := fieldSimilarity(meta.Qualification, e.Program.Name); sim > r.t.ProgramMatch {
		s.score += r.t.ProgramWeight * sim
		s.matchedOn = append(s.matchedOn, fmt.Sprintf("program %q (%.0f%%)", e.Program.Name, sim*100))
	}

	if s.score > 1 {
		s.score = 1
	}
	return s
}

// fieldSimilarity is Similarity with empty fields on either side scoring 0,
// so a missing value never matches.
func fieldSimilarity(a, b string) float64 {
	if Normalize(a) == "" || Normalize(b) == "" {
		return 0
	}
	return Similarity(a, b)
}

func noMatchSuggestion(meta paper.Metadata) string {
	fields := make([]string, 0, 3)
	for _, f := range []string{meta.ExamBoard, meta.Qualification, meta.Subject} {
		if strings.TrimSpace(f) != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return "no matching data structure; create a new one"
	}
	return "no matching data structure; create a new one for " + strings.Join(fields, " / ")
}

// Lister is the slice of catalog.Store the resolver needs.
type Lister interface {
	ListEntries(ctx context.Context) ([]catalog.Entry, error)
}

// MatchFrom fetches the catalog and matches against it. No matching runs
// when the fetch fails.
func (r *Resolver) MatchFrom(ctx context.Context, l Lister, meta paper.Metadata) (MatchResult, error) {
	entries, err := l.ListEntries(ctx)
	if err != nil {
		return MatchResult{}, fmt.Errorf("load catalog: %w", err)
	}
	return r.Match(meta, entries), nil
}

func ptr(s string) *string { return &s }
