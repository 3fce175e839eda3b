package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/paperdesk/internal/audit"
	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/compliance"
	"github.com/mind-engage/paperdesk/internal/paper"
	"github.com/mind-engage/paperdesk/internal/resolve"
	"github.com/mind-engage/paperdesk/internal/storage"
)

// PaperAPI serves the import, review and confirm flow for past papers.
type PaperAPI struct {
	Store     paper.Store
	Catalog   catalog.Store
	Extractor *resolve.Extractor
	Resolver  *resolve.Resolver
	Engine    *compliance.Engine
	Blobs     storage.BlobStore
	Events    EventAppender
}

type importResponse struct {
	Paper        paper.Paper          `json:"paper"`
	Match        *resolve.MatchResult `json:"match"`
	CatalogError string               `json:"catalogError,omitempty"`
	Compliance   compliance.Summary   `json:"compliance"`
}

// POST /papers/import  body: paper JSON, or multipart with a "file" field.
func (a *PaperAPI) Import() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readUpload(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		doc, err := paper.Ingest(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p := paper.Paper{
			ID:            uuid.NewString(),
			SchemaVersion: paper.SchemaVersion,
			Metadata:      a.Extractor.Extract(doc.Header),
			Questions:     doc.Questions,
			Status:        paper.StatusDraft,
			CreatedAt:     time.Now().Unix(),
		}
		if err := a.Store.PutPaper(r.Context(), p); err != nil {
			respondError(w, err)
			return
		}
		record(r, a.Events, audit.PaperImported, p.ID, map[string]any{
			"title":     p.Metadata.Title,
			"questions": len(p.Questions),
		})

		resp := importResponse{
			Paper:      p,
			Compliance: compliance.Summarize(a.Engine.Evaluate(paper.Flatten(p.Questions))),
		}
		// a catalog outage does not fail the import; matching waits for a retry
		if m, err := a.Resolver.MatchFrom(r.Context(), a.Catalog, p.Metadata); err != nil {
			resp.CatalogError = err.Error()
		} else {
			resp.Match = &m
		}
		respondJSON(w, http.StatusCreated, resp)
	}
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("file required")
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(r.Body)
}

// GET /papers?q=&status=&limit=&offset=
func (a *PaperAPI) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := a.Store.ListPapers(r.Context(), paper.ListOpts{
			Q:      strings.TrimSpace(q.Get("q")),
			Status: paper.Status(q.Get("status")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /papers/{paperID}
func (a *PaperAPI) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Store.GetPaper(r.Context(), chi.URLParam(r, "paperID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"paper": p,
			"items": paper.Flatten(p.Questions),
		})
	}
}

// PATCH /papers/{paperID}/metadata  merges the given fields, then maps them
// through the dictionaries again.
func (a *PaperAPI) UpdateMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "paperID")
		p, err := a.Store.GetPaper(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		md := p.Metadata
		if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err = a.Store.UpdateMetadata(r.Context(), id, a.Extractor.Canonicalize(md))
		if err != nil {
			respondError(w, err)
			return
		}
		record(r, a.Events, audit.MetadataEdited, id, p.Metadata)
		respondJSON(w, http.StatusOK, p)
	}
}

// GET /papers/{paperID}/match  runs the resolver without saving.
func (a *PaperAPI) SuggestMatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Store.GetPaper(r.Context(), chi.URLParam(r, "paperID"))
		if err != nil {
			respondError(w, err)
			return
		}
		m, err := a.Resolver.MatchFrom(r.Context(), a.Catalog, p.Metadata)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		respondJSON(w, http.StatusOK, m)
	}
}

// PUT /papers/{paperID}/match  { "data_structure_id": "..." } or { "auto": true }
func (a *PaperAPI) SetMatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "paperID")
		var req struct {
			DataStructureID string `json:"data_structure_id"`
			Auto            bool   `json:"auto"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		var match *resolve.MatchResult
		if req.Auto {
			p, err := a.Store.GetPaper(r.Context(), id)
			if err != nil {
				respondError(w, err)
				return
			}
			m, err := a.Resolver.MatchFrom(r.Context(), a.Catalog, p.Metadata)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			if !m.Matched() {
				respondJSON(w, http.StatusUnprocessableEntity, m)
				return
			}
			req.DataStructureID, match = *m.DataStructureID, &m
		}
		if req.DataStructureID == "" {
			http.Error(w, "data_structure_id required", http.StatusBadRequest)
			return
		}
		if _, err := a.Catalog.GetEntry(r.Context(), req.DataStructureID); err != nil {
			respondError(w, err)
			return
		}

		p, err := a.Store.SetMatch(r.Context(), id, req.DataStructureID)
		if err != nil {
			respondError(w, err)
			return
		}
		ev := map[string]any{"data_structure_id": req.DataStructureID, "auto": req.Auto}
		if match != nil {
			ev["confidence"] = match.Confidence
		}
		record(r, a.Events, audit.MatchSelected, id, ev)
		respondJSON(w, http.StatusOK, map[string]any{"paper": p, "match": match})
	}
}

// PUT /papers/{paperID}/items/{number}/answers  { "correct_answers": [...] }
// Nothing is saved while the alternatives fail validation; the response
// then lists every problem.
func (a *PaperAPI) SaveAnswers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, number := chi.URLParam(r, "paperID"), itemNumber(r)
		var req struct {
			CorrectAnswers []paper.Alternative `json:"correct_answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err := a.Store.SaveAnswers(r.Context(), id, number, req.CorrectAnswers)
		if err != nil {
			respondError(w, err)
			return
		}
		record(r, a.Events, audit.AnswersSaved, id, map[string]any{
			"item":         number,
			"alternatives": len(req.CorrectAnswers),
		})
		respondJSON(w, http.StatusOK, p)
	}
}

// POST /papers/{paperID}/items/{number}/attachments  multipart "file"
func (a *PaperAPI) UploadAttachment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, number := chi.URLParam(r, "paperID"), itemNumber(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		// the paper must exist and be editable before the blob is written
		p, err := a.Store.GetPaper(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if p.Status == paper.StatusConfirmed {
			respondError(w, paper.ErrLocked)
			return
		}

		key, err := a.Blobs.Put(storage.AttachmentKey(id, number, hdr.Filename), f)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := a.Store.AddAttachment(r.Context(), id, number, key); err != nil {
			_ = a.Blobs.Delete(key)
			respondError(w, err)
			return
		}
		record(r, a.Events, audit.FileAttached, id, map[string]string{"item": number, "key": key})
		respondJSON(w, http.StatusCreated, map[string]string{"key": key, "url": "/assets/" + key})
	}
}

func filterOpts(r *http.Request) compliance.FilterOpts {
	q := r.URL.Query()
	return compliance.FilterOpts{
		Category: compliance.Category(q.Get("category")),
		Status:   q.Get("status"),
		Query:    q.Get("q"),
	}
}

// POST /compliance/check?rules=a,b  body: paper JSON. Stateless.
func CheckComplianceHandler(engine *compliance.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readUpload(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		doc, err := paper.Ingest(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rep := engine.Evaluate(paper.Flatten(doc.Questions), csvParam(r, "rules")...)
		respondJSON(w, http.StatusOK, map[string]any{
			"summary":  compliance.Summarize(rep),
			"blocking": rep.Blocking(),
			"details":  compliance.Filter(rep, filterOpts(r)),
		})
	}
}

// GET /compliance/rules
func ListRulesHandler(engine *compliance.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, engine.Rules())
	}
}

func (a *PaperAPI) evaluate(r *http.Request) (paper.Paper, compliance.Report, error) {
	p, err := a.Store.GetPaper(r.Context(), chi.URLParam(r, "paperID"))
	if err != nil {
		return paper.Paper{}, nil, err
	}
	return p, a.Engine.Evaluate(paper.Flatten(p.Questions), csvParam(r, "rules")...), nil
}

// GET /papers/{paperID}/compliance?rules=&category=&status=&q=
// The summary always covers the whole paper; filters narrow details only.
func (a *PaperAPI) Compliance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, rep, err := a.evaluate(r)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"summary":  compliance.Summarize(rep),
			"blocking": rep.Blocking(),
			"details":  compliance.Filter(rep, filterOpts(r)),
		})
	}
}

// GET /papers/{paperID}/compliance/export  downloadable {summary, details, timestamp}
func (a *PaperAPI) ExportCompliance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, rep, err := a.evaluate(r)
		if err != nil {
			respondError(w, err)
			return
		}
		now := time.Now()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(p.ID, now)+`"`)
		_, _ = compliance.NewExport(rep, now).WriteTo(w)
	}
}

func exportName(id string, t time.Time) string {
	return "compliance-report-" + id + "-" + t.UTC().Format("2006-01-02") + ".json"
}

// POST /papers/{paperID}/confirm  409 while no data structure is selected
// or any required rule fails.
func (a *PaperAPI) Confirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "paperID")
		p, err := a.Store.GetPaper(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if p.Status == paper.StatusConfirmed {
			respondJSON(w, http.StatusOK, p)
			return
		}
		if p.DataStructureID == "" {
			respondJSON(w, http.StatusConflict, map[string]string{"error": "no data structure selected"})
			return
		}
		rep := a.Engine.Evaluate(paper.Flatten(p.Questions))
		if n := rep.Blocking(); n > 0 {
			respondJSON(w, http.StatusConflict, map[string]any{
				"error":    "paper has blocking compliance errors",
				"blocking": n,
				"summary":  compliance.Summarize(rep),
			})
			return
		}
		p, err = a.Store.SetStatus(r.Context(), id, paper.StatusConfirmed)
		if err != nil {
			respondError(w, err)
			return
		}
		sum := compliance.Summarize(rep)
		record(r, a.Events, audit.PaperConfirmed, id, map[string]any{"averageScore": sum.AverageScore})
		respondJSON(w, http.StatusOK, p)
	}
}
