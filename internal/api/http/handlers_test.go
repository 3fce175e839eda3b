package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/paperdesk/internal/audit"
	auth "github.com/mind-engage/paperdesk/internal/auth/middleware"
	"github.com/mind-engage/paperdesk/internal/catalog"
	"github.com/mind-engage/paperdesk/internal/compliance"
	"github.com/mind-engage/paperdesk/internal/config"
	"github.com/mind-engage/paperdesk/internal/paper"
	"github.com/mind-engage/paperdesk/internal/rbac"
	"github.com/mind-engage/paperdesk/internal/storage"
)

const samplePaper = `{
  "paper_metadata": {
    "exam_board": "cambridge assessment",
    "qualification": "IGCSE",
    "subject": "Computer Science",
    "paper_code": "0478/12/M/J/23"
  },
  "questions": [
    {"question_number": "1", "type": "mcq", "question_description": "Which of these is an input device?", "marks": 1,
     "options": [{"label": "A", "text": "Keyboard"}, {"label": "B", "text": "Monitor"}],
     "correct_answers": [{"alternative_id": 1, "answer": "A", "marks": 1}]},
    {"question_number": "2", "type": "descriptive", "question_description": "A school network is set up as a star.", "marks": 4,
     "parts": [
       {"part": "a", "question_description": "Name the topology shown in the diagram.", "marks": 1,
        "correct_answers": [{"answer": "star", "marks": 1}]},
       {"part": "b", "question_description": "Give two benefits of this topology.", "marks": 3,
        "correct_answers": [{"alternative_id": 1, "answer": "fault isolation", "marks": 2},
                            {"alternative_id": 2, "answer": "easy to add devices", "marks": 1}]}
     ]}
  ]
}`

var cieEntry = catalog.Entry{
	ID:       "ds-1",
	Region:   catalog.Ref{ID: "r-intl", Name: "International"},
	Program:  catalog.Ref{ID: "prog-igcse", Name: "IGCSE"},
	Provider: catalog.Ref{ID: "prov-cie", Name: "Cambridge International (CIE)"},
	Subject:  catalog.SubjectRef{ID: "sub-cs", Name: "Computer Science", Code: "0478"},
}

type account struct{ password, role string }

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]account
}

func (f *fakeUsers) Authenticate(_ context.Context, u, p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.users[u]
	if !ok || a.password != p {
		return "", auth.ErrInvalidCredentials
	}
	return a.role, nil
}

func (f *fakeUsers) Role(_ context.Context, u string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.users[u]
	if !ok {
		return "", sql.ErrNoRows
	}
	return a.role, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u, p, role string) error {
	if !rbac.ValidRole(role) {
		return auth.ErrUnknownRole
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u] = account{p, role}
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeEvents) Append(_ context.Context, typ, key, actor string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, audit.Event{Seq: int64(len(f.events) + 1), Type: typ, Key: key, Actor: actor})
	return nil
}

func (f *fakeEvents) Search(_ context.Context, q audit.Query) ([]audit.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.Event
	for _, e := range f.events {
		if q.Type == "" || e.Type == q.Type {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type failingCatalog struct{ catalog.Store }

func (failingCatalog) ListEntries(context.Context) ([]catalog.Entry, error) {
	return nil, errors.New("connection refused")
}

type testEnv struct {
	srv    *httptest.Server
	events *fakeEvents
	tokens map[string]string
}

func newEnv(t *testing.T, cat catalog.Store) *testEnv {
	t.Helper()
	tables, err := config.LoadTables("")
	require.NoError(t, err)
	x, err := tables.Extractor()
	require.NoError(t, err)
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]account{
		"ada":  {"admin-pass", rbac.RoleAdmin},
		"ed":   {"editor-pass", rbac.RoleEditor},
		"vera": {"viewer-pass", rbac.RoleViewer},
	}}
	events := &fakeEvents{}
	s := &Server{
		Auth:  auth.NewAuthService("test-secret"),
		Users: users,
		Papers: &PaperAPI{
			Store:     paper.NewInMemoryStore(),
			Catalog:   cat,
			Extractor: x,
			Resolver:  tables.Resolver(),
			Engine:    compliance.NewEngine(compliance.DefaultRules(compliance.Settings{}, tables.Compliance())),
			Blobs:     blobs,
			Events:    events,
		},
		Events: events,
	}
	r := chi.NewRouter()
	s.Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	env := &testEnv{srv: srv, events: events, tokens: map[string]string{}}
	for name, a := range users.users {
		env.tokens[name] = env.login(t, name, a.password)
	}
	return env
}

func (e *testEnv) login(t *testing.T, user, pass string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": user, "password": pass})
	res, err := http.Post(e.srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out.AccessToken
}

func (e *testEnv) do(t *testing.T, user, method, path, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[user])
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, b
}

func (e *testEnv) json(t *testing.T, user, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	return e.do(t, user, method, path, "application/json", rd)
}

func (e *testEnv) importSample(t *testing.T) importResponse {
	t.Helper()
	res, body := e.json(t, "ed", http.MethodPost, "/papers/import", samplePaper)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var out importResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))

	res, _ := env.json(t, "", http.MethodGet, "/papers", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = env.json(t, "vera", http.MethodPost, "/papers/import", samplePaper)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = env.json(t, "ed", http.MethodGet, "/admin/audit", "")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = env.json(t, "", http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestImport_ExtractsAndMatches(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	out := env.importSample(t)

	md := out.Paper.Metadata
	assert.Equal(t, "Cambridge International (CIE)", md.ExamBoard)
	assert.Equal(t, "0478", md.SubjectCode)
	assert.Equal(t, 1, md.PaperNumber)
	assert.Equal(t, 2, md.Variant)
	assert.Equal(t, 2023, md.Year)
	assert.Equal(t, paper.StatusDraft, out.Paper.Status)

	require.NotNil(t, out.Match)
	require.True(t, out.Match.Matched())
	assert.Equal(t, "ds-1", *out.Match.DataStructureID)
	assert.Equal(t, 1.0, out.Match.Confidence)
	assert.Empty(t, out.Match.Suggestions)

	assert.Equal(t, 3, out.Compliance.TotalQuestions)
	assert.Equal(t, 1, out.Compliance.Errors, "2(a) refers to a diagram without an attachment")
	assert.Contains(t, env.events.types(), audit.PaperImported)
}

func TestImport_CatalogOutageStillImports(t *testing.T) {
	env := newEnv(t, failingCatalog{catalog.NewMemoryStore()})
	out := env.importSample(t)
	assert.Nil(t, out.Match)
	assert.Contains(t, out.CatalogError, "connection refused")

	res, _ := env.json(t, "ed", http.MethodPost, "/resolve", `{"metadata":{"subject_code":"0478"}}`)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestImport_Rejects(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	res, _ := env.json(t, "ed", http.MethodPost, "/papers/import", `{"questions": []}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, _ = env.json(t, "ed", http.MethodPost, "/papers/import", `not json`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, body := env.json(t, "ed", http.MethodPost, "/papers/import", `{"questions": [{"number": "2"}, {"number": "2"}]}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(body), "duplicate question number")
}

func TestResolve_NoMatchIsNotAnError(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	res, body := env.json(t, "vera", http.MethodPost, "/resolve", `{"metadata":{"exam_board":"Edexcel","subject":"History"}}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out struct {
		Match struct {
			DataStructureID *string  `json:"dataStructureId"`
			Confidence      float64  `json:"confidence"`
			Suggestions     []string `json:"suggestions"`
		} `json:"match"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Nil(t, out.Match.DataStructureID)
	assert.Zero(t, out.Match.Confidence)
	require.Len(t, out.Match.Suggestions, 1)
	assert.Contains(t, out.Match.Suggestions[0], "create a new one")
}

func TestSaveAnswers_ValidationBlocksSave(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	id := env.importSample(t).Paper.ID

	bad := `{"correct_answers":[
		{"alternative_id":1,"answer":"x","marks":2},
		{"alternative_id":1,"answer":"y","marks":2,"linked_alternatives":[9]}]}`
	res, body := env.json(t, "ed", http.MethodPut, "/papers/"+id+"/items/2(b)/answers", bad)
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	var ve struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &ve))
	assert.Len(t, ve.Errors, 3)

	_, body = env.json(t, "ed", http.MethodGet, "/papers/"+id, "")
	assert.Contains(t, string(body), "fault isolation", "rejected save leaves the paper untouched")

	good := `{"correct_answers":[{"alternative_id":1,"answer":"cheaper cabling","marks":3}]}`
	res, body = env.json(t, "ed", http.MethodPut, "/papers/"+id+"/items/2(b)/answers", good)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Contains(t, string(body), "cheaper cabling")

	res, _ = env.json(t, "ed", http.MethodPut, "/papers/"+id+"/items/9/answers", good)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestConfirmFlow(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	id := env.importSample(t).Paper.ID

	res, _ := env.json(t, "ed", http.MethodPost, "/papers/"+id+"/confirm", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode, "no data structure yet")

	res, body := env.json(t, "ed", http.MethodPut, "/papers/"+id+"/match", `{"auto":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	res, body = env.json(t, "ed", http.MethodPost, "/papers/"+id+"/confirm", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, string(body), "blocking")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "network.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())
	res, body = env.do(t, "ed", http.MethodPost, "/papers/"+id+"/items/2(a)/attachments", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var up struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(body, &up))
	assert.Regexp(t, `^papers/`+id+`/2\(a\)/[0-9a-f-]{36}\.png$`, up.Key)

	res, body = env.do(t, "vera", http.MethodGet, up.URL, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	assert.Equal(t, "\x89PNG fake", string(body))

	res, body = env.json(t, "ed", http.MethodPost, "/papers/"+id+"/confirm", "")
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var p paper.Paper
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, paper.StatusConfirmed, p.Status)

	res, _ = env.json(t, "ed", http.MethodPut, "/papers/"+id+"/items/1/answers", `{"correct_answers":[{"alternative_id":1,"answer":"B","marks":1}]}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode, "confirmed papers are locked")

	assert.Subset(t, env.events.types(), []string{audit.MatchSelected, audit.FileAttached, audit.PaperConfirmed})

	res, body = env.json(t, "ada", http.MethodGet, "/admin/audit?type="+audit.PaperConfirmed, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), id)
}

func TestSetMatch_UnknownDataStructure(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	id := env.importSample(t).Paper.ID
	res, _ := env.json(t, "ed", http.MethodPut, "/papers/"+id+"/match", `{"data_structure_id":"ds-404"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = env.json(t, "ed", http.MethodPut, "/papers/"+id+"/match", `{}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestComplianceEndpoints(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore(cieEntry))
	id := env.importSample(t).Paper.ID

	res, body := env.json(t, "vera", http.MethodGet, "/papers/"+id+"/compliance?category=content", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out struct {
		Summary  compliance.Summary `json:"summary"`
		Blocking int                `json:"blocking"`
		Details  compliance.Report  `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 1, out.Blocking)
	assert.Equal(t, 3, out.Summary.TotalQuestions)
	assert.Contains(t, out.Details, "2(a)")

	res, body = env.json(t, "vera", http.MethodGet, "/papers/"+id+"/compliance/export", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment;")
	var export map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &export))
	assert.Contains(t, export, "summary")
	assert.Contains(t, export, "details")
	assert.Contains(t, export, "timestamp")

	res, body = env.json(t, "vera", http.MethodPost, "/compliance/check?rules=mark-distribution,alternative-linking", samplePaper)
	require.Equal(t, http.StatusOK, res.StatusCode)
	out.Details = nil
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 0, out.Blocking)
	assert.Equal(t, 2, out.Details["1"].TotalRules)
	assert.Equal(t, 100, out.Details["1"].Score)
}

func TestCatalogAndUsersAdmin(t *testing.T) {
	env := newEnv(t, catalog.NewMemoryStore())

	entry, _ := json.Marshal(cieEntry)
	res, _ := env.json(t, "ed", http.MethodPost, "/catalog", string(entry))
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = env.json(t, "ada", http.MethodPost, "/catalog", string(entry))
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	res, _ = env.json(t, "ada", http.MethodPost, "/catalog", `{"id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body := env.json(t, "vera", http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "ds-1")

	res, _ = env.json(t, "ada", http.MethodPost, "/admin/users", `{"username":"tom","password":"long-password","role":"proctor"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res, _ = env.json(t, "ada", http.MethodPost, "/admin/users", `{"username":"tom","password":"long-password","role":"viewer"}`)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}
