package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourusername/jobhunt-api/internal/handler"
	"github.com/yourusername/jobhunt-api/internal/model"
	"github.com/yourusername/jobhunt-api/internal/safejson"
	"github.com/yourusername/jobhunt-api/internal/service"
	"github.com/yourusername/jobhunt-api/internal/service/servicetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func str(s string) *string { return &s }

func newRouter(store *servicetest.MemStore, db handler.Pinger) *gin.Engine {
	parser := safejson.New(zerolog.New(io.Discard))
	return handler.NewRouter(handler.RouterDeps{
		Jobs:           service.NewJobService(store, parser, 20, 100),
		Parser:         parser,
		DB:             db,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
	}{
		{"ok", nil, http.StatusOK},
		{"db_down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(servicetest.NewMemStore(), fakePinger{err: tt.pingErr})
			if w := do(r, http.MethodGet, "/health", ""); w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestGetJobRendersCorruptedLists(t *testing.T) {
	store := servicetest.NewMemStore()
	id := store.Seed(model.JobRecord{
		Title:            "Data Engineer",
		Company:          "Acme",
		Requirements:     str("null"),
		Responsibilities: nil,
		Skills:           str(`["Python", "", "React", "  "]`),
		Metadata:         str("{broken"),
	})
	r := newRouter(store, fakePinger{})

	w := do(r, http.MethodGet, "/jobs/"+id.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if want := []any{"Python", "React"}; !reflect.DeepEqual(got["skills"], want) {
		t.Errorf("skills = %v, want %v", got["skills"], want)
	}
	for _, k := range []string{"requirements", "responsibilities"} {
		if v, ok := got[k].([]any); !ok || len(v) != 0 {
			t.Errorf("%s = %#v, want empty array", k, got[k])
		}
	}
	if v, ok := got["metadata"].(map[string]any); !ok || len(v) != 0 {
		t.Errorf("metadata = %#v, want empty object", got["metadata"])
	}
}

func TestGetJobErrors(t *testing.T) {
	r := newRouter(servicetest.NewMemStore(), fakePinger{})
	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad_id", "/jobs/not-a-uuid", http.StatusBadRequest},
		{"missing", "/jobs/" + uuid.NewString(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodGet, tt.path, ""); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestListJobs(t *testing.T) {
	store := servicetest.NewMemStore()
	r := newRouter(store, fakePinger{})

	w := do(r, http.MethodGet, "/jobs", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty list: status = %d, body = %s", w.Code, w.Body.String())
	}

	store.Seed(model.JobRecord{Title: "Go Dev", Company: "Acme", Location: "Remote", Source: "lever"})
	store.Seed(model.JobRecord{Title: "Chef", Company: "Diner", Location: "Paris", Source: "indeed"})

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?search=go", 1},
		{"?source=indeed", 1},
		{"?location=remote", 1},
		{"?limit=1", 1},
		{"?limit=abc", 2},
		{"?offset=5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(r, http.MethodGet, "/jobs"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var jobs []model.Job
			if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if len(jobs) != tt.want {
				t.Errorf("len = %d, want %d", len(jobs), tt.want)
			}
		})
	}
}

func TestListJobsStoreError(t *testing.T) {
	store := servicetest.NewMemStore()
	store.Err = errors.New("boom")
	w := do(newRouter(store, fakePinger{}), http.MethodGet, "/jobs", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	store := servicetest.NewMemStore()
	r := newRouter(store, fakePinger{})

	w := do(r, http.MethodPost, "/jobs", `{"title":"Go Dev","company":"Acme","skills":["Go","", " SQL "]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}
	var created model.Job
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create body: %v", err)
	}
	if want := []string{"Go", "SQL"}; !reflect.DeepEqual(created.Skills, want) {
		t.Errorf("skills = %q, want %q", created.Skills, want)
	}

	path := "/jobs/" + created.ID.String()
	w = do(r, http.MethodPut, path, `{"title":"Senior Go Dev","company":"Acme"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}

	if w = do(r, http.MethodPut, "/jobs/"+uuid.NewString(), `{"title":"x","company":"y"}`); w.Code != http.StatusNotFound {
		t.Errorf("update missing: status = %d, want 404", w.Code)
	}
	if w = do(r, http.MethodPut, path, `{"title":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("update invalid: status = %d, want 400", w.Code)
	}

	if w = do(r, http.MethodDelete, path, ""); w.Code != http.StatusOK {
		t.Errorf("delete: status = %d", w.Code)
	}
	if w = do(r, http.MethodDelete, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", w.Code)
	}
}

func TestCreateJobBadRequests(t *testing.T) {
	r := newRouter(servicetest.NewMemStore(), fakePinger{})
	bodies := []string{
		`not json`,
		`{"title":"Dev"}`,
		`{"title":"Dev","company":"Acme","skills":"Go"}`,
	}
	for _, body := range bodies {
		if w := do(r, http.MethodPost, "/jobs", body); w.Code != http.StatusBadRequest {
			t.Errorf("POST %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestValidate(t *testing.T) {
	r := newRouter(servicetest.NewMemStore(), fakePinger{})
	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantItems []any
	}{
		{"null_value", `{"value": null}`, false, []any{}},
		{"null_literal", `{"value": "null"}`, true, []any{}},
		{"undefined", `{"value": "undefined"}`, false, []any{}},
		{"scalar", `{"value": "42"}`, true, []any{}},
		{"broken", `{"value": "[\"Python\""}`, false, []any{}},
		{"array", `{"value": "[\"Python\", \"\", \"React\"]"}`, true, []any{"Python", "React"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/json/validate", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var got struct {
				Valid bool  `json:"valid"`
				Items []any `json:"items"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if got.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if !reflect.DeepEqual(got.Items, tt.wantItems) {
				t.Errorf("items = %v, want %v", got.Items, tt.wantItems)
			}
		})
	}
}

func TestRepairEndpoint(t *testing.T) {
	store := servicetest.NewMemStore()
	store.Seed(model.JobRecord{Title: "a", Skills: str("undefined")})
	r := newRouter(store, fakePinger{})

	w := do(r, http.MethodPost, "/admin/repair", "")
	if w.Code != http.StatusOK {
		t.Fatalf("dry run: status = %d", w.Code)
	}
	var report model.RepairReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if !report.DryRun || report.Changed != 1 || store.Writes != 0 {
		t.Errorf("dry run report = %+v, writes = %d", report, store.Writes)
	}

	if w = do(r, http.MethodPost, "/admin/repair?dryRun=false", ""); w.Code != http.StatusOK {
		t.Fatalf("repair: status = %d", w.Code)
	}
	if store.Writes != 1 {
		t.Errorf("writes = %d, want 1", store.Writes)
	}
}
