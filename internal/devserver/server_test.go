package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"taskmgr/internal/service"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndList(t *testing.T) {
	srv := New(nil, nil, nil, "/api")

	rec := do(t, srv, http.MethodPost, "/api/tasks", `{"title":" Write ","status":"TODO","dueDate":"2024-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created service.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != 1 || created.Title != "Write" {
		t.Errorf("unexpected task %+v", created)
	}

	do(t, srv, http.MethodPost, "/api/tasks", `{"title":"Second","status":"DONE"}`)

	rec = do(t, srv, http.MethodGet, "/api/tasks", "")
	var tasks []service.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != 1 || tasks[1].ID != 2 {
		t.Errorf("expected tasks 1 and 2 in order, got %+v", tasks)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	rec := do(t, New(nil, nil, nil, "/api"), http.MethodGet, "/api/tasks", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %q", rec.Body.String())
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing title", `{"title":"  ","status":"TODO"}`, "title", "Title is required"},
		{"long title", `{"title":"` + strings.Repeat("x", 101) + `","status":"TODO"}`, "title", "Title must not exceed 100 characters"},
		{"long description", `{"title":"a","description":"` + strings.Repeat("x", 501) + `","status":"TODO"}`, "description", "Description must not exceed 500 characters"},
		{"missing status", `{"title":"a"}`, "status", "Status is required"},
		{"bad status", `{"title":"a","status":"BLOCKED"}`, "status", "Status must be one of TODO, IN_PROGRESS, DONE"},
		{"bad date", `{"title":"a","status":"TODO","dueDate":"tomorrow"}`, "dueDate", "Due date must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, New(nil, nil, nil, "/api"), http.MethodPost, "/api/tasks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body struct {
				Errors map[string]string `json:"errors"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Errors[tt.field] != tt.msg {
				t.Errorf("expected %s=%q, got %v", tt.field, tt.msg, body.Errors)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	rec := do(t, New(nil, nil, nil, "/api"), http.MethodPost, "/api/tasks", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"Malformed request body"}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestUpdateReplacesAllFields(t *testing.T) {
	store := NewStore()
	due := service.Date{Year: 2024, Month: 1, Day: 1}
	store.Create(service.Draft{Title: "A", Description: "old", Status: service.StatusTodo, DueDate: &due})
	srv := New(store, nil, nil, "/api")

	rec := do(t, srv, http.MethodPut, "/api/tasks/1", `{"title":"A2","status":"DONE"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	got, err := store.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "A2" || got.Description != "" || got.DueDate != nil || got.Status != service.StatusDone {
		t.Errorf("expected full replacement, got %+v", got)
	}
}

func TestNotFound(t *testing.T) {
	srv := New(nil, nil, nil, "/api")

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/tasks/5", ""},
		{http.MethodPut, "/api/tasks/5", `{"title":"a","status":"TODO"}`},
		{http.MethodDelete, "/api/tasks/5", ""},
		{http.MethodGet, "/api/tasks/abc", ""},
	} {
		rec := do(t, srv, req.method, req.path, req.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", req.method, req.path, rec.Code)
			continue
		}
		if strings.TrimSpace(rec.Body.String()) != `{"error":"Task not found"}` {
			t.Errorf("%s %s: unexpected body %q", req.method, req.path, rec.Body.String())
		}
	}
}

func TestDeleteNoContent(t *testing.T) {
	store := NewStore()
	store.Create(service.Draft{Title: "A", Status: service.StatusTodo})
	srv := New(store, nil, nil, "/api")

	rec := do(t, srv, http.MethodDelete, "/api/tasks/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if len(store.List()) != 0 {
		t.Error("expected task removed")
	}
}

func TestRequestID(t *testing.T) {
	srv := New(nil, nil, nil, "/api")

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}

	rec = do(t, srv, http.MethodGet, "/api/tasks", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}
}

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()
	srv := New(nil, metrics, nil, "/api")

	do(t, srv, http.MethodPost, "/api/tasks", `{"title":"a","status":"TODO"}`)
	do(t, srv, http.MethodPost, "/api/tasks", `{"title":"","status":"TODO"}`)
	do(t, srv, http.MethodDelete, "/api/tasks/1", "")
	do(t, srv, http.MethodDelete, "/api/tasks/1", "")

	if got := promtest.ToFloat64(metrics.Mutations().WithLabelValues("create")); got != 1 {
		t.Errorf("expected 1 create, got %v", got)
	}
	if got := promtest.ToFloat64(metrics.Mutations().WithLabelValues("delete")); got != 1 {
		t.Errorf("expected 1 delete, got %v", got)
	}
	if got := promtest.ToFloat64(metrics.Requests().WithLabelValues("POST", "/api/tasks", "400")); got != 1 {
		t.Errorf("expected 1 rejected create, got %v", got)
	}
	if got := promtest.ToFloat64(metrics.Requests().WithLabelValues("DELETE", "/api/tasks/{id}", "404")); got != 1 {
		t.Errorf("expected 1 failed delete, got %v", got)
	}

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "taskmgr_task_mutations_total") {
		t.Error("expected mutation counter in /metrics output")
	}
}

func TestStoreOrderAndIDs(t *testing.T) {
	s := NewStore()
	a := s.Create(service.Draft{Title: "a", Status: service.StatusTodo})
	b := s.Create(service.Draft{Title: "b", Status: service.StatusTodo})
	if err := s.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	c := s.Create(service.Draft{Title: "c", Status: service.StatusTodo})

	if c.ID != 3 {
		t.Errorf("expected ids never reused, got %d", c.ID)
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != c.ID {
		t.Errorf("unexpected order %+v", list)
	}
	if err := s.Delete(a.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
