package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/eXocriador/automaze-task/domain"
)

type mockStore struct {
	tasks      []domain.Task
	err        error
	lastParams domain.ListParams
	lastNew    domain.NewTask
	lastID     int64
	lastPatch  domain.TaskPatch
	lastIDs    []int64
	listCalled bool
}

func (m *mockStore) ListTasks(ctx context.Context, p domain.ListParams) ([]domain.Task, error) {
	m.listCalled = true
	m.lastParams = p
	return m.tasks, m.err
}

func (m *mockStore) CreateTask(ctx context.Context, n domain.NewTask) (domain.Task, error) {
	m.lastNew = n
	if m.err != nil {
		return domain.Task{}, m.err
	}
	if len(m.tasks) > 0 {
		return m.tasks[0], nil
	}
	priority := 1
	if n.Priority != nil {
		priority = *n.Priority
	}
	return domain.Task{ID: 1, Title: n.Title, Priority: priority, CreatedAt: time.Now()}, nil
}

func (m *mockStore) UpdateTask(ctx context.Context, id int64, p domain.TaskPatch) (domain.Task, error) {
	m.lastID = id
	m.lastPatch = p
	if m.err != nil {
		return domain.Task{}, m.err
	}
	return domain.Task{ID: id, Title: "updated"}, nil
}

func (m *mockStore) DeleteTask(ctx context.Context, id int64) error {
	m.lastID = id
	return m.err
}

func (m *mockStore) ReorderTasks(ctx context.Context, ids []int64) ([]domain.Task, error) {
	m.lastIDs = ids
	return m.tasks, m.err
}

type fakeNotFound struct{}

func (fakeNotFound) Error() string { return "task not found" }
func (fakeNotFound) NotFound()     {}

type fakeConstraint struct{}

func (fakeConstraint) Error() string        { return "constraint violation" }
func (fakeConstraint) ConstraintViolation() {}

func newListContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListTasksPassesValidatedParams(t *testing.T) {
	e := echo.New()
	logger, _ := test.NewNullLogger()
	store := &mockStore{tasks: []domain.Task{{ID: 1, Title: "milk"}}}

	c, rec := newListContext(e, "/tasks?search=milk&status=done&sort=priority_desc&category=errands")
	if err := listTasks(store, logger)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := domain.ListParams{Search: "milk", Status: "done", Sort: "priority_desc", Category: "errands"}
	if store.lastParams != want {
		t.Errorf("params = %+v, want %+v", store.lastParams, want)
	}

	var tasks []domain.Task
	if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 1 {
		t.Errorf("unexpected response body: %s", rec.Body.String())
	}
}

func TestListTasksNormalizesStatusAll(t *testing.T) {
	e := echo.New()
	logger, _ := test.NewNullLogger()
	store := &mockStore{}

	c, rec := newListContext(e, "/tasks?status=all")
	if err := listTasks(store, logger)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastParams.Status != "" {
		t.Errorf("status %q reached the store, want empty", store.lastParams.Status)
	}
}

func TestListTasksRejectsUnknownEnums(t *testing.T) {
	for _, target := range []string{"/tasks?sort=bogus", "/tasks?status=later"} {
		e := echo.New()
		logger, _ := test.NewNullLogger()
		store := &mockStore{}

		c, rec := newListContext(e, target)
		if err := listTasks(store, logger)(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", target, rec.Code)
		}
		if store.listCalled {
			t.Errorf("%s: invalid enum reached the store", target)
		}
	}
}

func TestListTasksEmptyResultIsArray(t *testing.T) {
	e := echo.New()
	logger, _ := test.NewNullLogger()
	store := &mockStore{tasks: []domain.Task{}}

	c, rec := newListContext(e, "/tasks")
	if err := listTasks(store, logger)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func postContext(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateTaskDefaultsPriority(t *testing.T) {
	e := echo.New()
	store := &mockStore{}

	c, rec := postContext(e, "/tasks", `{"title":"buy milk"}`)
	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if store.lastNew.Title != "buy milk" {
		t.Errorf("title = %q", store.lastNew.Title)
	}
	if store.lastNew.Priority == nil || *store.lastNew.Priority != 1 {
		t.Errorf("priority = %v, want default 1", store.lastNew.Priority)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "emptyTitle", body: `{"title":""}`},
		{name: "longTitle", body: `{"title":"` + strings.Repeat("x", 256) + `"}`},
		{name: "priorityTooHigh", body: `{"title":"t","priority":11}`},
		{name: "priorityTooLow", body: `{"title":"t","priority":-1}`},
		{name: "priorityZero", body: `{"title":"t","priority":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			store := &mockStore{}

			c, rec := postContext(e, "/tasks", tt.body)
			if err := createTask(store)(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
			}
			var resp validationResponse
			if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(resp.Detail) == 0 {
				t.Error("expected field detail in 422 response")
			}
		})
	}
}

func TestCreateTaskRejectsUnknownFields(t *testing.T) {
	e := echo.New()
	store := &mockStore{}

	c, rec := postContext(e, "/tasks", `{"title":"t","bogus":true}`)
	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateTaskConstraintViolation(t *testing.T) {
	e := echo.New()
	store := &mockStore{err: fakeConstraint{}}

	c, rec := postContext(e, "/tasks", `{"title":"t","priority":5}`)
	if err := createTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func patchContext(e *echo.Echo, id, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPatch, "/tasks/"+id, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestUpdateTaskPartialPatch(t *testing.T) {
	e := echo.New()
	store := &mockStore{}

	c, rec := patchContext(e, "7", `{"priority":5}`)
	if err := updateTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastID != 7 {
		t.Errorf("id = %d, want 7", store.lastID)
	}
	if store.lastPatch.Priority == nil || *store.lastPatch.Priority != 5 {
		t.Errorf("patch priority = %v, want 5", store.lastPatch.Priority)
	}
	if store.lastPatch.Title != nil {
		t.Errorf("title should not be in patch, got %v", *store.lastPatch.Title)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	e := echo.New()
	store := &mockStore{err: fakeNotFound{}}

	c, rec := patchContext(e, "42", `{"priority":5}`)
	if err := updateTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateTaskBadID(t *testing.T) {
	e := echo.New()
	store := &mockStore{}

	c, rec := patchContext(e, "abc", `{"priority":5}`)
	if err := updateTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func deleteContext(e *echo.Echo, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodDelete, "/tasks/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/tasks/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestDeleteTask(t *testing.T) {
	e := echo.New()
	store := &mockStore{}

	c, rec := deleteContext(e, "3")
	if err := deleteTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if store.lastID != 3 {
		t.Errorf("id = %d, want 3", store.lastID)
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	e := echo.New()
	store := &mockStore{err: fakeNotFound{}}

	c, rec := deleteContext(e, "3")
	if err := deleteTask(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReorderTasksPassesIDs(t *testing.T) {
	e := echo.New()
	store := &mockStore{tasks: []domain.Task{{ID: 3}, {ID: 1}, {ID: 2}}}

	c, rec := postContext(e, "/tasks/reorder", `[3,1,2]`)
	if err := reorderTasks(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(store.lastIDs) != 3 || store.lastIDs[0] != 3 || store.lastIDs[1] != 1 || store.lastIDs[2] != 2 {
		t.Errorf("ids = %v, want [3 1 2]", store.lastIDs)
	}

	var tasks []domain.Task
	if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(tasks) != 3 || tasks[0].ID != 3 {
		t.Errorf("unexpected response: %s", rec.Body.String())
	}
}

func TestReorderTasksInvalidBody(t *testing.T) {
	e := echo.New()
	store := &mockStore{}

	c, rec := postContext(e, "/tasks/reorder", `{"not":"an array"}`)
	if err := reorderTasks(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := healthz()(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
