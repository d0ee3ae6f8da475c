package tasks

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourusername/task-manager/internal/auth"
	"github.com/yourusername/task-manager/internal/models"
	"github.com/yourusername/task-manager/internal/storage/storagetest"
)

type taskFixture struct {
	router *gin.Engine
	repo   *storagetest.Tasks
	codec  *auth.TokenCodec
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := storagetest.NewTasks()
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	handler := NewHandler(svc)
	codec := auth.NewTokenCodec("secret", time.Hour)

	router := gin.New()
	group := router.Group("/api/task", auth.RequireLogin(codec))
	group.GET("/", handler.List)
	group.POST("/", handler.Create)
	group.GET("/filter", handler.Filter)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.PUT("/:id/due-date", handler.UpdateDueDate)
	group.PUT("/:id/priority", handler.UpdatePriority)
	group.PUT("/:id/toggle-complete", handler.ToggleComplete)

	return &taskFixture{router: router, repo: repo, codec: codec}
}

func (f *taskFixture) login(t *testing.T) (primitive.ObjectID, string) {
	t.Helper()
	userID := primitive.NewObjectID()
	token, _, err := f.codec.Issue(userID)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	return userID, token
}

func (f *taskFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) models.Task {
	t.Helper()
	var task models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("failed to parse task: %v body=%s", err, rec.Body.String())
	}
	return task
}

func TestCreateIgnoresOwnerInBody(t *testing.T) {
	f := newTaskFixture(t)
	userID, token := f.login(t)
	other := primitive.NewObjectID()

	rec := f.do(http.MethodPost, "/api/task/", token, `{"title":"Write report","user":"`+other.Hex()+`","priority":"High"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	task := decodeTask(t, rec)
	if task.Owner != userID {
		t.Fatalf("owner taken from body: %s", task.Owner.Hex())
	}
	if task.Priority != models.PriorityHigh || task.IsCompleted {
		t.Fatalf("unexpected task: %#v", task)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newTaskFixture(t)
	_, token := f.login(t)

	cases := map[string]string{
		"missing title": `{"priority":"Low"}`,
		"bad priority":  `{"title":"x","priority":"Urgent"}`,
		"broken json":   `{"title":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/task/", token, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTaskRoutesRequireToken(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(http.MethodGet, "/api/task/", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	f := newTaskFixture(t)
	_, alice := f.login(t)
	_, bob := f.login(t)

	created := decodeTask(t, f.do(http.MethodPost, "/api/task/", alice, `{"title":"mine"}`))
	path := "/api/task/" + created.ID.Hex()

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodPut, path, `{"title":"stolen"}`},
		{http.MethodPut, path + "/toggle-complete", ""},
		{http.MethodPut, path + "/priority", `{"priority":"Low"}`},
		{http.MethodDelete, path, ""},
	} {
		rec := f.do(tc.method, tc.path, bob, tc.body)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: unexpected status %d", tc.method, tc.path, rec.Code)
		}
	}

	list := f.do(http.MethodGet, "/api/task/", bob, "")
	if strings.TrimSpace(list.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", list.Body.String())
	}

	stored, ok := f.repo.Get(created.ID)
	if !ok || stored.Title != "mine" {
		t.Fatalf("task was changed by another user: %#v", stored)
	}
}

func TestUpdateAndToggle(t *testing.T) {
	f := newTaskFixture(t)
	_, token := f.login(t)
	created := decodeTask(t, f.do(http.MethodPost, "/api/task/", token, `{"title":"draft","dueDate":"2024-03-20"}`))
	path := "/api/task/" + created.ID.Hex()

	rec := f.do(http.MethodPut, path, token, `{"title":"final"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	updated := decodeTask(t, rec)
	if updated.Title != "final" || updated.DueDate == nil || updated.Priority != models.PriorityMedium {
		t.Fatalf("unexpected task: %#v", updated)
	}

	if rec := f.do(http.MethodPut, path, token, ""); rec.Code != http.StatusOK {
		t.Fatalf("empty body update: unexpected status %d", rec.Code)
	}

	toggled := decodeTask(t, f.do(http.MethodPut, path+"/toggle-complete", token, ""))
	if !toggled.IsCompleted {
		t.Fatal("expected task to be completed")
	}
	restored := decodeTask(t, f.do(http.MethodPut, path+"/toggle-complete", token, ""))
	if restored.IsCompleted {
		t.Fatal("expected second toggle to restore state")
	}
}

func TestSingleFieldRoutes(t *testing.T) {
	f := newTaskFixture(t)
	_, token := f.login(t)
	created := decodeTask(t, f.do(http.MethodPost, "/api/task/", token, `{"title":"x"}`))
	path := "/api/task/" + created.ID.Hex()

	rec := f.do(http.MethodPut, path+"/priority", token, `{"priority":"Urgent"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	rec = f.do(http.MethodPut, path+"/priority", token, `{"priority":"Low"}`)
	if rec.Code != http.StatusOK || decodeTask(t, rec).Priority != models.PriorityLow {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodPut, path+"/due-date", token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	rec = f.do(http.MethodPut, path+"/due-date", token, `{"dueDate":"2024-03-11"}`)
	if rec.Code != http.StatusOK || decodeTask(t, rec).DueDate == nil {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteAndMalformedID(t *testing.T) {
	f := newTaskFixture(t)
	_, token := f.login(t)
	created := decodeTask(t, f.do(http.MethodPost, "/api/task/", token, `{"title":"x"}`))

	if rec := f.do(http.MethodDelete, "/api/task/"+created.ID.Hex(), token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec := f.do(http.MethodDelete, "/api/task/"+created.ID.Hex(), token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: unexpected status %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, "/api/task/not-an-id", token, `{"title":"y"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: unexpected status %d", rec.Code)
	}
}

func TestFilterRoute(t *testing.T) {
	f := newTaskFixture(t)
	_, token := f.login(t)
	f.do(http.MethodPost, "/api/task/", token, `{"title":"today","dueDate":"2024-03-10","priority":"High"}`)
	f.do(http.MethodPost, "/api/task/", token, `{"title":"later","dueDate":"2024-03-25","priority":"High"}`)

	rec := f.do(http.MethodGet, "/api/task/filter?priority=High&dueDate=today", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	var tasks []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("failed to parse tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "today" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}

	if rec := f.do(http.MethodGet, "/api/task/filter?dueDate=whenever", token, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid due date: unexpected status %d", rec.Code)
	}
}

func TestHandlerWithoutPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewService(storagetest.NewTasks()))
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/task/", bytes.NewReader(nil))

	handler.List(ctx)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
