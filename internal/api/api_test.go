package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
	"github.com/starford/articles/internal/storage/sqlite"
	"github.com/starford/articles/internal/testutil"
)

var (
	uuidPattern    = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	errorIDPattern = regexp.MustCompile(`^ERR-[0-9A-F]{8}$`)
)

// testEnv sets up a temp SQLite DB, service and router for testing.
func testEnv(t *testing.T) (http.Handler, *sqlite.DB) {
	t.Helper()
	svc, db := testutil.TestService(t)
	router := NewRouter(svc, Options{Logger: testutil.DiscardLogger(), Docs: true, Metrics: true})
	return router, db
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v, body = %s", err, w.Body.String())
	}
	if resp.Status != w.Code {
		t.Errorf("envelope status = %d, response code = %d", resp.Status, w.Code)
	}
	if !errorIDPattern.MatchString(resp.ErrorID) {
		t.Errorf("errorId = %q", resp.ErrorID)
	}
	if _, err := time.Parse(timestampLayout, resp.Timestamp); err != nil {
		t.Errorf("timestamp = %q: %v", resp.Timestamp, err)
	}
	return resp
}

func TestArticleLifecycle(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodPost, "/api/articles",
		`{"title":"Understanding Systems","description":"A guide to systems design basics."}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.ArticlePayload
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if !uuidPattern.MatchString(created.ID) {
		t.Errorf("id = %q, want UUID", created.ID)
	}
	if created.IsPublished {
		t.Error("new article should not be published")
	}
	if strings.Contains(w.Body.String(), `"ID"`) || strings.Contains(w.Body.String(), "publicId") {
		t.Errorf("payload leaks internal fields: %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/api/articles/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.ArticlePayload
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got != created {
		t.Errorf("get = %+v, want %+v", got, created)
	}

	w = do(t, router, http.MethodDelete, "/api/articles/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("delete body = %q, want empty", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/api/articles/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != apperr.CategoryNotFound {
		t.Errorf("category = %q", resp.Error)
	}
	if resp.Message != "Article not found with id: "+created.ID {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Path != "/api/articles/"+created.ID {
		t.Errorf("path = %q", resp.Path)
	}

	w = do(t, router, http.MethodDelete, "/api/articles/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestCreateArticle_FieldsTooShort(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodPost, "/api/articles", `{"title":"Hi","description":"Short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != apperr.CategoryValidation {
		t.Errorf("category = %q", resp.Error)
	}
	if resp.Message != "Validation failed for one or more fields" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Path != "/api/articles" {
		t.Errorf("path = %q", resp.Path)
	}
	if len(resp.ValidationErrors) != 2 {
		t.Fatalf("validationErrors = %+v, want 2 entries", resp.ValidationErrors)
	}
	if resp.ValidationErrors[0].Field != "title" || resp.ValidationErrors[0].RejectedValue != "Hi" {
		t.Errorf("first violation = %+v", resp.ValidationErrors[0])
	}
}

func TestCreateArticle_BlankFields(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodPost, "/api/articles", `{"title":"","description":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w)
	if len(resp.ValidationErrors) != 4 {
		t.Errorf("validationErrors = %d, want 4", len(resp.ValidationErrors))
	}

	w = do(t, router, http.MethodGet, "/api/articles", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("rejected article was stored: %s", w.Body.String())
	}
}

func TestCreateArticle_MissingOrNullField(t *testing.T) {
	router, _ := testEnv(t)

	for _, body := range []string{
		`{"description":"A guide to systems design basics."}`,
		`{"title":null,"description":"A guide to systems design basics."}`,
	} {
		w := do(t, router, http.MethodPost, "/api/articles", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
			continue
		}
		resp := decodeError(t, w)
		if resp.Error != apperr.CategoryValidation {
			t.Errorf("body %s: category = %q", body, resp.Error)
		}
		if len(resp.ValidationErrors) != 1 {
			t.Fatalf("body %s: validationErrors = %+v, want 1 entry", body, resp.ValidationErrors)
		}
		v := resp.ValidationErrors[0]
		if v.Field != "title" || v.RejectedValue != nil || v.Message != "Title is required and cannot be blank" {
			t.Errorf("body %s: violation = %+v", body, v)
		}
		if !strings.Contains(w.Body.String(), `"rejectedValue":null`) {
			t.Errorf("body %s: rejectedValue not null: %s", body, w.Body.String())
		}
	}
}

func TestCreateArticle_MalformedJSON(t *testing.T) {
	router, _ := testEnv(t)

	for _, body := range []string{
		`{"title": "Valid Title", "description": "Valid Description"`,
		`not json`,
		`{"title":"Valid Title","description":"Valid Description"} {}`,
		`[]`,
		`null`,
		`"a string"`,
		`42`,
		``,
	} {
		w := do(t, router, http.MethodPost, "/api/articles", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
			continue
		}
		resp := decodeError(t, w)
		if resp.Error != apperr.CategoryBadRequest || resp.Message != "Malformed JSON request" {
			t.Errorf("body %q: envelope = %+v", body, resp)
		}
	}
}

func TestCreateArticle_WrongFieldType(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodPost, "/api/articles", `{"title":123,"description":"Valid Description"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != apperr.CategoryBadRequest || resp.Message != "Invalid parameter type" {
		t.Errorf("envelope = %+v", resp)
	}
	if resp.Details != "Parameter 'title' should be of type string but received: number" {
		t.Errorf("details = %q", resp.Details)
	}
}

func TestListArticles(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodGet, "/api/articles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", w.Body.String())
	}

	for i := range 2 {
		body := fmt.Sprintf(`{"title":"Title %d","description":"Description number %d"}`, i, i)
		if w := do(t, router, http.MethodPost, "/api/articles", body); w.Code != http.StatusCreated {
			t.Fatalf("create %d = %d", i, w.Code)
		}
	}

	w = do(t, router, http.MethodGet, "/api/articles", "")
	var list []models.ArticlePayload
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].Title != "Title 0" || list[1].Title != "Title 1" {
		t.Errorf("list order = %+v", list)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodPatch, "/api/articles", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != apperr.CategoryBadRequest || resp.Message != "HTTP method not supported" {
		t.Errorf("envelope = %+v", resp)
	}
	if allow := w.Header().Get("Allow"); allow != "GET, POST" {
		t.Errorf("Allow = %q", allow)
	}
}

func TestMethodNotAllowed_ItemRoute(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodPut, "/api/articles/abc", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	resp := decodeError(t, w)
	if allow := w.Header().Get("Allow"); allow != "GET, DELETE" {
		t.Errorf("Allow = %q", allow)
	}
	if !strings.HasSuffix(resp.Details, "Supported methods: GET, DELETE") {
		t.Errorf("details = %q", resp.Details)
	}
}

func TestUnknownRoute(t *testing.T) {
	router, _ := testEnv(t)

	w := do(t, router, http.MethodGet, "/api/nothing-here", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != apperr.CategoryNotFound || resp.Message != "Endpoint not found" {
		t.Errorf("envelope = %+v", resp)
	}
	if resp.Details != "No handler found for GET /api/nothing-here" {
		t.Errorf("details = %q", resp.Details)
	}
}

func TestStoreFailure(t *testing.T) {
	router, db := testEnv(t)
	db.Close()

	w := do(t, router, http.MethodGet, "/api/articles", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != apperr.CategoryDatabase || resp.Message != "Database operation failed" {
		t.Errorf("envelope = %+v", resp)
	}
	if strings.Contains(w.Body.String(), "sql:") {
		t.Errorf("driver error leaked: %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready = %d, want 503", w.Code)
	}
}

func TestErrorIDsAreUnique(t *testing.T) {
	router, _ := testEnv(t)

	a := decodeError(t, do(t, router, http.MethodGet, "/api/articles/x", ""))
	b := decodeError(t, do(t, router, http.MethodGet, "/api/articles/x", ""))
	if a.ErrorID == b.ErrorID {
		t.Errorf("errorId reused: %s", a.ErrorID)
	}
}

func TestHealthMetricsAndDocs(t *testing.T) {
	router, _ := testEnv(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics", "/swagger/doc.json"} {
		if w := do(t, router, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s = %d, want 200", path, w.Code)
		}
	}
}

func TestMetricsUseRoutePattern(t *testing.T) {
	router, _ := testEnv(t)

	_ = do(t, router, http.MethodGet, "/api/articles/some-id", "")
	_ = do(t, router, http.MethodGet, "/no/such/route", "")

	body := do(t, router, http.MethodGet, "/metrics", "").Body.String()
	if !strings.Contains(body, `path="/api/articles/{id}"`) {
		t.Error("metrics missing route pattern label")
	}
	if !strings.Contains(body, `path="unmatched"`) {
		t.Error("metrics missing unmatched label")
	}
	if strings.Contains(body, "some-id") {
		t.Error("metrics leak raw path")
	}
}

// stubService returns canned results so failure paths can be driven directly.
type stubService struct {
	err   error
	panic any
}

func (s stubService) CreateArticle(context.Context, models.CreateArticleInput) (models.ArticlePayload, error) {
	return models.ArticlePayload{}, s.err
}

func (s stubService) FindAllArticles(context.Context) ([]models.ArticlePayload, error) {
	if s.panic != nil {
		panic(s.panic)
	}
	return nil, s.err
}

func (s stubService) FindArticleByID(context.Context, string) (models.ArticlePayload, error) {
	return models.ArticlePayload{}, s.err
}

func (s stubService) DeleteArticle(context.Context, string) error { return s.err }

func (s stubService) Ping(context.Context) error { return s.err }

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		svc      stubService
		method   string
		target   string
		body     string
		status   int
		category apperr.Category
		message  string
	}{
		{
			name:     "unexpected error",
			svc:      stubService{err: errors.New("Unexpected error")},
			method:   http.MethodGet,
			target:   "/api/articles",
			status:   http.StatusInternalServerError,
			category: apperr.CategoryInternal,
			message:  "An unexpected error occurred",
		},
		{
			name:     "panic",
			svc:      stubService{panic: "boom"},
			method:   http.MethodGet,
			target:   "/api/articles",
			status:   http.StatusInternalServerError,
			category: apperr.CategoryInternal,
			message:  "An unexpected error occurred",
		},
		{
			name:     "store error",
			svc:      stubService{err: apperr.Store("find article", errors.New("connection reset by peer"))},
			method:   http.MethodGet,
			target:   "/api/articles/abc",
			status:   http.StatusInternalServerError,
			category: apperr.CategoryDatabase,
			message:  "Database operation failed",
		},
		{
			name:     "not found",
			svc:      stubService{err: apperr.NotFound("Article", "test-id")},
			method:   http.MethodDelete,
			target:   "/api/articles/test-id",
			status:   http.StatusNotFound,
			category: apperr.CategoryNotFound,
			message:  "Article not found with id: test-id",
		},
		{
			name:     "conflict",
			svc:      stubService{err: fmt.Errorf("%w: public id taken", apperr.ErrConflict)},
			method:   http.MethodPost,
			target:   "/api/articles",
			body:     `{"title":"Valid title","description":"Valid description"}`,
			status:   http.StatusConflict,
			category: apperr.CategoryBusinessLogic,
			message:  "Article already exists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(tt.svc, Options{Logger: testutil.DiscardLogger()})
			w := do(t, router, tt.method, tt.target, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			resp := decodeError(t, w)
			if resp.Error != tt.category || resp.Message != tt.message {
				t.Errorf("envelope = %+v", resp)
			}
			if bytes.Contains(w.Body.Bytes(), []byte("connection reset")) || bytes.Contains(w.Body.Bytes(), []byte("boom")) {
				t.Errorf("internal detail leaked: %s", w.Body.String())
			}
		})
	}
}
