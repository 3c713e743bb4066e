package resume

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-studio/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(&fakeStore{})
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(true))
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, guest string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.GuestHeader, guest)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerCreateSaveAndFetch(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/resumes", "g1", map[string]string{"title": "Backend CV"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.ID == "" || created.Title != "Backend CV" || created.Status != StatusDraft {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if created.Content.Skills == nil {
		t.Fatalf("expected skills to decode as empty list")
	}

	content := map[string]any{"content": map[string]any{"skills": []string{"Go", "SQL"}}}
	resp = doJSON(t, r, http.MethodPut, "/api/v1/resumes/"+created.ID+"/content", "g1", content)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/resumes/"+created.ID, "g1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var fetched DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if len(fetched.Content.Skills) != 2 || fetched.Content.Skills[1] != "SQL" {
		t.Fatalf("unexpected skills: %v", fetched.Content.Skills)
	}
}

func TestHandlerOwnershipAndErrors(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/resumes", "owner", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var created DocumentResponse
	_ = json.NewDecoder(resp.Body).Decode(&created)

	resp = doJSON(t, r, http.MethodGet, "/api/v1/resumes/"+created.ID, "intruder", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/resumes/does-not-exist", "owner", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPut, "/api/v1/resumes/"+created.ID+"/content", "owner", map[string]any{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodDelete, "/api/v1/resumes/"+created.ID, "owner", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/resumes", "owner", nil)
	var list struct {
		Resumes []SummaryResponse `json:"resumes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Resumes) != 0 {
		t.Fatalf("expected empty list, got %d", len(list.Resumes))
	}
}
