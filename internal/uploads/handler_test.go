package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-studio/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, f *fixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(true))
	NewHandler(f.svc).RegisterRoutes(api)
	return r
}

func multipartBody(t *testing.T, field, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postUpload(r http.Handler, id, guest string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/"+id+"/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.GuestHeader, guest)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerUpload(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	doc, err := f.resumes.Create(context.Background(), "guest:g1", "CV")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body, ct := multipartBody(t, "file", "resume.pdf", "application/pdf", samplePDF)
	resp := postUpload(r, doc.ID, "g1", body, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["fileName"] != "resume.pdf" || got["fileType"] != "application/pdf" {
		t.Fatalf("unexpected response: %v", got)
	}
	if _, ok := got["updatedAt"]; !ok {
		t.Fatalf("expected updatedAt in response: %v", got)
	}
}

func TestHandlerUploadErrors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f)
	doc, err := f.resumes.Create(context.Background(), "guest:g1", "CV")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body, ct := multipartBody(t, "other", "resume.pdf", "application/pdf", samplePDF)
	if resp := postUpload(r, doc.ID, "g1", body, ct); resp.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", resp.Code)
	}

	body, ct = multipartBody(t, "file", "notes.txt", "text/plain", []byte("hello"))
	if resp := postUpload(r, doc.ID, "g1", body, ct); resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("wrong type: expected 415, got %d", resp.Code)
	}

	body, ct = multipartBody(t, "file", "resume.pdf", "application/pdf", samplePDF)
	if resp := postUpload(r, doc.ID, "g2", body, ct); resp.Code != http.StatusForbidden {
		t.Fatalf("other owner: expected 403, got %d", resp.Code)
	}
}
