package respond

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorWritesStandardBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/resumes/x", nil)

	Error(c, http.StatusNotFound, "not_found", "Resume not found.", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.Message != "Resume not found." {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !c.IsAborted() {
		t.Fatalf("expected context aborted")
	}
}

func TestAttachmentDisablesCaching(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Attachment(c, "ada-lovelace-r1.pdf", "application/pdf", []byte("%PDF-1.4"))

	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=ada-lovelace-r1.pdf` {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestAttachmentEncodesNonASCIINames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Attachment(c, "josé núñez-r1.pdf", "application/pdf", []byte("%PDF-1.4"))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("parse disposition: %v", err)
	}
	if disposition != "attachment" || params["filename"] != "josé núñez-r1.pdf" {
		t.Fatalf("unexpected disposition %q %v", disposition, params)
	}
}
