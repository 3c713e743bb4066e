package minio

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(minio.ErrorResponse{StatusCode: http.StatusNotFound}) {
		t.Fatalf("expected 404 response to be not found")
	}
	if !isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}) {
		t.Fatalf("expected NoSuchKey to be not found")
	}
	if isNotFound(errors.New("connection refused")) {
		t.Fatalf("expected transport error not to be not found")
	}
}
