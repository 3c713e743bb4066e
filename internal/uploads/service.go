package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resume-studio/internal/extract"
	"resume-studio/internal/resume"
	"resume-studio/internal/shared/metrics"
	"resume-studio/internal/shared/storage/object"
	"resume-studio/internal/shared/telemetry"
	"resume-studio/internal/shared/util"
)

const (
	// MaxBytes is the largest accepted upload.
	MaxBytes       = 5 << 20
	pdfContentType = "application/pdf"
	signedURLTTL   = 7 * 24 * time.Hour
)

var (
	ErrMissingFile     = errors.New("file is required")
	ErrNotPDF          = errors.New("only pdf files are supported")
	ErrTooLarge        = errors.New("file exceeds the 5 MB limit")
	ErrInvalidFileName = errors.New("invalid file name")
)

// File is an incoming upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Result is the attachment recorded on the resume.
type Result struct {
	resume.Attachment
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resumes is the subset of the resume service uploads depend on.
type Resumes interface {
	Get(ctx context.Context, ownerID, id string) (resume.Document, error)
	SetAttachment(ctx context.Context, ownerID, id string, att resume.Attachment) (time.Time, error)
}

// Service stores uploaded resume PDFs and records their parsed text.
type Service struct {
	Resumes Resumes
	Store   object.ObjectStore
	Extract func(ctx context.Context, data []byte) (string, error)
	Now     func() time.Time
}

func NewService(resumes Resumes, store object.ObjectStore) *Service {
	return &Service{Resumes: resumes, Store: store, Extract: extract.PDFText}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload validates f, replaces the resume's stored file and attaches the
// extracted text.
func (s *Service) Upload(ctx context.Context, ownerID, resumeID string, f File) (Result, error) {
	data, name, err := s.validate(f)
	if err != nil {
		metrics.IncUploadRejected()
		return Result{}, err
	}
	doc, err := s.Resumes.Get(ctx, ownerID, resumeID)
	if err != nil {
		return Result{}, err
	}

	if prev := doc.Attachment.FilePath; prev != "" {
		if err := s.Store.Delete(ctx, prev); err != nil && !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("upload.previous_delete_failed", map[string]any{
				"resume_id": resumeID,
				"file_path": prev,
				"err":       err,
			})
		}
	}

	now := s.now()
	key := StorageKey(ownerID, resumeID, name, now)
	size, err := s.Store.Put(ctx, key, pdfContentType, bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("store upload: %w", err)
	}

	parsed := ""
	if s.Extract != nil {
		text, err := s.Extract(ctx, data)
		if err != nil {
			telemetry.Warn("upload.extract_failed", map[string]any{"resume_id": resumeID, "err": err})
		} else {
			parsed = text
		}
	}

	att := resume.Attachment{
		FileName:   name,
		FileType:   pdfContentType,
		FileSize:   size,
		FilePath:   key,
		FileURL:    s.signURL(ctx, key),
		ParsedText: parsed,
		UploadedAt: &now,
	}
	updatedAt, err := s.Resumes.SetAttachment(ctx, ownerID, resumeID, att)
	if err != nil {
		return Result{}, err
	}

	metrics.IncUpload()
	telemetry.Info("upload.stored", map[string]any{
		"resume_id":   resumeID,
		"size_bytes":  size,
		"parsed_text": len(parsed),
	})
	return Result{Attachment: att, UpdatedAt: updatedAt}, nil
}

func (s *Service) validate(f File) ([]byte, string, error) {
	if f.Body == nil || strings.TrimSpace(f.Name) == "" {
		return nil, "", ErrMissingFile
	}
	if mediaType(f.ContentType) != pdfContentType {
		return nil, "", ErrNotPDF
	}
	if f.Size > MaxBytes {
		return nil, "", ErrTooLarge
	}
	name, err := util.SanitizeFileName(f.Name)
	if err != nil {
		return nil, "", ErrInvalidFileName
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrMissingFile
	}
	if len(data) > MaxBytes {
		return nil, "", ErrTooLarge
	}
	if http.DetectContentType(data) != pdfContentType {
		return nil, "", ErrNotPDF
	}
	return data, name, nil
}

func (s *Service) signURL(ctx context.Context, key string) string {
	signer, ok := s.Store.(object.URLSigner)
	if !ok {
		return ""
	}
	u, err := signer.SignedURL(ctx, key, signedURLTTL)
	if err != nil {
		telemetry.Warn("upload.sign_failed", map[string]any{"file_path": key, "err": err})
		return ""
	}
	return u
}

// StorageKey lays uploads out per hashed owner and resume.
func StorageKey(ownerID, resumeID, name string, at time.Time) string {
	return "uploads/" + util.OwnerKey(ownerID) + "/" + resumeID + "/" +
		strconv.FormatInt(at.UnixMilli(), 10) + "-" + name
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
