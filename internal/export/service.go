package export

import (
	"context"

	"resume-studio/internal/resume"
	"resume-studio/internal/shared/metrics"
	"resume-studio/internal/shared/telemetry"
)

// ResumeReader loads a resume on behalf of its owner.
type ResumeReader interface {
	Get(ctx context.Context, ownerID, id string) (resume.Document, error)
}

// Result is a rendered download.
type Result struct {
	FileName string
	Data     []byte
}

type Service struct {
	Resumes  ResumeReader
	Renderer Renderer
}

func NewService(resumes ResumeReader, renderer Renderer) *Service {
	return &Service{Resumes: resumes, Renderer: renderer}
}

// Export renders the owner's resume to PDF.
func (s *Service) Export(ctx context.Context, ownerID, id string) (Result, error) {
	doc, err := s.Resumes.Get(ctx, ownerID, id)
	if err != nil {
		return Result{}, err
	}
	html, err := RenderHTML(doc)
	if err != nil {
		return Result{}, err
	}
	if s.Renderer == nil {
		return Result{}, ErrPDFDependencyMissing
	}
	data, err := s.Renderer.PDF(ctx, html)
	if err != nil {
		return Result{}, err
	}
	metrics.IncExport()
	telemetry.Info("resume.exported", map[string]any{"resume_id": id, "size_bytes": len(data)})
	return Result{FileName: FileName(doc), Data: data}, nil
}
