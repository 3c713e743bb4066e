package resume

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-studio/internal/shared/metrics"
	"resume-studio/internal/shared/storage/object"
	"resume-studio/internal/shared/telemetry"
)

// Service contains business logic for resumes.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Now   func() time.Time
}

// NewService constructs a Service. store may be nil when no attachments are kept.
func NewService(repo Repo, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Store: store}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns the owner's resumes, most recently updated first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Document, error) {
	if ownerID == "" {
		return []Document{}, nil
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Create stores a new empty draft resume for the owner.
func (s *Service) Create(ctx context.Context, ownerID, title string) (Document, error) {
	if ownerID == "" {
		return Document{}, ErrInvalidInput
	}
	now := s.now()
	doc := NewEmpty(
		WithID(uuid.NewString()),
		WithOwner(ownerID),
		WithTitle(strings.TrimSpace(title)),
		WithTimes(now, now),
	)
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	telemetry.Info("resume.created", map[string]any{"resume_id": doc.ID, "user_id": ownerID})
	return doc, nil
}

// Get loads a resume and checks that ownerID owns it.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Document, error) {
	if ownerID == "" || id == "" {
		return Document{}, ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.OwnerID != "" && doc.OwnerID != ownerID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// UpdateTitle renames a resume. A blank title resets it to the default.
func (s *Service) UpdateTitle(ctx context.Context, ownerID, id, title string) (Document, error) {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Document{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	now := s.now()
	if err := s.Repo.UpdateTitle(ctx, id, title, now); err != nil {
		return Document{}, err
	}
	doc.Title = title
	doc.UpdatedAt = now
	return doc, nil
}

// SaveContent overwrites the content snapshot and returns the new update time.
// Last write wins.
func (s *Service) SaveContent(ctx context.Context, ownerID, id string, content Content) (time.Time, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return time.Time{}, err
	}
	snapshot := content.Clone()
	snapshot.Normalize()
	now := s.now()
	if err := s.Repo.UpdateContent(ctx, id, snapshot, now); err != nil {
		return time.Time{}, err
	}
	metrics.IncContentSave()
	return now, nil
}

// SetAttachment records new attachment metadata.
func (s *Service) SetAttachment(ctx context.Context, ownerID, id string, att Attachment) (time.Time, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return time.Time{}, err
	}
	now := s.now()
	if err := s.Repo.UpdateAttachment(ctx, id, att, now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Delete removes a resume together with its stored attachment. A failure to
// delete the file does not block removing the resume.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if path := doc.Attachment.FilePath; path != "" && s.Store != nil {
		if err := s.Store.Delete(ctx, path); err != nil {
			telemetry.Warn("resume.delete.file_failed", map[string]any{
				"resume_id": id,
				"file_path": path,
				"err":       err,
			})
		}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	telemetry.Info("resume.deleted", map[string]any{"resume_id": id, "user_id": ownerID})
	return nil
}
