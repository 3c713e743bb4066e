package resume

import (
	"context"
	"time"
)

// Repo defines persistence operations for resumes. GetByID is not scoped to
// an owner; ownership is enforced by the service.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	UpdateTitle(ctx context.Context, id, title string, updatedAt time.Time) error
	UpdateContent(ctx context.Context, id string, content Content, updatedAt time.Time) error
	UpdateAttachment(ctx context.Context, id string, att Attachment, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}
