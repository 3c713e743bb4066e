// Package gateway is the editor's boundary to resume persistence and chat.
package gateway

import (
	"context"
	"io"
	"time"

	"resume-studio/internal/resume"
)

// Turn is a persisted chat turn.
type Turn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Exchange is the pair of turns produced by one chat send.
type Exchange struct {
	UserTurn      Turn `json:"userMessage"`
	AssistantTurn Turn `json:"assistantMessage"`
}

// SaveResult carries the server timestamp of a content save.
type SaveResult struct {
	UpdatedAt time.Time `json:"updatedAt"`
}

// File is an attachment to upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Gateway is what the editor needs from the backend. Implementations return
// *Error for every failure.
type Gateway interface {
	CreateDocument(ctx context.Context, ownerID, title string) (resume.Document, error)
	LoadDocument(ctx context.Context, ownerID, docID string) (resume.Document, error)
	SaveContent(ctx context.Context, ownerID, docID string, content resume.Content) (SaveResult, error)
	ListChatTurns(ctx context.Context, ownerID, docID string, limit int) ([]Turn, error)
	SendChatTurn(ctx context.Context, ownerID, docID, text string) (Exchange, error)
	UploadAttachment(ctx context.Context, ownerID, docID string, file File) (resume.Attachment, error)
}
