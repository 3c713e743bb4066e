package gateway

import (
	"context"
	"errors"
	"time"

	"resume-studio/internal/chats"
	"resume-studio/internal/resume"
	"resume-studio/internal/uploads"
)

// ResumeService is the part of resume.Service the in-process gateway uses.
type ResumeService interface {
	Create(ctx context.Context, ownerID, title string) (resume.Document, error)
	Get(ctx context.Context, ownerID, id string) (resume.Document, error)
	SaveContent(ctx context.Context, ownerID, id string, content resume.Content) (time.Time, error)
}

// ChatService is the part of chats.Service the in-process gateway uses.
type ChatService interface {
	History(ctx context.Context, ownerID, resumeID string, limit int) ([]chats.Turn, error)
	Send(ctx context.Context, ownerID, resumeID, message string) (chats.Exchange, error)
}

// UploadService is the part of uploads.Service the in-process gateway uses.
type UploadService interface {
	Upload(ctx context.Context, ownerID, resumeID string, f uploads.File) (uploads.Result, error)
}

// Local calls the services directly. Useful for tests and embedding the
// editor next to the API.
type Local struct {
	Resumes ResumeService
	Chats   ChatService
	Uploads UploadService
}

var _ Gateway = (*Local)(nil)

func (l *Local) CreateDocument(ctx context.Context, ownerID, title string) (resume.Document, error) {
	if ownerID == "" {
		return resume.Document{}, errUnauthorized()
	}
	doc, err := l.Resumes.Create(ctx, ownerID, title)
	if err != nil {
		return resume.Document{}, mapError(err, "Unable to create resume.")
	}
	return doc, nil
}

func (l *Local) LoadDocument(ctx context.Context, ownerID, docID string) (resume.Document, error) {
	if ownerID == "" {
		return resume.Document{}, errUnauthorized()
	}
	doc, err := l.Resumes.Get(ctx, ownerID, docID)
	if err != nil {
		return resume.Document{}, mapError(err, "Unable to load resume.")
	}
	return doc, nil
}

func (l *Local) SaveContent(ctx context.Context, ownerID, docID string, content resume.Content) (SaveResult, error) {
	if ownerID == "" {
		return SaveResult{}, errUnauthorized()
	}
	at, err := l.Resumes.SaveContent(ctx, ownerID, docID, content)
	if err != nil {
		return SaveResult{}, mapError(err, "Unable to save resume.")
	}
	return SaveResult{UpdatedAt: at}, nil
}

func (l *Local) ListChatTurns(ctx context.Context, ownerID, docID string, limit int) ([]Turn, error) {
	if ownerID == "" {
		return nil, errUnauthorized()
	}
	turns, err := l.Chats.History(ctx, ownerID, docID, limit)
	if err != nil {
		return nil, mapError(err, "Unable to load chat history.")
	}
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, fromChatTurn(t))
	}
	return out, nil
}

func (l *Local) SendChatTurn(ctx context.Context, ownerID, docID, text string) (Exchange, error) {
	if ownerID == "" {
		return Exchange{}, errUnauthorized()
	}
	ex, err := l.Chats.Send(ctx, ownerID, docID, text)
	if err != nil {
		return Exchange{}, mapError(err, "Unable to send message.")
	}
	return Exchange{UserTurn: fromChatTurn(ex.User), AssistantTurn: fromChatTurn(ex.Assistant)}, nil
}

func (l *Local) UploadAttachment(ctx context.Context, ownerID, docID string, file File) (resume.Attachment, error) {
	if ownerID == "" {
		return resume.Attachment{}, errUnauthorized()
	}
	res, err := l.Uploads.Upload(ctx, ownerID, docID, uploads.File{
		Name:        file.Name,
		ContentType: file.ContentType,
		Body:        file.Body,
	})
	if err != nil {
		return resume.Attachment{}, mapError(err, "Unable to upload file.")
	}
	return res.Attachment, nil
}

func fromChatTurn(t chats.Turn) Turn {
	return Turn{ID: t.ID, Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt}
}

func errUnauthorized() *Error {
	return newError(KindUnauthorized, "Sign in to continue.", nil)
}

func mapError(err error, fallback string) *Error {
	switch {
	case errors.Is(err, resume.ErrNotFound):
		return newError(KindNotFound, "Resume not found.", err)
	case errors.Is(err, resume.ErrForbidden):
		return newError(KindForbidden, "You do not have access to this resume.", err)
	case errors.Is(err, resume.ErrInvalidInput):
		return newError(KindValidation, "Resume identifier is missing.", err)
	case errors.Is(err, chats.ErrInvalidInput):
		return newError(KindValidation, "Message content is required.", err)
	case errors.Is(err, chats.ErrSendInProgress):
		return newError(KindValidation, "A reply is already being generated.", err)
	case errors.Is(err, chats.ErrAssistantUnavailable):
		return newError(KindUnavailable, "The assistant is unavailable right now. Please try again.", err)
	case errors.Is(err, uploads.ErrMissingFile),
		errors.Is(err, uploads.ErrNotPDF),
		errors.Is(err, uploads.ErrTooLarge),
		errors.Is(err, uploads.ErrInvalidFileName):
		return newError(KindValidation, err.Error(), err)
	default:
		return newError(KindUnavailable, fallback, err)
	}
}
