package resume

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Content is stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, owner_id, title, status, content, file_name, file_type, file_size, file_path, file_url, parsed_text, uploaded_at, created_at, updated_at
FROM resumes`

// Create inserts a new resume.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO resumes (
    id,
    owner_id,
    title,
    status,
    content,
    file_name,
    file_type,
    file_size,
    file_path,
    file_url,
    parsed_text,
    uploaded_at,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	doc.Normalize()
	raw, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	a := doc.Attachment
	_, err = r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.Content.Status,
		raw,
		a.FileName,
		a.FileType,
		a.FileSize,
		a.FilePath,
		a.FileURL,
		a.ParsedText,
		nullTime(a.UploadedAt),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a resume by ID regardless of owner.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByOwner lists resumes ordered by most recent update.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE owner_id = $1
ORDER BY updated_at DESC, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateTitle renames a resume.
func (r *PGRepo) UpdateTitle(ctx context.Context, id, title string, updatedAt time.Time) error {
	const query = `UPDATE resumes SET title = $2, updated_at = $3 WHERE id = $1`
	return execOne(ctx, r.DB, query, id, title, updatedAt)
}

// UpdateContent overwrites the content snapshot and its status.
func (r *PGRepo) UpdateContent(ctx context.Context, id string, content Content, updatedAt time.Time) error {
	const query = `UPDATE resumes SET content = $2, status = $3, updated_at = $4 WHERE id = $1`
	content.Normalize()
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	return execOne(ctx, r.DB, query, id, raw, content.Status, updatedAt)
}

// UpdateAttachment replaces the attachment metadata.
func (r *PGRepo) UpdateAttachment(ctx context.Context, id string, a Attachment, updatedAt time.Time) error {
	const query = `
UPDATE resumes
SET file_name = $2,
    file_type = $3,
    file_size = $4,
    file_path = $5,
    file_url = $6,
    parsed_text = $7,
    uploaded_at = $8,
    updated_at = $9
WHERE id = $1`
	return execOne(ctx, r.DB, query, id,
		a.FileName, a.FileType, a.FileSize, a.FilePath, a.FileURL, a.ParsedText,
		nullTime(a.UploadedAt), updatedAt)
}

// Delete removes a resume; its chat turns cascade.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, `DELETE FROM resumes WHERE id = $1`, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var (
		doc        Document
		status     string
		raw        []byte
		uploadedAt sql.NullTime
	)
	err := s.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&status,
		&raw,
		&doc.Attachment.FileName,
		&doc.Attachment.FileType,
		&doc.Attachment.FileSize,
		&doc.Attachment.FilePath,
		&doc.Attachment.FileURL,
		&doc.Attachment.ParsedText,
		&uploadedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc.Content); err != nil {
			return Document{}, fmt.Errorf("decode content for resume %s: %w", doc.ID, err)
		}
	}
	if doc.Content.Status == "" {
		doc.Content.Status = status
	}
	if uploadedAt.Valid {
		t := uploadedAt.Time
		doc.Attachment.UploadedAt = &t
	}
	doc.Normalize()
	return doc, nil
}

func execOne(ctx context.Context, db *sql.DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
