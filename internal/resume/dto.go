package resume

import "time"

// DocumentResponse is the outward-facing representation of a resume.
type DocumentResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	OwnerID    string     `json:"ownerId"`
	Status     string     `json:"status"`
	Content    Content    `json:"content"`
	FileName   string     `json:"fileName"`
	FileType   string     `json:"fileType"`
	FileSize   int64      `json:"fileSize"`
	FilePath   string     `json:"filePath"`
	FileURL    string     `json:"fileURL"`
	ParsedText string     `json:"parsedText"`
	UploadedAt *time.Time `json:"uploadedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// SummaryResponse is a list entry; it omits content and parsed text.
type SummaryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveResponse is returned by the content endpoint.
type SaveResponse struct {
	UpdatedAt time.Time `json:"updatedAt"`
}

type createRequest struct {
	Title string `json:"title"`
}

type titleRequest struct {
	Title *string `json:"title"`
}

type contentRequest struct {
	Content *Content `json:"content"`
}

// ToResponse converts a document to its wire form.
func ToResponse(doc Document) DocumentResponse {
	doc.Normalize()
	a := doc.Attachment
	return DocumentResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		OwnerID:    doc.OwnerID,
		Status:     doc.Content.Status,
		Content:    doc.Content,
		FileName:   a.FileName,
		FileType:   a.FileType,
		FileSize:   a.FileSize,
		FilePath:   a.FilePath,
		FileURL:    a.FileURL,
		ParsedText: a.ParsedText,
		UploadedAt: a.UploadedAt,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// FromResponse converts the wire form back to a document.
func FromResponse(r DocumentResponse) Document {
	doc := Document{
		ID:      r.ID,
		Title:   r.Title,
		OwnerID: r.OwnerID,
		Content: r.Content,
		Attachment: Attachment{
			FileName:   r.FileName,
			FileType:   r.FileType,
			FileSize:   r.FileSize,
			FilePath:   r.FilePath,
			FileURL:    r.FileURL,
			ParsedText: r.ParsedText,
			UploadedAt: r.UploadedAt,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if doc.Content.Status == "" {
		doc.Content.Status = r.Status
	}
	doc.Normalize()
	return doc
}

func toSummary(doc Document) SummaryResponse {
	return SummaryResponse{
		ID:        doc.ID,
		Title:     doc.Title,
		Status:    doc.Content.Status,
		FileName:  doc.Attachment.FileName,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
