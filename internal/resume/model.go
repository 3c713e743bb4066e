package resume

import (
	"encoding/json"
	"time"
)

const (
	// StatusDraft is the status of every new resume.
	StatusDraft = "draft"
	// DefaultTitle is used when a resume has no title.
	DefaultTitle = "Untitled"
)

// Basics holds the contact block and summary.
type Basics struct {
	FullName string `json:"fullName"`
	Headline string `json:"headline"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Summary  string `json:"summary"`
}

// ExperienceItem is one role in the work history.
type ExperienceItem struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Company   string   `json:"company"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Bullets   []string `json:"bullets"`
}

// EducationItem is one degree or course of study.
type EducationItem struct {
	ID          string   `json:"id"`
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	StartYear   string   `json:"startYear"`
	EndYear     string   `json:"endYear"`
	Details     []string `json:"details"`
}

// ProjectItem is one portfolio entry.
type ProjectItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Link       string   `json:"link"`
	Highlights []string `json:"highlights"`
}

// Content is the persisted part of a resume. Its JSON form is what the
// content endpoint accepts and what the fingerprint is computed over.
type Content struct {
	Basics     Basics           `json:"basics"`
	Experience []ExperienceItem `json:"experience"`
	Education  []EducationItem  `json:"education"`
	Skills     []string         `json:"skills"`
	Projects   []ProjectItem    `json:"projects"`
	Status     string           `json:"status"`
}

// Attachment describes the uploaded source file of a resume.
type Attachment struct {
	FileName   string     `json:"fileName"`
	FileType   string     `json:"fileType"`
	FileSize   int64      `json:"fileSize"`
	FilePath   string     `json:"filePath"`
	FileURL    string     `json:"fileURL"`
	ParsedText string     `json:"parsedText"`
	UploadedAt *time.Time `json:"uploadedAt"`
}

// Document is a resume owned by a single user.
type Document struct {
	ID         string
	Title      string
	OwnerID    string
	Content    Content
	Attachment Attachment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Option overrides a field of a freshly built document.
type Option func(*Document)

// WithID sets the document ID.
func WithID(id string) Option { return func(d *Document) { d.ID = id } }

// WithOwner sets the owning user or guest ID.
func WithOwner(ownerID string) Option { return func(d *Document) { d.OwnerID = ownerID } }

// WithTitle sets the display title.
func WithTitle(title string) Option { return func(d *Document) { d.Title = title } }

// WithContent replaces the whole content with a copy of c.
func WithContent(c Content) Option { return func(d *Document) { d.Content = c.Clone() } }

// WithBasics sets the contact and headline block.
func WithBasics(b Basics) Option { return func(d *Document) { d.Content.Basics = b } }

// WithStatus sets the content status.
func WithStatus(status string) Option { return func(d *Document) { d.Content.Status = status } }

// WithSkills replaces the skill list. A nil slice yields an empty list.
func WithSkills(skills []string) Option {
	return func(d *Document) { d.Content.Skills = cloneStrings(skills) }
}

// WithAttachment records the uploaded source file.
func WithAttachment(a Attachment) Option {
	return func(d *Document) { d.Attachment = a.Clone() }
}

// WithTimes sets both timestamps.
func WithTimes(createdAt, updatedAt time.Time) Option {
	return func(d *Document) {
		d.CreatedAt = createdAt
		d.UpdatedAt = updatedAt
	}
}

// NewEmpty returns a normalized empty resume with the options applied.
func NewEmpty(opts ...Option) Document {
	now := time.Now().UTC()
	doc := Document{
		Title:     DefaultTitle,
		Content:   Content{Status: StatusDraft},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&doc)
		}
	}
	doc.Normalize()
	return doc
}

// Normalize replaces absent values with their empty defaults so that no
// slice is nil and status is never blank.
func (c *Content) Normalize() {
	if c.Experience == nil {
		c.Experience = []ExperienceItem{}
	}
	for i := range c.Experience {
		if c.Experience[i].Bullets == nil {
			c.Experience[i].Bullets = []string{}
		}
	}
	if c.Education == nil {
		c.Education = []EducationItem{}
	}
	for i := range c.Education {
		if c.Education[i].Details == nil {
			c.Education[i].Details = []string{}
		}
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Projects == nil {
		c.Projects = []ProjectItem{}
	}
	for i := range c.Projects {
		if c.Projects[i].Highlights == nil {
			c.Projects[i].Highlights = []string{}
		}
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
}

// Normalize normalizes the content and fills in the default title.
func (d *Document) Normalize() {
	d.Content.Normalize()
	if d.Title == "" {
		d.Title = DefaultTitle
	}
}

// Clone returns a deep copy of the content.
func (c Content) Clone() Content {
	out := c
	out.Experience = cloneSlice(c.Experience, ExperienceItem.Clone)
	out.Education = cloneSlice(c.Education, EducationItem.Clone)
	out.Skills = cloneStrings(c.Skills)
	out.Projects = cloneSlice(c.Projects, ProjectItem.Clone)
	return out
}

func (e ExperienceItem) Clone() ExperienceItem {
	e.Bullets = cloneStrings(e.Bullets)
	return e
}

func (e EducationItem) Clone() EducationItem {
	e.Details = cloneStrings(e.Details)
	return e
}

func (p ProjectItem) Clone() ProjectItem {
	p.Highlights = cloneStrings(p.Highlights)
	return p
}

// Clone returns a deep copy of the attachment.
func (a Attachment) Clone() Attachment {
	if a.UploadedAt != nil {
		t := *a.UploadedAt
		a.UploadedAt = &t
	}
	return a
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	d.Content = d.Content.Clone()
	d.Attachment = d.Attachment.Clone()
	return d
}

// Fingerprint serializes the persisted subset of the content after
// normalization. It is only compared for equality.
func Fingerprint(c Content) string {
	n := c.Clone()
	n.Normalize()
	raw, err := json.Marshal(n)
	if err != nil {
		// Content holds only strings and slices; Marshal cannot fail.
		panic(err)
	}
	return string(raw)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return []T{}
	}
	out := make([]T, len(in))
	for i := range in {
		out[i] = clone(in[i])
	}
	return out
}
