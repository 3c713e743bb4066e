package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"resume-studio/internal/resume"
)

//go:embed templates/resume.html.tmpl
var templateFS embed.FS

var resumeTemplate = template.Must(template.ParseFS(templateFS, "templates/resume.html.tmpl"))

const unnamed = "Unnamed candidate"

type entryView struct {
	Title   string
	Period  string
	Bullets []string
}

type pageView struct {
	Name       string
	Basics     resume.Basics
	Contact    string
	Experience []entryView
	Education  []entryView
	Skills     []string
	Projects   []entryView
}

// RenderHTML renders the printable page for a resume.
func RenderHTML(doc resume.Document) (string, error) {
	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, buildView(doc.Content)); err != nil {
		return "", fmt.Errorf("render resume html: %w", err)
	}
	return buf.String(), nil
}

func buildView(c resume.Content) pageView {
	v := pageView{
		Name:    strings.TrimSpace(c.Basics.FullName),
		Basics:  c.Basics,
		Contact: joinNonEmpty("  •  ", c.Basics.Email, c.Basics.Phone, c.Basics.Location),
		Skills:  c.Skills,
	}
	if v.Name == "" {
		v.Name = unnamed
	}
	for _, e := range c.Experience {
		end := e.EndDate
		if end == "" {
			end = "Present"
		}
		v.Experience = append(v.Experience, entryView{
			Title:   joinNonEmpty(" • ", e.Role, e.Company),
			Period:  joinNonEmpty(" – ", e.StartDate, end),
			Bullets: e.Bullets,
		})
	}
	for _, e := range c.Education {
		v.Education = append(v.Education, entryView{
			Title:   joinNonEmpty(" • ", e.Degree, e.Institution),
			Period:  joinNonEmpty(" – ", e.StartYear, e.EndYear),
			Bullets: e.Details,
		})
	}
	for _, p := range c.Projects {
		v.Projects = append(v.Projects, entryView{
			Title:   joinNonEmpty(" – ", p.Name, p.Link),
			Bullets: p.Highlights,
		})
	}
	return v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// FileName is the download name for an exported resume.
func FileName(doc resume.Document) string {
	name := strings.ToLower(strings.TrimSpace(doc.Content.Basics.FullName))
	name = whitespaceRuns.ReplaceAllString(name, "-")
	if name == "" {
		name = "resume"
	}
	return name + "-" + doc.ID + ".pdf"
}
