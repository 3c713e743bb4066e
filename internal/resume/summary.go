package resume

import "strings"

// Summary renders the content as plain text for prompting. It returns an
// empty string when the resume has nothing worth describing.
func Summary(c Content) string {
	var parts []string

	b := c.Basics
	if b.FullName != "" || b.Headline != "" {
		parts = append(parts,
			"Name: "+orDefault(b.FullName, "Unknown"),
			"Headline: "+orDefault(b.Headline, "Unknown"),
		)
	}
	if b.Summary != "" {
		parts = append(parts, "Summary: "+b.Summary)
	}

	if len(c.Experience) > 0 {
		items := make([]string, 0, len(c.Experience))
		for _, item := range c.Experience {
			head := orDefault(item.Role, "Role") + " at " + orDefault(item.Company, "Company") +
				" (" + orDefault(item.StartDate, "Start") + " - " + orDefault(item.EndDate, "Present") + ")"
			items = append(items, head+"\n"+bulletList(item.Bullets))
		}
		parts = append(parts, "Experience:\n"+strings.Join(items, "\n"))
	}

	if len(c.Education) > 0 {
		items := make([]string, 0, len(c.Education))
		for _, item := range c.Education {
			head := orDefault(item.Degree, "Degree") + " at " + orDefault(item.Institution, "Institution") +
				" (" + orDefault(item.StartYear, "Start") + "-" + orDefault(item.EndYear, "End") + ")"
			items = append(items, head+"\n"+bulletList(item.Details))
		}
		parts = append(parts, "Education:\n"+strings.Join(items, "\n"))
	}

	if len(c.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(c.Skills, ", "))
	}

	if len(c.Projects) > 0 {
		items := make([]string, 0, len(c.Projects))
		for _, p := range c.Projects {
			head := orDefault(p.Name, "Project")
			if p.Link != "" {
				head += " (" + p.Link + ")"
			}
			items = append(items, head+"\n"+bulletList(p.Highlights))
		}
		parts = append(parts, "Projects:\n"+strings.Join(items, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

func bulletList(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "- " + l
	}
	return strings.Join(out, "\n")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
