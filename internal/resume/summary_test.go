package resume

import "testing"

func TestSummaryEmptyContent(t *testing.T) {
	if got := Summary(NewEmpty().Content); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}

func TestSummaryRendersSections(t *testing.T) {
	c := Content{
		Basics: Basics{FullName: "Ada Lovelace", Summary: "Analyst."},
		Experience: []ExperienceItem{{
			Role:      "Engineer",
			Company:   "Engines Ltd",
			StartDate: "1842",
			Bullets:   []string{"Wrote notes"},
		}},
		Education: []EducationItem{{Institution: "Home", EndYear: "1833"}},
		Skills:    []string{"Math", "Writing"},
		Projects:  []ProjectItem{{Name: "Note G", Link: "https://example.com"}},
	}

	want := "Name: Ada Lovelace\n\nHeadline: Unknown\n\nSummary: Analyst.\n\n" +
		"Experience:\nEngineer at Engines Ltd (1842 - Present)\n- Wrote notes\n\n" +
		"Education:\nDegree at Home (Start-1833)\n\n\n" +
		"Skills: Math, Writing\n\n" +
		"Projects:\nNote G (https://example.com)\n"
	if got := Summary(c); got != want {
		t.Fatalf("unexpected summary:\n%q\nwant:\n%q", got, want)
	}
}
