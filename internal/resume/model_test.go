package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyNormalizesSkills(t *testing.T) {
	a := NewEmpty()
	b := NewEmpty(WithSkills(nil))

	require.NotNil(t, a.Content.Skills)
	require.NotNil(t, b.Content.Skills)
	assert.Empty(t, a.Content.Skills)
	assert.Empty(t, b.Content.Skills)
	assert.Equal(t, StatusDraft, a.Content.Status)
	assert.Equal(t, DefaultTitle, a.Title)
	assert.NotNil(t, a.Content.Experience)
	assert.NotNil(t, a.Content.Education)
	assert.NotNil(t, a.Content.Projects)
}

func TestNewEmptyAppliesOverrides(t *testing.T) {
	doc := NewEmpty(
		WithID("r-1"),
		WithOwner("u-1"),
		WithTitle(""),
		WithBasics(Basics{FullName: "Ada Lovelace"}),
		WithStatus(""),
	)

	assert.Equal(t, "r-1", doc.ID)
	assert.Equal(t, "u-1", doc.OwnerID)
	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, "Ada Lovelace", doc.Content.Basics.FullName)
	assert.Equal(t, StatusDraft, doc.Content.Status)
}

func TestNormalizeFillsNestedLists(t *testing.T) {
	c := Content{
		Experience: []ExperienceItem{{ID: "e1"}},
		Education:  []EducationItem{{ID: "ed1"}},
		Projects:   []ProjectItem{{ID: "p1"}},
	}
	c.Normalize()

	assert.NotNil(t, c.Experience[0].Bullets)
	assert.NotNil(t, c.Education[0].Details)
	assert.NotNil(t, c.Projects[0].Highlights)
}

func TestFingerprintIgnoresNilVersusEmpty(t *testing.T) {
	withNil := Content{Basics: Basics{FullName: "Ada"}}
	withEmpty := Content{
		Basics:     Basics{FullName: "Ada"},
		Experience: []ExperienceItem{},
		Education:  []EducationItem{},
		Skills:     []string{},
		Projects:   []ProjectItem{},
		Status:     StatusDraft,
	}

	assert.Equal(t, Fingerprint(withNil), Fingerprint(withEmpty))
}

func TestFingerprintDetectsChanges(t *testing.T) {
	base := NewEmpty().Content
	changed := base.Clone()
	changed.Skills = append(changed.Skills, "Go")

	assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))
}

func TestFingerprintDoesNotMutateInput(t *testing.T) {
	c := Content{}
	_ = Fingerprint(c)
	assert.Nil(t, c.Skills)
	assert.Empty(t, c.Status)
}

func TestCloneIsDeep(t *testing.T) {
	orig := Content{
		Experience: []ExperienceItem{{ID: "e1", Bullets: []string{"shipped"}}},
		Skills:     []string{"Go"},
	}
	cp := orig.Clone()
	cp.Experience[0].Bullets[0] = "changed"
	cp.Skills[0] = "Rust"

	assert.Equal(t, "shipped", orig.Experience[0].Bullets[0])
	assert.Equal(t, "Go", orig.Skills[0])
}
