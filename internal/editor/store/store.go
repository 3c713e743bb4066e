// Package store holds the resume being edited and its save bookkeeping.
//
// The Store is the only write surface for the in-memory document. Every
// mutation publishes a new *resume.Document; published documents are shared
// with observers and readers and must be treated as read-only.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"resume-studio/internal/resume"
)

// Section names a top-level part of the resume content.
type Section string

const (
	SectionBasics     Section = "basics"
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
	SectionProjects   Section = "projects"
	SectionStatus     Section = "status"
)

// Sections lists every editable section in display order.
var Sections = []Section{
	SectionBasics, SectionExperience, SectionEducation, SectionSkills, SectionProjects, SectionStatus,
}

var (
	ErrClosed         = errors.New("store: closed")
	ErrUnknownSection = errors.New("store: unknown section")
	ErrSectionType    = errors.New("store: value has the wrong type for section")
)

// Updater derives a new section value from a deep copy of the current one.
type Updater func(current any) (any, error)

// Set returns an Updater that replaces the section with value.
func Set(value any) Updater {
	return func(any) (any, error) { return value, nil }
}

// SaveState is the autosave bookkeeping for the current document.
type SaveState struct {
	Saving             bool
	LastSavedAt        *time.Time
	LastSyncedSnapshot *string
}

func (s SaveState) clone() SaveState {
	if s.LastSavedAt != nil {
		t := *s.LastSavedAt
		s.LastSavedAt = &t
	}
	if s.LastSyncedSnapshot != nil {
		v := *s.LastSyncedSnapshot
		s.LastSyncedSnapshot = &v
	}
	return s
}

// Event is delivered to observers after every mutation.
type Event struct {
	Document       *resume.Document
	Save           SaveState
	ContentChanged bool
}

// Observer receives store events. It runs outside the store lock and may
// call back into the store.
type Observer func(Event)

// AttachmentMeta is the result of an upload merged into the document.
type AttachmentMeta struct {
	resume.Attachment
	// KeepParsedText preserves the current parsed text when ParsedText is empty.
	KeepParsedText bool
	// UpdatedAt is the server timestamp, if known. Zero means now.
	UpdatedAt time.Time
}

type observerEntry struct {
	id int
	fn Observer
}

// Store is an explicit state container for one editing session.
type Store struct {
	mu        sync.Mutex
	doc       *resume.Document
	save      SaveState
	observers []observerEntry
	nextID    int
	closed    bool
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store holding an empty resume.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	doc := resume.NewEmpty()
	s.doc = &doc
	return s
}

// Document returns the current document. Callers must not modify it.
func (s *Store) Document() *resume.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// SaveState returns a copy of the save bookkeeping.
func (s *Store) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save.clone()
}

// ReplaceDocument installs a freshly loaded or created document and resets
// the save state so that it counts as synced.
func (s *Store) ReplaceDocument(doc resume.Document) {
	next := doc.Clone()
	next.Normalize()
	snapshot := resume.Fingerprint(next.Content)

	var saved *time.Time
	if !next.UpdatedAt.IsZero() {
		t := next.UpdatedAt
		saved = &t
	}
	s.mutate(true, func() bool {
		s.doc = &next
		s.save = SaveState{LastSavedAt: saved, LastSyncedSnapshot: &snapshot}
		return true
	})
}

// Reset returns the store to an empty, never-synced document.
func (s *Store) Reset() {
	empty := resume.NewEmpty()
	s.mutate(true, func() bool {
		s.doc = &empty
		s.save = SaveState{}
		return true
	})
}

// UpdateSection applies updater to a copy of the section's value. If the
// updater fails, panics, or returns a value of the wrong type the document is
// left untouched and the error is returned.
func (s *Store) UpdateSection(key Section, updater Updater) error {
	if updater == nil {
		return fmt.Errorf("store: nil updater for %s", key)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	cur := s.doc
	s.mu.Unlock()

	// The updater runs without the lock so that it may read the store; the
	// result is applied only if no other mutation happened meanwhile.
	for {
		current, err := sectionValue(cur.Content, key)
		if err != nil {
			return err
		}
		value, err := runUpdater(key, updater, current)
		if err != nil {
			return err
		}
		next := *cur
		if err := setSection(&next.Content, key, value); err != nil {
			return err
		}

		applied := false
		retry := false
		s.mutate(true, func() bool {
			if s.closed {
				return false
			}
			if s.doc != cur {
				cur = s.doc
				retry = true
				return false
			}
			next.UpdatedAt = s.now().UTC()
			s.doc = &next
			applied = true
			return true
		})
		switch {
		case applied:
			return nil
		case retry:
			continue
		default:
			return ErrClosed
		}
	}
}

// Update is a typed helper around UpdateSection.
func Update[T any](s *Store, key Section, fn func(T) (T, error)) error {
	return s.UpdateSection(key, func(current any) (any, error) {
		v, ok := current.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %T", ErrSectionType, key, current)
		}
		return fn(v)
	})
}

// SetAttachmentMetadata merges upload results into the document.
func (s *Store) SetAttachmentMetadata(meta AttachmentMeta) {
	s.mutate(false, func() bool {
		next := *s.doc
		att := meta.Attachment.Clone()
		if att.ParsedText == "" && meta.KeepParsedText {
			att.ParsedText = next.Attachment.ParsedText
		}
		next.Attachment = att
		if meta.UpdatedAt.IsZero() {
			next.UpdatedAt = s.now().UTC()
		} else {
			next.UpdatedAt = meta.UpdatedAt
		}
		s.doc = &next
		return true
	})
}

// MarkSaving records whether a save is in flight.
func (s *Store) MarkSaving(saving bool) {
	s.mutate(false, func() bool {
		if s.save.Saving == saving {
			return false
		}
		s.save.Saving = saving
		return true
	})
}

// MarkSaved records the time of the last successful save.
func (s *Store) MarkSaved(at time.Time) {
	s.mutate(false, func() bool {
		s.save.LastSavedAt = &at
		return true
	})
}

// MarkSynced records the fingerprint of the content last written.
func (s *Store) MarkSynced(snapshot string) {
	s.mutate(false, func() bool {
		s.save.LastSyncedSnapshot = &snapshot
		return true
	})
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Close tears the store down. Later mutations are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.observers = nil
}

// mutate runs fn under the lock and, if it reports a change, notifies
// observers after unlocking.
func (s *Store) mutate(contentChanged bool, fn func() bool) {
	s.mu.Lock()
	if s.closed || !fn() {
		s.mu.Unlock()
		return
	}
	ev := Event{Document: s.doc, Save: s.save.clone(), ContentChanged: contentChanged}
	observers := make([]Observer, len(s.observers))
	for i, o := range s.observers {
		observers[i] = o.fn
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

func runUpdater(key Section, updater Updater, current any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = nil
			err = fmt.Errorf("store: updater for %s panicked: %v", key, rec)
		}
	}()
	return updater(current)
}

func sectionValue(c resume.Content, key Section) (any, error) {
	switch key {
	case SectionBasics:
		return c.Basics, nil
	case SectionExperience:
		return cloneExperience(c.Experience), nil
	case SectionEducation:
		return cloneEducation(c.Education), nil
	case SectionSkills:
		return append([]string{}, c.Skills...), nil
	case SectionProjects:
		return cloneProjects(c.Projects), nil
	case SectionStatus:
		return c.Status, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
}

func setSection(c *resume.Content, key Section, value any) error {
	wrongType := func() error {
		return fmt.Errorf("%w: %s cannot hold %T", ErrSectionType, key, value)
	}
	switch key {
	case SectionBasics:
		v, ok := value.(resume.Basics)
		if !ok {
			return wrongType()
		}
		c.Basics = v
	case SectionExperience:
		v, ok := value.([]resume.ExperienceItem)
		if !ok {
			return wrongType()
		}
		c.Experience = cloneExperience(v)
	case SectionEducation:
		v, ok := value.([]resume.EducationItem)
		if !ok {
			return wrongType()
		}
		c.Education = cloneEducation(v)
	case SectionSkills:
		v, ok := value.([]string)
		if !ok {
			return wrongType()
		}
		c.Skills = append([]string{}, v...)
	case SectionProjects:
		v, ok := value.([]resume.ProjectItem)
		if !ok {
			return wrongType()
		}
		c.Projects = cloneProjects(v)
	case SectionStatus:
		v, ok := value.(string)
		if !ok {
			return wrongType()
		}
		if v == "" {
			v = resume.StatusDraft
		}
		c.Status = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
	return nil
}

func cloneExperience(in []resume.ExperienceItem) []resume.ExperienceItem {
	out := make([]resume.ExperienceItem, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneEducation(in []resume.EducationItem) []resume.EducationItem {
	out := make([]resume.EducationItem, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneProjects(in []resume.ProjectItem) []resume.ProjectItem {
	out := make([]resume.ProjectItem, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
