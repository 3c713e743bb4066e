package resume

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	deleted   []string
	deleteErr error
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, nil
}

func (s *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func newTestService(store *fakeStore) (*Service, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepo(), store)
	svc.Now = func() time.Time { return now }
	return svc, &now
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	ctx := context.Background()

	doc, err := svc.Create(ctx, "user-1", "  ")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, StatusDraft, doc.Content.Status)

	got, err := svc.Get(ctx, "user-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "user-1", got.OwnerID)
}

func TestServiceGetRejectsOtherOwner(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	ctx := context.Background()
	doc, err := svc.Create(ctx, "user-1", "Mine")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-2", doc.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "user-1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceSaveContentNormalizesAndStamps(t *testing.T) {
	svc, now := newTestService(&fakeStore{})
	ctx := context.Background()
	doc, err := svc.Create(ctx, "user-1", "")
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	updatedAt, err := svc.SaveContent(ctx, "user-1", doc.ID, Content{Skills: []string{"Go"}})
	require.NoError(t, err)
	assert.True(t, updatedAt.Equal(*now))

	got, err := svc.Get(ctx, "user-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got.Content.Skills)
	assert.Equal(t, StatusDraft, got.Content.Status)
	assert.NotNil(t, got.Content.Experience)
	assert.True(t, got.UpdatedAt.Equal(*now))
}

func TestServiceListOrdersByUpdate(t *testing.T) {
	svc, now := newTestService(&fakeStore{})
	ctx := context.Background()
	first, err := svc.Create(ctx, "user-1", "First")
	require.NoError(t, err)
	*now = now.Add(time.Minute)
	second, err := svc.Create(ctx, "user-1", "Second")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", "Other")
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	_, err = svc.UpdateTitle(ctx, "user-1", first.ID, "First renamed")
	require.NoError(t, err)

	docs, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first.ID, docs[0].ID)
	assert.Equal(t, "First renamed", docs[0].Title)
	assert.Equal(t, second.ID, docs[1].ID)
}

func TestServiceDeleteRemovesFileAndToleratesFailure(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("storage down")}
	svc, _ := newTestService(store)
	ctx := context.Background()
	doc, err := svc.Create(ctx, "user-1", "")
	require.NoError(t, err)
	_, err = svc.SetAttachment(ctx, "user-1", doc.ID, Attachment{FileName: "cv.pdf", FilePath: "uploads/x/cv.pdf"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-1", doc.ID))
	assert.Equal(t, []string{"uploads/x/cv.pdf"}, store.deleted)

	_, err = svc.Get(ctx, "user-1", doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDeleteForbiddenKeepsResume(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(store)
	ctx := context.Background()
	doc, err := svc.Create(ctx, "user-1", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "user-2", doc.ID), ErrForbidden)
	assert.Empty(t, store.deleted)
	_, err = svc.Get(ctx, "user-1", doc.ID)
	assert.NoError(t, err)
}
