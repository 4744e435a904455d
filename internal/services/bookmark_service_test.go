package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/testutil"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

func TestBookmarkService_ToggleTwiceRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBookmarkService(f.repo, f.db, testutil.Logger(), f.validator)

	user := testutil.CreateUser(t, f.db, "alice")
	q := testutil.CreateQuestion(t, f.db, "Two Sum", "arrays")

	created, err := svc.Toggle(ctx, user.ID, &ToggleBookmarkRequest{QuestionID: q.ID})
	require.NoError(t, err)
	assert.False(t, created.Deleted)
	require.NotNil(t, created.Bookmark)
	assert.Equal(t, "Two Sum", created.Bookmark.Question.Title)

	ok, err := svc.IsBookmarked(ctx, user.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := svc.Toggle(ctx, user.ID, &ToggleBookmarkRequest{QuestionID: q.ID})
	require.NoError(t, err)
	assert.True(t, removed.Deleted)
	assert.Nil(t, removed.Bookmark)

	var count int64
	require.NoError(t, f.db.Model(&models.Bookmark{}).
		Where("user_id = ? AND question_id = ?", user.ID, q.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestBookmarkService_ToggleUnknownQuestion(t *testing.T) {
	f := newFixture(t)
	svc := NewBookmarkService(f.repo, f.db, testutil.Logger(), f.validator)
	user := testutil.CreateUser(t, f.db, "alice")

	_, err := svc.Toggle(context.Background(), user.ID, &ToggleBookmarkRequest{QuestionID: 404})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestBookmarkService_IsBookmarkedRequiresQuestion(t *testing.T) {
	f := newFixture(t)
	svc := NewBookmarkService(f.repo, f.db, testutil.Logger(), f.validator)

	_, err := svc.IsBookmarked(context.Background(), 1, 0)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "question_id", verrs[0].Field)
}

func TestBookmarkService_UpdateAndDeleteAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBookmarkService(f.repo, f.db, testutil.Logger(), f.validator)

	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	q := testutil.CreateQuestion(t, f.db, "Two Sum", "arrays")

	res, err := svc.Toggle(ctx, alice.ID, &ToggleBookmarkRequest{QuestionID: q.ID})
	require.NoError(t, err)
	id := res.Bookmark.ID

	notes, solved := "use a hash map", true
	_, err = svc.Update(ctx, bob.ID, id, &UpdateBookmarkRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrBookmarkNotFound)

	updated, err := svc.Update(ctx, alice.ID, id, &UpdateBookmarkRequest{Notes: &notes, IsSolved: &solved})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.IsSolved)

	unsolved := false
	updated, err = svc.Update(ctx, alice.ID, id, &UpdateBookmarkRequest{IsSolved: &unsolved})
	require.NoError(t, err)
	assert.False(t, updated.IsSolved)
	assert.Equal(t, notes, updated.Notes)

	list, err := svc.List(ctx, alice.ID, models.PageParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, id), ErrBookmarkNotFound)
	require.NoError(t, svc.Delete(ctx, alice.ID, id))
	assert.ErrorIs(t, svc.Delete(ctx, alice.ID, id), ErrBookmarkNotFound)
}
