package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/taskboard/internal/models"
)

func seedUser(t *testing.T, s *MemoryStore, email string) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), "Alice", email, "digest")
	require.NoError(t, err)
	return u
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := seedUser(t, s, "alice@example.com")
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = s.CreateUser(ctx, "Other", "ALICE@example.com", "x")
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	require.NoError(t, s.UpdatePassword(ctx, u.ID, "new-digest"))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-digest", got.Password)
	assert.ErrorIs(t, s.UpdatePassword(ctx, 42, "x"), models.ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStore_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "alice@example.com")

	created, err := s.CreateTask(ctx, &models.Task{AuthorID: u.ID, Title: "T1", Body: "B1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Alice", created.AuthorName)

	got, err := s.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", got.Title)
	assert.Equal(t, "B1", got.Body)

	updated, err := s.UpdateTask(ctx, created.ID, "T2", "B2")
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err = s.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "B2", got.Body)

	require.NoError(t, s.DeleteTask(ctx, created.ID))
	_, err = s.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, created.ID), models.ErrNotFound)

	_, err = s.UpdateTask(ctx, created.ID, "x", "y")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStore_ListOrderAndIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "alice@example.com")

	for _, title := range []string{"a", "b", "c"} {
		_, err := s.CreateTask(ctx, &models.Task{AuthorID: u.ID, Title: title, Body: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, s.DeleteTask(ctx, 2))

	// ids are never reused
	next, err := s.CreateTask(ctx, &models.Task{AuthorID: u.ID, Title: "d", Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID)

	list, err := s.ListTasks(ctx)
	require.NoError(t, err)
	var titles []string
	for _, task := range list {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"a", "c", "d"}, titles)
}

func TestMemoryStore_EmptyList(t *testing.T) {
	list, err := NewMemoryStore().ListTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMemoryStore_TaskNeedsAuthor(t *testing.T) {
	_, err := NewMemoryStore().CreateTask(context.Background(), &models.Task{AuthorID: 7, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
