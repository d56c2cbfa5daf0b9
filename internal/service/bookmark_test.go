package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bookmarkd/bookmarkd/internal/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	return conn
}

func newTestUser(t *testing.T, conn *gorm.DB, email string) *db.User {
	t.Helper()

	user := db.User{
		Email:    email,
		Password: "hash",
	}
	require.NoError(t, conn.Create(&user).Error)

	return &user
}

func strPtr(s string) *string {
	return &s
}

func TestBookmarkCreateAndList(t *testing.T) {
	conn := newTestDB(t)
	svc := NewBookmark(conn, zap.NewNop().Sugar())

	owner := newTestUser(t, conn, "owner@example.com")
	other := newTestUser(t, conn, "other@example.com")

	created, err := svc.Create(owner.ID, "First Bookmark", "https://example.com/x", strPtr("a link"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, owner.ID, created.UserID)
	assert.Equal(t, "First Bookmark", created.Title)
	assert.Equal(t, "https://example.com/x", created.Link)
	require.NotNil(t, created.Description)
	assert.Equal(t, "a link", *created.Description)

	list, err := svc.List(owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	otherList, err := svc.List(other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherList)
}

func TestBookmarkGetHidesForeignRecords(t *testing.T) {
	conn := newTestDB(t)
	svc := NewBookmark(conn, zap.NewNop().Sugar())

	owner := newTestUser(t, conn, "owner@example.com")
	other := newTestUser(t, conn, "other@example.com")

	created, err := svc.Create(owner.ID, "mine", "https://example.com", nil)
	require.NoError(t, err)

	got, err := svc.Get(owner.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	// foreign and missing records are indistinguishable
	got, err = svc.Get(other.ID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Get(owner.ID, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBookmarkUpdate(t *testing.T) {
	conn := newTestDB(t)
	svc := NewBookmark(conn, zap.NewNop().Sugar())

	owner := newTestUser(t, conn, "owner@example.com")

	created, err := svc.Create(owner.ID, "old title", "https://example.com", strPtr("old desc"))
	require.NoError(t, err)

	patch := BookmarkPatch{
		Title:       strPtr("new title"),
		Description: strPtr("new desc"),
	}
	updated, err := svc.Update(owner.ID, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "new desc", *updated.Description)
	assert.Equal(t, "https://example.com", updated.Link)

	got, err := svc.Get(owner.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "https://example.com", got.Link)

	// reapplying the same patch changes nothing
	again, err := svc.Update(owner.ID, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, updated.Title, again.Title)
	assert.Equal(t, updated.Link, again.Link)
	assert.Equal(t, *updated.Description, *again.Description)
}

func TestBookmarkUpdateDenied(t *testing.T) {
	conn := newTestDB(t)
	svc := NewBookmark(conn, zap.NewNop().Sugar())

	owner := newTestUser(t, conn, "owner@example.com")
	other := newTestUser(t, conn, "other@example.com")

	created, err := svc.Create(owner.ID, "mine", "https://example.com", nil)
	require.NoError(t, err)

	_, err = svc.Update(other.ID, created.ID, BookmarkPatch{Title: strPtr("hijacked")})
	assert.Equal(t, ErrAccessDenied, err)

	_, err = svc.Update(owner.ID, created.ID+100, BookmarkPatch{Title: strPtr("ghost")})
	assert.Equal(t, ErrAccessDenied, err)

	got, err := svc.Get(owner.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mine", got.Title)
}

func TestBookmarkDelete(t *testing.T) {
	conn := newTestDB(t)
	svc := NewBookmark(conn, zap.NewNop().Sugar())

	owner := newTestUser(t, conn, "owner@example.com")
	other := newTestUser(t, conn, "other@example.com")

	created, err := svc.Create(owner.ID, "mine", "https://example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, ErrAccessDenied, svc.Delete(other.ID, created.ID))

	require.NoError(t, svc.Delete(owner.ID, created.ID))

	got, err := svc.Get(owner.ID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := svc.List(owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// already gone surfaces as denied, not as success
	assert.Equal(t, ErrAccessDenied, svc.Delete(owner.ID, created.ID))
}
