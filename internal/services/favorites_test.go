package services

import (
	"context"
	"testing"
	"time"

	"ahgapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestToggleFavorite(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "collector@example.com", models.UserRoleResearcher)
	obj := seedObject(t, tdb, "toggled-object", "")

	added, err := svc.Toggle(context.Background(), user.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)
	assert.True(t, added)

	favorites, _, err := svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, obj.Title, favorites[0].Title)
	assert.Equal(t, obj.Slug, favorites[0].Slug)

	is, err := svc.IsFavorite(context.Background(), user.ID, obj.ID)
	require.NoError(t, err)
	assert.True(t, is)

	added, err = svc.Toggle(context.Background(), user.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)
	assert.False(t, added)

	is, err = svc.IsFavorite(context.Background(), user.ID, obj.ID)
	require.NoError(t, err)
	assert.False(t, is)
}

func TestImportSlugs(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "importer@example.com", models.UserRoleResearcher)
	known := seedObject(t, tdb, "known-slug", "")
	already := seedObject(t, tdb, "already-favorite", "")

	_, err := svc.Toggle(context.Background(), user.ID, already.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)

	added, skipped, unresolved, err := svc.ImportSlugs(context.Background(), user.ID,
		[]string{known.Slug, already.Slug, "no-such-slug"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []string{"no-such-slug"}, unresolved)

	favorites, _, err := svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, favorites, 2)
}

func TestFolderOwnership(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	owner := seedUser(t, tdb, "owner@example.com", models.UserRoleResearcher)
	intruder := seedUser(t, tdb, "intruder@example.com", models.UserRoleResearcher)

	folder, err := svc.CreateFolder(context.Background(), owner.ID, "Thesis", "", "")
	require.NoError(t, err)

	_, err = svc.AddCustom(context.Background(), intruder.ID, "sneaky", "https://example.com", "", folder.ID)
	assert.ErrorIs(t, err, ErrNotFolderOwner)

	err = svc.DeleteFolder(context.Background(), intruder.ID, folder.ID)
	assert.ErrorIs(t, err, ErrNotFolderOwner)

	_, err = svc.ShareFolder(context.Background(), intruder.ID, folder.ID, nil)
	assert.ErrorIs(t, err, ErrNotFolderOwner)

	_, err = svc.CreateFolder(context.Background(), intruder.ID, "Nested", "", folder.ID)
	assert.ErrorIs(t, err, ErrNotFolderOwner)
}

func TestMoveToFolderAndBulkRemove(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "mover-fav@example.com", models.UserRoleResearcher)
	first := seedObject(t, tdb, "move-one", "")
	second := seedObject(t, tdb, "move-two", "")

	_, err := svc.Toggle(context.Background(), user.ID, first.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), user.ID, second.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)

	favorites, _, err := svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	ids := []string{favorites[0].ID, favorites[1].ID}

	folder, err := svc.CreateFolder(context.Background(), user.ID, "Sources", "", "")
	require.NoError(t, err)

	moved, err := svc.MoveToFolder(context.Background(), user.ID, folder.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	inFolder, _, err := svc.List(context.Background(), user.ID, ListQuery{FolderID: folder.ID})
	require.NoError(t, err)
	assert.Len(t, inFolder, 2)

	removed, err := svc.BulkRemove(context.Background(), user.ID, ids[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Another user's ids do nothing.
	other := seedUser(t, tdb, "other-remover@example.com", models.UserRoleResearcher)
	removed, err = svc.BulkRemove(context.Background(), other.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestDeleteFolderKeepsFavorites(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "keeper@example.com", models.UserRoleResearcher)
	obj := seedObject(t, tdb, "kept-object", "")

	folder, err := svc.CreateFolder(context.Background(), user.ID, "Doomed", "", "")
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), user.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)

	favorites, _, err := svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	_, err = svc.MoveToFolder(context.Background(), user.ID, folder.ID, []string{favorites[0].ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFolder(context.Background(), user.ID, folder.ID))

	folders, err := svc.ListFolders(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)

	favorites, _, err = svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Empty(t, favorites[0].FolderID)
}

func TestShareFolderLifecycle(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "sharer@example.com", models.UserRoleResearcher)
	obj := seedObject(t, tdb, "shared-object", "")

	folder, err := svc.CreateFolder(context.Background(), user.ID, "Public reading list", "", "")
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), user.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)
	favorites, _, err := svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	_, err = svc.MoveToFolder(context.Background(), user.ID, folder.ID, []string{favorites[0].ID})
	require.NoError(t, err)

	share, err := svc.ShareFolder(context.Background(), user.ID, folder.ID, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, share.Token)

	resolved, contents, err := svc.ResolveShare(context.Background(), share.Token)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, resolved.ID)
	assert.Len(t, contents, 1)

	_, _, err = svc.ResolveShare(context.Background(), "bogus-token")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestExpiredSharesRejectedAndCleaned(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "expired-sharer@example.com", models.UserRoleResearcher)

	folder, err := svc.CreateFolder(context.Background(), user.ID, "Stale", "", "")
	require.NoError(t, err)

	expired := time.Now().Add(-time.Hour)
	share, err := svc.ShareFolder(context.Background(), user.ID, folder.ID, &expired)
	require.NoError(t, err)

	_, _, err = svc.ResolveShare(context.Background(), share.Token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cleaned, err := svc.CleanupExpiredShares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleaned)

	var count int64
	require.NoError(t, tdb.Model(&models.FolderShare{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestListSearchSortAndPaging(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "browser@example.com", models.UserRoleResearcher)

	for _, title := range []string{"Harbour map", "Council minutes", "Harbour photographs"} {
		_, err := svc.AddCustom(context.Background(), user.ID, title, "https://example.org/"+title, "", "")
		require.NoError(t, err)
	}

	found, total, err := svc.List(context.Background(), user.ID, ListQuery{Search: "Harbour"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, found, 2)

	sorted, _, err := svc.List(context.Background(), user.ID, ListQuery{Sort: "title", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "Council minutes", sorted[0].Title)
	assert.Equal(t, "Harbour photographs", sorted[2].Title)

	paged, total, err := svc.List(context.Background(), user.ID, ListQuery{Sort: "title", Order: "asc", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
	assert.Equal(t, "Harbour photographs", paged[0].Title)
}

func TestClearAll(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	user := seedUser(t, tdb, "clearer@example.com", models.UserRoleResearcher)
	other := seedUser(t, tdb, "bystander@example.com", models.UserRoleResearcher)
	obj := seedObject(t, tdb, "cleared-object", "")

	_, err := svc.Toggle(context.Background(), user.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)
	_, err = svc.AddCustom(context.Background(), user.ID, "loose end", "https://example.org", "", "")
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), other.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)

	removed, err := svc.ClearAll(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	mine, _, err := svc.List(context.Background(), user.ID, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, _, err := svc.List(context.Background(), other.ID, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestRenameFolder(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	owner := seedUser(t, tdb, "renamer@example.com", models.UserRoleResearcher)
	intruder := seedUser(t, tdb, "meddler@example.com", models.UserRoleResearcher)

	folder, err := svc.CreateFolder(context.Background(), owner.ID, "Drafts", "", "")
	require.NoError(t, err)

	err = svc.RenameFolder(context.Background(), intruder.ID, folder.ID, "Hijacked", "")
	assert.ErrorIs(t, err, ErrNotFolderOwner)

	require.NoError(t, svc.RenameFolder(context.Background(), owner.ID, folder.ID, "Thesis sources", "Chapter two"))

	folders, err := svc.ListFolders(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Thesis sources", folders[0].Name)
	assert.Equal(t, "Chapter two", folders[0].Description)
}

func TestCopySharedFolder(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewFavoritesService(tdb)
	owner := seedUser(t, tdb, "curator@example.com", models.UserRoleResearcher)
	visitor := seedUser(t, tdb, "visitor@example.com", models.UserRoleResearcher)
	obj := seedObject(t, tdb, "copied-object", "")

	folder, err := svc.CreateFolder(context.Background(), owner.ID, "Reading list", "", "")
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), owner.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)
	ownerFavorites, _, err := svc.List(context.Background(), owner.ID, ListQuery{})
	require.NoError(t, err)
	_, err = svc.MoveToFolder(context.Background(), owner.ID, folder.ID, []string{ownerFavorites[0].ID})
	require.NoError(t, err)

	share, err := svc.ShareFolder(context.Background(), owner.ID, folder.ID, nil)
	require.NoError(t, err)

	// The visitor already favorited the object, so the copy skips it.
	_, err = svc.Toggle(context.Background(), visitor.ID, obj.ID, models.ObjectTypeInformationObject)
	require.NoError(t, err)

	copied, skipped, err := svc.CopyShared(context.Background(), visitor.ID, share.Token)
	require.NoError(t, err)
	assert.Equal(t, 0, copied)
	assert.Equal(t, 1, skipped)

	// After clearing, the same token copies the item over.
	_, err = svc.ClearAll(context.Background(), visitor.ID)
	require.NoError(t, err)

	copied, skipped, err = svc.CopyShared(context.Background(), visitor.ID, share.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)
	assert.Equal(t, 0, skipped)

	theirs, _, err := svc.List(context.Background(), visitor.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, obj.ID, theirs[0].ObjectID)

	_, _, err = svc.CopyShared(context.Background(), visitor.ID, "bogus-token")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
