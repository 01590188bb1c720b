package services

import (
	"context"
	"errors"
	"time"

	"ahgapi/internal/models"
	"ahgapi/internal/utils"
	"ahgapi/internal/utils/logger"

	"gorm.io/gorm"
)

var ErrNotFolderOwner = errors.New("folder does not belong to user")

// FavoritesService manages the researcher workspace: favorites,
// folders and shared folder links.
type FavoritesService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewFavoritesService(db *gorm.DB) *FavoritesService {
	return &FavoritesService{
		db:     db,
		logger: logger.New("FAVORITES"),
	}
}

// Toggle adds the object to the user's favorites, or removes it when
// already present. Returns true when the object is now a favorite.
func (s *FavoritesService) Toggle(ctx context.Context, userID, objectID string, objectType models.ObjectType) (bool, error) {
	var existing models.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND object_id = ? AND object_type = ? AND is_deleted = ?", userID, objectID, objectType, false).
		First(&existing).Error

	if err == nil {
		if delErr := s.db.WithContext(ctx).Unscoped().Delete(&existing).Error; delErr != nil {
			return true, delErr
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	favorite := models.Favorite{
		UserID:     userID,
		ObjectID:   objectID,
		ObjectType: objectType,
	}

	// Denormalise display fields so lists render without joining the
	// catalogue tables.
	if obj, lookErr := models.GetObjectByID(s.db.WithContext(ctx), objectID); lookErr == nil {
		favorite.Title = obj.Title
		favorite.Slug = obj.Slug
		favorite.ReferenceCode = obj.Identifier
	}

	if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		return false, err
	}
	return true, nil
}

// AddCustom stores an external bookmark that has no catalogue object.
func (s *FavoritesService) AddCustom(ctx context.Context, userID, title, customURL, notes, folderID string) (*models.Favorite, error) {
	if folderID != "" {
		if err := s.assertFolderOwner(ctx, folderID, userID); err != nil {
			return nil, err
		}
	}

	favorite := &models.Favorite{
		UserID:    userID,
		Title:     title,
		CustomURL: customURL,
		Notes:     notes,
		FolderID:  folderID,
	}
	if err := s.db.WithContext(ctx).Create(favorite).Error; err != nil {
		return nil, err
	}
	return favorite, nil
}

// ListQuery filters and pages a favorites listing.
type ListQuery struct {
	FolderID string
	Search   string
	Sort     string
	Order    string
	Page     int
	Limit    int // zero or negative = no paging
}

var favoriteSortColumns = map[string]string{
	"title":          "title",
	"created_at":     "created_at",
	"last_viewed_at": "last_viewed_at",
}

// List returns a user's favorites with optional folder scoping, title or
// reference search, sorting and paging.
func (s *FavoritesService) List(ctx context.Context, userID string, query ListQuery) ([]models.Favorite, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND is_deleted = ?", userID, false)
	if query.FolderID != "" {
		q = q.Where("folder_id = ?", query.FolderID)
	}
	if query.Search != "" {
		like := "%" + query.Search + "%"
		q = q.Where("title LIKE ? OR reference_code LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := favoriteSortColumns[query.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "desc"
	if query.Order == "asc" {
		direction = "asc"
	}
	q = q.Order(column + " " + direction)

	if query.Limit > 0 {
		page := query.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * query.Limit).Limit(query.Limit)
	}

	var favorites []models.Favorite
	err := q.Find(&favorites).Error
	return favorites, total, err
}

// IsFavorite reports whether the object is in the user's favorites.
func (s *FavoritesService) IsFavorite(ctx context.Context, userID, objectID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND object_id = ? AND is_deleted = ?", userID, objectID, false).
		Count(&count).Error
	return count > 0, err
}

// UpdateNotes sets the user's private notes on a favorite.
func (s *FavoritesService) UpdateNotes(ctx context.Context, userID, favoriteID, notes string) error {
	result := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", favoriteID, userID, false).
		Update("notes", notes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchViewed stamps the favorite as just viewed.
func (s *FavoritesService) TouchViewed(ctx context.Context, userID, favoriteID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", favoriteID, userID, false).
		Update("last_viewed_at", &now).Error
}

// BulkRemove deletes several favorites at once. Only the owner's rows
// are touched.
func (s *FavoritesService) BulkRemove(ctx context.Context, userID string, favoriteIDs []string) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("id IN ? AND user_id = ?", favoriteIDs, userID).
		Delete(&models.Favorite{})
	return result.RowsAffected, result.Error
}

// MoveToFolder moves favorites into a folder, or out of any folder when
// folderID is empty.
func (s *FavoritesService) MoveToFolder(ctx context.Context, userID, folderID string, favoriteIDs []string) (int64, error) {
	if folderID != "" {
		if err := s.assertFolderOwner(ctx, folderID, userID); err != nil {
			return 0, err
		}
	}

	var target interface{}
	if folderID != "" {
		target = folderID
	}

	result := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("id IN ? AND user_id = ? AND is_deleted = ?", favoriteIDs, userID, false).
		Update("folder_id", target)
	return result.RowsAffected, result.Error
}

// ImportSlugs bulk-adds favorites by catalogue slug. Slugs that do not
// resolve to an object are returned so callers can report them; slugs
// already favorited are counted as skipped.
func (s *FavoritesService) ImportSlugs(ctx context.Context, userID string, slugs []string) (added, skipped int, unresolved []string, err error) {
	for _, slug := range slugs {
		obj, lookErr := models.GetObjectBySlug(s.db.WithContext(ctx), slug)
		if lookErr != nil {
			unresolved = append(unresolved, slug)
			continue
		}

		var count int64
		if countErr := s.db.WithContext(ctx).Model(&models.Favorite{}).
			Where("user_id = ? AND object_id = ? AND is_deleted = ?", userID, obj.ID, false).
			Count(&count).Error; countErr != nil {
			return added, skipped, unresolved, countErr
		}
		if count > 0 {
			skipped++
			continue
		}

		favorite := models.Favorite{
			UserID:        userID,
			ObjectID:      obj.ID,
			ObjectType:    obj.ObjectType,
			Title:         obj.Title,
			Slug:          obj.Slug,
			ReferenceCode: obj.Identifier,
		}
		if createErr := s.db.WithContext(ctx).Create(&favorite).Error; createErr != nil {
			return added, skipped, unresolved, createErr
		}
		added++
	}
	return added, skipped, unresolved, nil
}

// ClearAll removes every favorite the user has.
func (s *FavoritesService) ClearAll(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&models.Favorite{})
	return result.RowsAffected, result.Error
}

// CreateFolder creates a folder, optionally nested under a parent the
// user owns.
func (s *FavoritesService) CreateFolder(ctx context.Context, userID, name, description, parentID string) (*models.FavoriteFolder, error) {
	if parentID != "" {
		if err := s.assertFolderOwner(ctx, parentID, userID); err != nil {
			return nil, err
		}
	}

	folder := &models.FavoriteFolder{
		UserID:      userID,
		Name:        name,
		Description: description,
		ParentID:    parentID,
	}
	if err := s.db.WithContext(ctx).Create(folder).Error; err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFolders returns the user's folders ordered by name.
func (s *FavoritesService) ListFolders(ctx context.Context, userID string) ([]models.FavoriteFolder, error) {
	var folders []models.FavoriteFolder
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("name asc").
		Find(&folders).Error
	return folders, err
}

// RenameFolder updates a folder's name and description.
func (s *FavoritesService) RenameFolder(ctx context.Context, userID, folderID, name, description string) error {
	if err := s.assertFolderOwner(ctx, folderID, userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.FavoriteFolder{}).
		Where("id = ?", folderID).
		Updates(map[string]interface{}{
			"name":        name,
			"description": description,
		}).Error
}

// DeleteFolder removes a folder. Its favorites drop back to the root
// rather than disappearing with it.
func (s *FavoritesService) DeleteFolder(ctx context.Context, userID, folderID string) error {
	if err := s.assertFolderOwner(ctx, folderID, userID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Favorite{}).
			Where("folder_id = ?", folderID).
			Update("folder_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.FavoriteFolder{}).
			Where("parent_id = ?", folderID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&models.FavoriteFolder{}).
			Where("id = ?", folderID).
			Update("deleted_at", time.Now()).
			Update("is_deleted", true).Error
	})
}

// ShareFolder issues a tokenised read-only link to a folder.
func (s *FavoritesService) ShareFolder(ctx context.Context, userID, folderID string, expiresAt *time.Time) (*models.FolderShare, error) {
	if err := s.assertFolderOwner(ctx, folderID, userID); err != nil {
		return nil, err
	}

	token, err := utils.GenerateRandomString(32)
	if err != nil {
		return nil, err
	}

	share := &models.FolderShare{
		FolderID:  folderID,
		CreatedBy: userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := s.db.WithContext(ctx).Create(share).Error; err != nil {
		return nil, err
	}
	return share, nil
}

// ResolveShare returns the folder and its favorites for a valid token.
func (s *FavoritesService) ResolveShare(ctx context.Context, token string) (*models.FavoriteFolder, []models.Favorite, error) {
	var share models.FolderShare
	err := s.db.WithContext(ctx).
		Where("token = ? AND is_deleted = ?", token, false).
		First(&share).Error
	if err != nil {
		return nil, nil, err
	}
	if share.ExpiresAt != nil && share.ExpiresAt.Before(time.Now()) {
		return nil, nil, gorm.ErrRecordNotFound
	}

	var folder models.FavoriteFolder
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", share.FolderID, false).
		First(&folder).Error; err != nil {
		return nil, nil, err
	}

	var favorites []models.Favorite
	if err := s.db.WithContext(ctx).
		Where("folder_id = ? AND is_deleted = ?", share.FolderID, false).
		Order("created_at desc").
		Find(&favorites).Error; err != nil {
		return nil, nil, err
	}

	return &folder, favorites, nil
}

// CopyShared re-inserts a shared folder's favorites for the caller.
// Items the caller already has are skipped.
func (s *FavoritesService) CopyShared(ctx context.Context, userID, token string) (int, int, error) {
	_, shared, err := s.ResolveShare(ctx, token)
	if err != nil {
		return 0, 0, err
	}

	copied, skipped := 0, 0
	for _, favorite := range shared {
		q := s.db.WithContext(ctx).Model(&models.Favorite{}).
			Where("user_id = ? AND is_deleted = ?", userID, false)
		if favorite.ObjectID != "" {
			q = q.Where("object_id = ?", favorite.ObjectID)
		} else {
			q = q.Where("title = ? AND custom_url = ?", favorite.Title, favorite.CustomURL)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return copied, skipped, err
		}
		if count > 0 {
			skipped++
			continue
		}

		clone := models.Favorite{
			UserID:        userID,
			ObjectID:      favorite.ObjectID,
			ObjectType:    favorite.ObjectType,
			Title:         favorite.Title,
			Slug:          favorite.Slug,
			ReferenceCode: favorite.ReferenceCode,
			CustomURL:     favorite.CustomURL,
		}
		if err := s.db.WithContext(ctx).Create(&clone).Error; err != nil {
			return copied, skipped, err
		}
		copied++
	}
	return copied, skipped, nil
}

// CleanupExpiredShares drops share links past their expiry.
func (s *FavoritesService) CleanupExpiredShares(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.FolderShare{})
	return result.RowsAffected, result.Error
}

func (s *FavoritesService) assertFolderOwner(ctx context.Context, folderID, userID string) error {
	var folder models.FavoriteFolder
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", folderID, false).
		First(&folder).Error; err != nil {
		return err
	}
	if folder.UserID != userID {
		return ErrNotFolderOwner
	}
	return nil
}
