package services

import (
	"context"

	"ahgapi/internal/models"

	"gorm.io/gorm"
)

// GlamService powers the gallery/library/archive/museum browse views.
type GlamService struct {
	db *gorm.DB
}

func NewGlamService(db *gorm.DB) *GlamService {
	return &GlamService{db: db}
}

// SectorCounts returns how many objects sit in each sector.
func (s *GlamService) SectorCounts(ctx context.Context) (map[models.GlamSector]int64, error) {
	type row struct {
		Sector models.GlamSector
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.ArchivalObject{}).
		Select("sector, count(*) as count").
		Where("is_deleted = ?", false).
		Group("sector").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.GlamSector]int64, len(rows))
	for _, r := range rows {
		counts[r.Sector] = r.Count
	}
	return counts, nil
}

// BrowseFilters narrows a sector browse.
type BrowseFilters struct {
	Sector         models.GlamSector
	Repository     string
	Level          string
	HasDigital     *bool
	Query          string
	Page           int
	Limit          int
}

// Browse lists a sector's objects with the given filters. Only title
// and identifier are searched; full-text search stays with the host
// catalogue.
func (s *GlamService) Browse(ctx context.Context, filters BrowseFilters) ([]models.ArchivalObject, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ArchivalObject{}).
		Where("is_deleted = ?", false)

	if filters.Sector != "" {
		query = query.Where("sector = ?", filters.Sector)
	}
	if filters.Repository != "" {
		query = query.Where("repository_name = ?", filters.Repository)
	}
	if filters.Level != "" {
		query = query.Where("level_of_description = ?", filters.Level)
	}
	if filters.HasDigital != nil {
		query = query.Where("has_digital_object = ?", *filters.HasDigital)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("title LIKE ? OR identifier LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 30
	}

	var objects []models.ArchivalObject
	err := query.
		Order("title asc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&objects).Error
	return objects, total, err
}

// RecentlyAdded returns the newest objects in a sector.
func (s *GlamService) RecentlyAdded(ctx context.Context, sector models.GlamSector, limit int) ([]models.ArchivalObject, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := s.db.WithContext(ctx).
		Where("is_deleted = ?", false)
	if sector != "" {
		query = query.Where("sector = ?", sector)
	}

	var objects []models.ArchivalObject
	err := query.Order("created_at desc").Limit(limit).Find(&objects).Error
	return objects, err
}

// Repositories lists the distinct repository names within a sector.
func (s *GlamService) Repositories(ctx context.Context, sector models.GlamSector) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&models.ArchivalObject{}).
		Where("is_deleted = ? AND repository_name <> ''", false)
	if sector != "" {
		query = query.Where("sector = ?", sector)
	}

	var names []string
	err := query.Distinct("repository_name").Order("repository_name asc").Pluck("repository_name", &names).Error
	return names, err
}
