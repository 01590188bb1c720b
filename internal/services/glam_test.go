package services

import (
	"context"
	"testing"

	"ahgapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedSectorObject(t *testing.T, tdb *gorm.DB, slug string, sector models.GlamSector, repository string, digital bool) *models.ArchivalObject {
	t.Helper()
	obj := &models.ArchivalObject{
		Slug:             slug,
		Title:            slug,
		ObjectType:       models.ObjectTypeInformationObject,
		Sector:           sector,
		RepositoryName:   repository,
		HasDigitalObject: digital,
	}
	require.NoError(t, tdb.Create(obj).Error)
	return obj
}

func TestSectorCounts(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGlamService(tdb)

	seedSectorObject(t, tdb, "painting-one", models.SectorGallery, "City Gallery", true)
	seedSectorObject(t, tdb, "painting-two", models.SectorGallery, "City Gallery", false)
	seedSectorObject(t, tdb, "fonds-one", models.SectorArchive, "National Archives", false)

	counts, err := svc.SectorCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.SectorGallery])
	assert.Equal(t, int64(1), counts[models.SectorArchive])
}

func TestBrowseFiltersAndPaging(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGlamService(tdb)

	seedSectorObject(t, tdb, "annual-report-1980", models.SectorArchive, "National Archives", true)
	seedSectorObject(t, tdb, "annual-report-1981", models.SectorArchive, "National Archives", false)
	seedSectorObject(t, tdb, "city-map-1900", models.SectorArchive, "City Archives", false)
	seedSectorObject(t, tdb, "bronze-head", models.SectorMuseum, "City Museum", false)

	objects, total, err := svc.Browse(context.Background(), BrowseFilters{Sector: models.SectorArchive})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, objects, 3)

	objects, total, err = svc.Browse(context.Background(), BrowseFilters{
		Sector:     models.SectorArchive,
		Repository: "National Archives",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	digital := true
	objects, total, err = svc.Browse(context.Background(), BrowseFilters{
		Sector:     models.SectorArchive,
		HasDigital: &digital,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, objects, 1)
	assert.Equal(t, "annual-report-1980", objects[0].Slug)

	objects, total, err = svc.Browse(context.Background(), BrowseFilters{Query: "map"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// Paging never loses the full count.
	objects, total, err = svc.Browse(context.Background(), BrowseFilters{
		Sector: models.SectorArchive,
		Page:   2,
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, objects, 1)
}

func TestRepositories(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGlamService(tdb)

	seedSectorObject(t, tdb, "repo-a-item", models.SectorArchive, "National Archives", false)
	seedSectorObject(t, tdb, "repo-b-item", models.SectorArchive, "City Archives", false)
	seedSectorObject(t, tdb, "repo-b-item-2", models.SectorArchive, "City Archives", false)
	seedSectorObject(t, tdb, "museum-item", models.SectorMuseum, "City Museum", false)
	seedObject(t, tdb, "nameless-item", "")

	names, err := svc.Repositories(context.Background(), models.SectorArchive)
	require.NoError(t, err)
	assert.Equal(t, []string{"City Archives", "National Archives"}, names)
}

func TestRecentlyAddedLimit(t *testing.T) {
	tdb := newTestDB(t)
	svc := NewGlamService(tdb)

	for _, slug := range []string{"recent-a", "recent-b", "recent-c"} {
		seedSectorObject(t, tdb, slug, models.SectorLibrary, "City Library", false)
	}

	objects, err := svc.RecentlyAdded(context.Background(), models.SectorLibrary, 2)
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}
