package mapping

import (
	"testing"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Vendor{}, &models.Product{}, &models.VendorProductMapping{}))
	return NewService(NewRepository(db)), db
}

func seedProductAndVendor(t *testing.T, db *gorm.DB) (uint, uint) {
	product := &models.Product{UPC: "012345678905", Name: "Glock 19 Gen5", Status: models.ProductStatusActive, Source: "sports-south"}
	require.NoError(t, db.Create(product).Error)

	vendor := &models.Vendor{Slug: "sports-south", Name: "Sports South", Priority: 1, Enabled: true, SyncStatus: models.SyncStatusNeverSynced}
	require.NoError(t, db.Create(vendor).Error)

	return product.ID, vendor.ID
}

func TestService_Upsert_CreatesMapping(t *testing.T) {
	service, db := setupTestService(t)
	productID, vendorID := seedProductAndVendor(t, db)

	m, err := service.Upsert(productID, vendorID, "SS-GLK19", "https://img.example.com/g19.jpg")
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "SS-GLK19", m.VendorSKU)
	assert.Equal(t, "https://img.example.com/g19.jpg", m.LastImageURL)
}

func TestService_Upsert_Idempotent(t *testing.T) {
	service, db := setupTestService(t)
	productID, vendorID := seedProductAndVendor(t, db)

	first, err := service.Upsert(productID, vendorID, "SS-GLK19", "")
	require.NoError(t, err)

	second, err := service.Upsert(productID, vendorID, "SS-GLK19", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := service.repo.CountAll()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "重复 Upsert 不产生第二条映射")
}

func TestService_Upsert_UpdatesSKUAndImage(t *testing.T) {
	service, db := setupTestService(t)
	productID, vendorID := seedProductAndVendor(t, db)

	_, err := service.Upsert(productID, vendorID, "OLD-SKU", "https://img.example.com/a.jpg")
	require.NoError(t, err)

	m, err := service.Upsert(productID, vendorID, "NEW-SKU", "https://img.example.com/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "NEW-SKU", m.VendorSKU)
	assert.Equal(t, "https://img.example.com/b.jpg", m.LastImageURL)

	// 空图片不清除既有记录
	m, err = service.Upsert(productID, vendorID, "NEW-SKU", "")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/b.jpg", m.LastImageURL)
}

func TestService_Upsert_EmptySKU(t *testing.T) {
	service, db := setupTestService(t)
	productID, vendorID := seedProductAndVendor(t, db)

	_, err := service.Upsert(productID, vendorID, "   ", "")
	assert.ErrorIs(t, err, ErrVendorSKUEmpty)
}

func TestService_FindByProductAndVendor_NotFound(t *testing.T) {
	service, db := setupTestService(t)
	productID, vendorID := seedProductAndVendor(t, db)

	_, err := service.FindByProductAndVendor(productID, vendorID)
	assert.ErrorIs(t, err, ErrMappingNotFound)
}

func TestService_ListByProduct_PreloadsVendor(t *testing.T) {
	service, db := setupTestService(t)
	productID, vendorID := seedProductAndVendor(t, db)

	_, err := service.Upsert(productID, vendorID, "SS-GLK19", "")
	require.NoError(t, err)

	mappings, err := service.ListByProduct(productID)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "sports-south", mappings[0].Vendor.Slug)
}
