package inventory

import (
	"context"
	"testing"

	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&models.Company{}, &models.Store{}, &models.Category{}, &models.Product{},
		&models.Warehouse{}, &models.WarehouseLocation{}, &models.Inventory{},
	)
	require.NoError(t, err, "failed to migrate test database")
	return db
}

func seedInventory(t *testing.T, db *gorm.DB) {
	electronics := models.Category{Name: "Electronics"}
	require.NoError(t, db.Create(&electronics).Error)

	company := models.Company{CompanyID: "COM-001", Name: "Tech Innovations Inc.", Country: "Germany", Status: models.CompanyActive}
	require.NoError(t, db.Create(&company).Error)

	berlin := models.Store{StoreID: "COM-001-HQ", CompanyID: "COM-001", Name: "Berlin HQ", City: "Berlin", Country: "Germany", IsActive: true}
	paris := models.Store{StoreID: "COM-001-West", CompanyID: "COM-001", Name: "Paris Branch", City: "Paris", Country: "France", IsActive: true}
	require.NoError(t, db.Create(&berlin).Error)
	require.NoError(t, db.Create(&paris).Error)

	mouse := models.Product{SKU: "SKU-0005", Name: "Wireless Mouse", CategoryID: &electronics.ID, Price: decimal.NewFromFloat(24.99)}
	orphan := models.Product{SKU: "SKU-0099", Name: "Unsorted Widget", Price: decimal.NewFromFloat(5.00)}
	require.NoError(t, db.Create(&mouse).Error)
	require.NoError(t, db.Create(&orphan).Error)

	rows := []models.Inventory{
		{ProductSKU: "SKU-0005", StoreID: "COM-001-HQ", Quantity: 250},
		{ProductSKU: "SKU-0005", StoreID: "COM-001-West", Quantity: 12},
		{ProductSKU: "SKU-0099", StoreID: "COM-001-HQ", Quantity: 0},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
}

func TestQueryFiltersAreConjunctive(t *testing.T) {
	db := setupTestDB(t)
	seedInventory(t, db)
	svc := NewService(db, zap.NewNop())
	ctx := context.Background()

	// Country alone matches two rows.
	items, err := svc.Query(ctx, QueryFilter{Country: "germany"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// Adding the stock level narrows to the in-stock row only.
	items, err = svc.Query(ctx, QueryFilter{Country: "germany", StockLevel: "in-stock"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-0005", items[0].SKU)
	assert.Equal(t, "in-stock", items[0].Status)
}

func TestQuerySearchMatchesNameSKUAndCategory(t *testing.T) {
	db := setupTestDB(t)
	seedInventory(t, db)
	svc := NewService(db, zap.NewNop())
	ctx := context.Background()

	byName, err := svc.Query(ctx, QueryFilter{Search: "mouse"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	bySKU, err := svc.Query(ctx, QueryFilter{Search: "sku-0099"})
	require.NoError(t, err)
	assert.Len(t, bySKU, 1)

	byCategory, err := svc.Query(ctx, QueryFilter{Search: "electron"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)
}

func TestQueryMissingCategoryReadsNA(t *testing.T) {
	db := setupTestDB(t)
	seedInventory(t, db)
	svc := NewService(db, zap.NewNop())

	items, err := svc.Query(context.Background(), QueryFilter{Search: "widget"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "N/A", items[0].Category)
	assert.Equal(t, "out-of-stock", items[0].Status)
}

func TestQueryStockBuckets(t *testing.T) {
	db := setupTestDB(t)
	seedInventory(t, db)
	svc := NewService(db, zap.NewNop())
	ctx := context.Background()

	low, err := svc.Query(ctx, QueryFilter{StockLevel: "low-stock"})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, 12, low[0].Quantity)

	out, err := svc.Query(ctx, QueryFilter{StockLevel: "out-of-stock"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "SKU-0099", out[0].SKU)

	_, err = svc.Query(ctx, QueryFilter{StockLevel: "plenty"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQueryLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop())

	company := models.Company{CompanyID: "COM-001", Name: "Bulk Co", Status: models.CompanyActive}
	require.NoError(t, db.Create(&company).Error)
	store := models.Store{StoreID: "COM-001-HQ", CompanyID: "COM-001", Name: "HQ", Country: "Germany"}
	require.NoError(t, db.Create(&store).Error)

	for i := 0; i < 120; i++ {
		p := models.Product{SKU: itemSKU(i), Name: itemSKU(i), Price: decimal.NewFromInt(1)}
		require.NoError(t, db.Create(&p).Error)
		inv := models.Inventory{ProductSKU: p.SKU, StoreID: store.StoreID, Quantity: 5}
		require.NoError(t, db.Create(&inv).Error)
	}

	items, err := svc.Query(context.Background(), QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, items, maxResults)
}

func itemSKU(i int) string {
	return "SKU-" + string(rune('A'+i/26)) + string(rune('A'+i%26))
}

func TestLocationsFilterByCountry(t *testing.T) {
	db := setupTestDB(t)
	seedInventory(t, db)
	svc := NewService(db, zap.NewNop())

	wh := models.Warehouse{WarehouseID: "WH-001", StoreID: "COM-001-HQ", Name: "Berlin Warehouse"}
	require.NoError(t, db.Create(&wh).Error)
	whFR := models.Warehouse{WarehouseID: "WH-002", StoreID: "COM-001-West", Name: "Paris Warehouse"}
	require.NoError(t, db.Create(&whFR).Error)

	locs := []models.WarehouseLocation{
		{WarehouseID: "WH-001", ProductSKU: "SKU-0005", Aisle: "A1", Shelf: "S1", Box: "B1", Quantity: 220},
		{WarehouseID: "WH-002", ProductSKU: "SKU-0005", Aisle: "A2", Shelf: "S1", Box: "B1", Quantity: 60},
	}
	for i := range locs {
		require.NoError(t, db.Create(&locs[i]).Error)
	}

	all, err := svc.Locations(context.Background(), "SKU-0005", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	german, err := svc.Locations(context.Background(), "SKU-0005", "Germany")
	require.NoError(t, err)
	require.Len(t, german, 1)
	assert.Equal(t, "High", german[0].StockBand)
	assert.Equal(t, "WH-001", german[0].WarehouseID)
	assert.NotEmpty(t, german[0].LastUpdated)
}

func TestExportFormats(t *testing.T) {
	db := setupTestDB(t)
	seedInventory(t, db)
	svc := NewService(db, zap.NewNop())
	ctx := context.Background()

	csvData, contentType, err := svc.Export(ctx, QueryFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(csvData), "SKU-0005")

	jsonData, contentType, err := svc.Export(ctx, QueryFilter{}, "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Contains(t, string(jsonData), "Wireless Mouse")

	_, _, err = svc.Export(ctx, QueryFilter{}, "xml")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
