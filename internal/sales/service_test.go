package sales

import (
	"context"
	"testing"
	"time"

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
		&models.Company{}, &models.Store{}, &models.Product{}, &models.Category{},
		&models.Sale{}, &models.DashboardMetrics{}, &models.Sector{},
		&models.Competitor{}, &models.SalesMetrics{}, &models.ProductSales{},
	)
	require.NoError(t, err, "failed to migrate test database")
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, zap.NewNop()), db
}

func TestDashboardMetricsGetOrCreate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	m, err := svc.DashboardMetrics(ctx)
	require.NoError(t, err)
	assert.True(t, m.TotalRevenue.Equal(decimal.NewFromFloat(245820.50)))
	assert.Equal(t, 1834, m.TotalOrders)
	assert.Equal(t, 8456, m.TotalProducts)
	assert.Equal(t, 342, m.ActiveCustomers)

	// Second call returns the same row, no duplicate.
	again, err := svc.DashboardMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)

	var count int64
	db.Model(&models.DashboardMetrics{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestMonthlyByCountry(t *testing.T) {
	svc, db := newTestService(t)
	year := time.Now().Year()

	company := models.Company{CompanyID: "COM-001", Name: "Test Co"}
	require.NoError(t, db.Create(&company).Error)
	berlin := models.Store{StoreID: "COM-001-HQ", CompanyID: "COM-001", Name: "Berlin", Country: "Germany"}
	tokyo := models.Store{StoreID: "COM-001-East", CompanyID: "COM-001", Name: "Tokyo", Country: "Japan"}
	require.NoError(t, db.Create(&berlin).Error)
	require.NoError(t, db.Create(&tokyo).Error)

	sales := []models.Sale{
		{ProductSKU: "SKU-0001", StoreID: berlin.StoreID, Quantity: 2, TotalAmount: decimal.NewFromInt(1000), SaleDate: time.Date(year, 3, 10, 0, 0, 0, 0, time.UTC), Month: "Mar", Year: year},
		{ProductSKU: "SKU-0001", StoreID: berlin.StoreID, Quantity: 1, TotalAmount: decimal.NewFromInt(500), SaleDate: time.Date(year, 3, 20, 0, 0, 0, 0, time.UTC), Month: "Mar", Year: year},
		{ProductSKU: "SKU-0001", StoreID: tokyo.StoreID, Quantity: 1, TotalAmount: decimal.NewFromInt(700), SaleDate: time.Date(year, 3, 25, 0, 0, 0, 0, time.UTC), Month: "Mar", Year: year},
	}
	for i := range sales {
		require.NoError(t, db.Create(&sales[i]).Error)
	}

	breakdown, err := svc.MonthlyByCountry(context.Background(), year)
	require.NoError(t, err)
	require.Len(t, breakdown, 12)
	assert.Equal(t, "Jan", breakdown[0].Month)
	assert.Equal(t, "Dec", breakdown[11].Month)

	march := breakdown[2]
	assert.Equal(t, "Mar", march.Month)
	assert.InDelta(t, 2200.0, march.Total, 0.01)
	// Germany is tracked individually; Japan folds into the total only.
	assert.InDelta(t, 1500.0, march.Countries["germany"], 0.01)
	assert.Zero(t, march.Countries["france"])
	assert.NotContains(t, march.Countries, "japan")

	// Months without sales still appear, zeroed.
	assert.Zero(t, breakdown[0].Total)
}

func TestAnalyticsPredictionAndFixedChanges(t *testing.T) {
	svc, db := newTestService(t)
	year := time.Now().Year()

	company := models.Company{CompanyID: "COM-001", Name: "Test Co"}
	require.NoError(t, db.Create(&company).Error)
	for _, month := range []string{"Jan", "Feb"} {
		m := models.SalesMetrics{CompanyID: "COM-001", Month: month, Year: year, Revenue: decimal.NewFromInt(100000), Profit: decimal.NewFromInt(20000)}
		require.NoError(t, db.Create(&m).Error)
	}

	analytics, err := svc.Analytics(context.Background(), "COM-001", year)
	require.NoError(t, err)
	assert.InDelta(t, 200000.0, analytics.RevenueYTD, 0.01)
	assert.InDelta(t, 40000.0, analytics.ProfitYTD, 0.01)
	assert.InDelta(t, 230000.0, analytics.PredictedRevenue, 0.01)
	assert.Equal(t, 12.5, analytics.RevenueChangePct)
	assert.Equal(t, 8.3, analytics.ProfitChangePct)
	assert.Equal(t, 15.0, analytics.MarginChangePct)
}

func TestCompetitorRankingOrderedByRevenue(t *testing.T) {
	svc, db := newTestService(t)

	sector := models.Sector{Name: "Tech"}
	require.NoError(t, db.Create(&sector).Error)
	competitors := []models.Competitor{
		{Name: "Mid Corp", SectorID: sector.ID, RevenueYTD: decimal.NewFromInt(3000)},
		{Name: "Top Corp", SectorID: sector.ID, RevenueYTD: decimal.NewFromInt(9000)},
		{Name: "Us", SectorID: sector.ID, RevenueYTD: decimal.NewFromInt(5000), IsOurCompany: true},
	}
	for i := range competitors {
		require.NoError(t, db.Create(&competitors[i]).Error)
	}

	analytics, err := svc.Analytics(context.Background(), "COM-001", 0)
	require.NoError(t, err)
	require.Len(t, analytics.CompetitorRanking, 3)
	assert.Equal(t, "Top Corp", analytics.CompetitorRanking[0].Name)
	assert.Equal(t, 1, analytics.CompetitorRanking[0].Rank)
	assert.Equal(t, "Us", analytics.CompetitorRanking[1].Name)
	assert.True(t, analytics.CompetitorRanking[1].IsOurCompany)
	assert.Equal(t, "Mid Corp", analytics.CompetitorRanking[2].Name)
}

func TestTopProductsFallback(t *testing.T) {
	svc, db := newTestService(t)

	products := []models.Product{
		{SKU: "SKU-0001", Name: "Cable", Price: decimal.NewFromInt(10)},
		{SKU: "SKU-0002", Name: "Mouse", Price: decimal.NewFromInt(20)},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	analytics, err := svc.Analytics(context.Background(), "COM-001", 0)
	require.NoError(t, err)
	require.Len(t, analytics.TopProducts, 2)
	assert.Equal(t, 1000, analytics.TopProducts[0].UnitsSold)
	assert.Equal(t, 850, analytics.TopProducts[1].UnitsSold)
	assert.InDelta(t, 10000.0, analytics.TopProducts[0].Revenue, 0.01)
}

func TestTopProductsFromRecordedSales(t *testing.T) {
	svc, db := newTestService(t)
	year := time.Now().Year()

	product := models.Product{SKU: "SKU-0001", Name: "Cable", Price: decimal.NewFromInt(10)}
	require.NoError(t, db.Create(&product).Error)
	ps := models.ProductSales{CompanyID: "COM-001", ProductSKU: "SKU-0001", Year: year, UnitsSold: 777, Revenue: decimal.NewFromInt(7770)}
	require.NoError(t, db.Create(&ps).Error)

	analytics, err := svc.Analytics(context.Background(), "COM-001", year)
	require.NoError(t, err)
	require.Len(t, analytics.TopProducts, 1)
	assert.Equal(t, 777, analytics.TopProducts[0].UnitsSold)
	assert.Equal(t, "Cable", analytics.TopProducts[0].Name)
}
