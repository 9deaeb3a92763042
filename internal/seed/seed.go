// Package seed loads demo data so a fresh deployment has companies,
// stores, stock and sales figures to browse. Seeding is idempotent:
// rows colliding with existing keys are skipped and counted, never
// overwritten.
package seed

import (
	"errors"
	"fmt"
	"time"

	"github.com/meridian/supplyhub/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Result counts what a seeding run did.
type Result struct {
	Created int
	Skipped int
}

// Seeder writes the demo dataset.
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
	res    Result
}

// New constructs a seeder.
func New(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger.Named("seed")}
}

// create inserts one row, counting a duplicate-key collision as a
// skip. Requires TranslateError on the gorm config.
func (s *Seeder) create(value interface{}) error {
	err := s.db.Create(value).Error
	switch {
	case err == nil:
		s.res.Created++
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		s.res.Skipped++
		return nil
	default:
		return err
	}
}

type companySeed struct {
	id, name, country, city string
	status                  models.CompanyStatus
	ownership               int
}

var companySeeds = []companySeed{
	{"COM-001", "Tech Innovations Inc.", "United States", "New York", models.CompanyActive, 100},
	{"COM-002", "Global Supplies Ltd.", "United Kingdom", "London", models.CompanyActive, 80},
	{"COM-003", "Digital Solutions", "Canada", "Toronto", models.CompanyActive, 90},
	{"COM-004", "Enterprise Systems", "Germany", "Berlin", models.CompanyPending, 75},
	{"COM-005", "Innovation Labs", "France", "Paris", models.CompanyInactive, 60},
	{"COM-006", "Northern Tech", "Sweden", "Stockholm", models.CompanyActive, 85},
	{"COM-007", "Pacific Logistics", "Australia", "Sydney", models.CompanyActive, 95},
	{"COM-008", "Iberia Distribution", "Spain", "Madrid", models.CompanyPending, 70},
	{"COM-009", "Nordic Solutions", "Norway", "Oslo", models.CompanyInactive, 50},
	{"COM-010", "Asian Markets", "Singapore", "Singapore", models.CompanyActive, 88},
}

var storeLocations = []struct{ code, name string }{
	{"HQ", "Headquarters"},
	{"West", "West Location"},
	{"East", "East Location"},
	{"Mid", "Central Location"},
	{"South", "South Location"},
}

var categoryNames = []string{
	"Electronics", "Software", "Hardware", "Services",
	"Consulting", "Support", "Cloud Services", "Security",
}

type productSeed struct {
	sku, name, description string
	price                  float64
}

var productSeeds = []productSeed{
	{"SKU-0001", "USB-C Cable 2m", "High-speed USB-C charging cable", 12.99},
	{"SKU-0002", "HDMI Cable 1.5m", "4K HDMI 2.1 cable", 15.49},
	{"SKU-0003", "Screen Protector", "Tempered glass screen protector", 8.99},
	{"SKU-0004", "Phone Stand", "Adjustable aluminum phone stand", 19.99},
	{"SKU-0005", "Wireless Mouse", "Ergonomic 2.4GHz wireless mouse", 24.99},
	{"SKU-0006", "Mechanical Keyboard", "RGB mechanical keyboard", 79.99},
	{"SKU-0007", "USB Hub 7-Port", "USB 3.0 7-port hub with power", 34.99},
	{"SKU-0008", "External SSD 1TB", "1TB USB-C external SSD", 99.99},
	{"SKU-0009", "Webcam 1080p", "Full HD USB webcam with mic", 44.99},
	{"SKU-0010", "Desk Lamp LED", "Adjustable LED desk lamp", 39.99},
	{"SKU-0011", "Laptop Stand", "Aluminum laptop cooling stand", 29.99},
	{"SKU-0012", "USB Power Strip", "4 outlets + 2 USB charging", 27.99},
	{"SKU-0013", "Cable Organizer Kit", "Cable clips and organizers", 14.99},
	{"SKU-0014", "Microphone USB", "Studio-quality USB microphone", 89.99},
	{"SKU-0015", "Monitor Arm", "Adjustable single monitor arm", 59.99},
	{"SKU-0016", "Desk Mat", "Large leather desk mouse pad", 34.99},
	{"SKU-0017", "Monitor Light Bar", "USB monitor light bar", 69.99},
	{"SKU-0018", "Cooling Pad Laptop", "Laptop cooling pad with fans", 32.99},
	{"SKU-0019", "Surge Protector", "6 outlet surge protector", 21.99},
	{"SKU-0020", "Phone Charger 65W", "Fast charger 65W USB-C", 49.99},
}

// Run seeds the whole demo dataset and reports what it created and
// what already existed.
func (s *Seeder) Run() (Result, error) {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"companies", s.companies},
		{"stores", s.stores},
		{"categories", s.categories},
		{"products", s.products},
		{"warehouses", s.warehouses},
		{"inventory", s.inventory},
		{"sales", s.sales},
		{"competitors", s.competitors},
		{"agents", s.agents},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return s.res, fmt.Errorf("seeding %s: %w", step.name, err)
		}
	}
	s.logger.Info("demo data seeded",
		zap.Int("created", s.res.Created),
		zap.Int("skipped", s.res.Skipped),
	)
	return s.res, nil
}

func (s *Seeder) companies() error {
	for _, c := range companySeeds {
		company := models.Company{
			CompanyID:           c.id,
			Name:                c.name,
			Country:             c.country,
			City:                c.city,
			Status:              c.status,
			OwnershipPercentage: c.ownership,
		}
		if err := s.create(&company); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) stores() error {
	for _, c := range companySeeds {
		for i, loc := range storeLocations {
			store := models.Store{
				StoreID:   fmt.Sprintf("%s-%s", c.id, loc.code),
				CompanyID: c.id,
				Name:      fmt.Sprintf("%s - %s", c.name, loc.name),
				City:      c.city,
				Country:   c.country,
				Address:   fmt.Sprintf("%d %s Street", 100+i*250, loc.name),
				IsActive:  c.status == models.CompanyActive,
			}
			if err := s.create(&store); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) categories() error {
	for _, name := range categoryNames {
		category := models.Category{
			Name:        name,
			Description: fmt.Sprintf("%s products and solutions", name),
		}
		if err := s.create(&category); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) products() error {
	var categories []models.Category
	if err := s.db.Order("id").Find(&categories).Error; err != nil {
		return err
	}
	for i, p := range productSeeds {
		product := models.Product{
			SKU:         p.sku,
			Name:        p.name,
			Description: p.description,
			Price:       decimal.NewFromFloat(p.price),
		}
		if len(categories) > 0 {
			id := categories[i%len(categories)].ID
			product.CategoryID = &id
		}
		if err := s.create(&product); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) warehouses() error {
	for _, c := range companySeeds {
		storeID := fmt.Sprintf("%s-HQ", c.id)
		warehouse := models.Warehouse{
			WarehouseID: fmt.Sprintf("WH-%s", c.id),
			StoreID:     storeID,
			Name:        fmt.Sprintf("%s Main Warehouse", c.name),
		}
		if err := s.create(&warehouse); err != nil {
			return err
		}
	}

	// Slot every product into the first three warehouses with spread
	// quantities so all three stock bands show up.
	quantities := []int{320, 120, 15}
	for wi := 0; wi < 3 && wi < len(companySeeds); wi++ {
		warehouseID := fmt.Sprintf("WH-%s", companySeeds[wi].id)
		for pi, p := range productSeeds {
			loc := models.WarehouseLocation{
				WarehouseID: warehouseID,
				ProductSKU:  p.sku,
				Aisle:       fmt.Sprintf("A%d", pi/5+1),
				Shelf:       fmt.Sprintf("S%d", pi%5+1),
				Box:         fmt.Sprintf("B%d", wi+1),
				Quantity:    quantities[(pi+wi)%len(quantities)],
			}
			if err := s.create(&loc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) inventory() error {
	// Quantities cycle through the three status buckets.
	quantities := []int{250, 85, 12, 0}
	for ci, c := range companySeeds {
		for _, loc := range storeLocations {
			storeID := fmt.Sprintf("%s-%s", c.id, loc.code)
			for pi, p := range productSeeds {
				inv := models.Inventory{
					ProductSKU: p.sku,
					StoreID:    storeID,
					Quantity:   quantities[(ci+pi)%len(quantities)],
				}
				if err := s.create(&inv); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Seeder) sales() error {
	year := time.Now().Year()
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

	// Sales rows have no natural key, so the whole step is skipped once
	// any exist. That keeps re-runs from inflating the figures.
	var existing int64
	if err := s.db.Model(&models.Sale{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		s.res.Skipped += len(companySeeds) * (2*len(months) + 5)
		return nil
	}

	for ci, c := range companySeeds {
		storeID := fmt.Sprintf("%s-HQ", c.id)
		for mi, month := range months {
			saleDate := time.Date(year, time.Month(mi+1), 15, 12, 0, 0, 0, time.UTC)
			p := productSeeds[(ci+mi)%len(productSeeds)]
			qty := 20 + mi*10
			sale := models.Sale{
				ProductSKU:  p.sku,
				StoreID:     storeID,
				Quantity:    qty,
				TotalAmount: decimal.NewFromFloat(p.price).Mul(decimal.NewFromInt(int64(qty))),
				SaleDate:    saleDate,
				Month:       month,
				Year:        year,
			}
			if err := s.create(&sale); err != nil {
				return err
			}

			metrics := models.SalesMetrics{
				CompanyID: c.id,
				Month:     month,
				Year:      year,
				Revenue:   decimal.NewFromInt(int64(150000 + ci*20000 + mi*5000)),
				Profit:    decimal.NewFromInt(int64(30000 + ci*4000 + mi*1000)),
			}
			if err := s.create(&metrics); err != nil {
				return err
			}
		}

		for pi := 0; pi < 5; pi++ {
			p := productSeeds[(ci+pi)%len(productSeeds)]
			units := 900 - pi*120
			ps := models.ProductSales{
				CompanyID:  c.id,
				ProductSKU: p.sku,
				Year:       year,
				UnitsSold:  units,
				Revenue:    decimal.NewFromFloat(p.price).Mul(decimal.NewFromInt(int64(units))),
			}
			if err := s.create(&ps); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) competitors() error {
	sector := models.Sector{Name: "Supply Chain Technology", Description: "Supply chain software and distribution"}
	if err := s.create(&sector); err != nil {
		return err
	}
	if sector.ID == 0 {
		if err := s.db.Where("name = ?", sector.Name).First(&sector).Error; err != nil {
			return err
		}
	}

	competitors := []models.Competitor{
		{Name: "Tech Innovations Inc.", SectorID: sector.ID, Country: "United States", RevenueYTD: decimal.NewFromInt(4850000), ProfitYTD: decimal.NewFromInt(970000), MarketShare: decimal.NewFromFloat(24.5), IsOurCompany: true},
		{Name: "LogiCore Systems", SectorID: sector.ID, Country: "Germany", RevenueYTD: decimal.NewFromInt(5200000), ProfitYTD: decimal.NewFromInt(890000), MarketShare: decimal.NewFromFloat(26.1)},
		{Name: "ChainWorks GmbH", SectorID: sector.ID, Country: "Germany", RevenueYTD: decimal.NewFromInt(3900000), ProfitYTD: decimal.NewFromInt(640000), MarketShare: decimal.NewFromFloat(19.8)},
		{Name: "FlowStream SA", SectorID: sector.ID, Country: "France", RevenueYTD: decimal.NewFromInt(3100000), ProfitYTD: decimal.NewFromInt(510000), MarketShare: decimal.NewFromFloat(15.6)},
		{Name: "Meridian Logistics", SectorID: sector.ID, Country: "Netherlands", RevenueYTD: decimal.NewFromInt(2750000), ProfitYTD: decimal.NewFromInt(430000), MarketShare: decimal.NewFromFloat(14.0)},
	}
	for i := range competitors {
		var count int64
		if err := s.db.Model(&models.Competitor{}).Where("name = ?", competitors[i].Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			s.res.Skipped++
			continue
		}
		if err := s.create(&competitors[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) agents() error {
	agents := []models.AgentConfig{
		{
			Name:         "Supply Chain Analyst",
			ModelName:    "gpt-4",
			Temperature:  0.7,
			MaxTokens:    2000,
			SystemPrompt: "You are a senior supply chain analyst. Produce structured, data-driven reports.",
			IsActive:     true,
		},
		{
			Name:         "Inventory Specialist",
			ModelName:    "gpt-4",
			Temperature:  0.5,
			MaxTokens:    2000,
			SystemPrompt: "You specialize in inventory optimization and stock analysis.",
			IsActive:     true,
		},
	}
	for i := range agents {
		if err := s.create(&agents[i]); err != nil {
			return err
		}
	}
	return nil
}
