package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxResults = 100

// Service answers inventory queries across stores and warehouses.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the inventory service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger.Named("inventory")}
}

// QueryFilter narrows an inventory search. All set fields apply
// conjunctively. StockLevel accepts the canonical bucket names
// in-stock, low-stock and out-of-stock.
type QueryFilter struct {
	Search     string
	Country    string
	Category   string
	City       string
	CompanyID  string
	StockLevel string
}

// Item is one row of the inventory browse view.
type Item struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Status      string  `json:"status"`
	StoreName   string  `json:"store_name"`
	StoreCity   string  `json:"store_city"`
	StoreCountry string `json:"store_country"`
	CompanyID   string  `json:"company_id"`
}

type inventoryRow struct {
	SKU          string
	Name         string
	Category     *string
	Price        float64
	Quantity     int
	StoreName    string
	StoreCity    string
	StoreCountry string
	CompanyID    string
}

// Query returns up to 100 inventory rows matching the filter. Stock
// status is derived from quantity at read time; the stock level
// filter is applied after derivation so both use the same policy.
func (s *Service) Query(ctx context.Context, f QueryFilter) ([]Item, error) {
	q := s.db.WithContext(ctx).
		Table("inventories").
		Select(`products.sku AS sku, products.name AS name, categories.name AS category,
			products.price AS price, inventories.quantity AS quantity,
			stores.name AS store_name, stores.city AS store_city,
			stores.country AS store_country, stores.company_id AS company_id`).
		Joins("JOIN products ON products.sku = inventories.product_sku").
		Joins("JOIN stores ON stores.store_id = inventories.store_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(
			"LOWER(products.name) LIKE LOWER(?) OR LOWER(products.sku) LIKE LOWER(?) OR LOWER(categories.name) LIKE LOWER(?)",
			like, like, like,
		)
	}
	if f.Country != "" {
		q = q.Where("LOWER(stores.country) = LOWER(?)", f.Country)
	}
	if f.Category != "" {
		q = q.Where("LOWER(categories.name) = LOWER(?)", f.Category)
	}
	if f.City != "" {
		q = q.Where("LOWER(stores.city) = LOWER(?)", f.City)
	}
	if f.CompanyID != "" {
		q = q.Where("stores.company_id = ?", f.CompanyID)
	}
	switch f.StockLevel {
	case "":
	case "in-stock":
		q = q.Where("inventories.quantity > ?", 20)
	case "low-stock":
		q = q.Where("inventories.quantity > 0 AND inventories.quantity <= ?", 20)
	case "out-of-stock":
		q = q.Where("inventories.quantity <= 0")
	default:
		return nil, fmt.Errorf("%w: unknown stock level %q", apperrors.ErrInvalidInput, f.StockLevel)
	}

	var rows []inventoryRow
	if err := q.Order("products.name").Limit(maxResults).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("inventory query failed: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		category := "N/A"
		if r.Category != nil && *r.Category != "" {
			category = *r.Category
		}
		items = append(items, Item{
			SKU:          r.SKU,
			Name:         r.Name,
			Category:     category,
			Price:        r.Price,
			Quantity:     r.Quantity,
			Status:       StockStatus(r.Quantity),
			StoreName:    r.StoreName,
			StoreCity:    r.StoreCity,
			StoreCountry: r.StoreCountry,
			CompanyID:    r.CompanyID,
		})
	}
	return items, nil
}

// Location is one physical warehouse slot holding a product.
type Location struct {
	WarehouseID   string `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
	StoreID       string `json:"store_id"`
	Country       string `json:"country"`
	Aisle         string `json:"aisle"`
	Shelf         string `json:"shelf"`
	Box           string `json:"box"`
	Quantity      int    `json:"quantity"`
	StockBand     string `json:"stock_band"`
	LastUpdated   string `json:"last_updated"`
}

type locationRow struct {
	models.WarehouseLocation
	WarehouseName string
	StoreID       string
	Country       string
}

// Locations lists the warehouse slots holding a SKU, optionally
// narrowed to stores in one country.
func (s *Service) Locations(ctx context.Context, sku, country string) ([]Location, error) {
	if sku == "" {
		return nil, fmt.Errorf("%w: sku required", apperrors.ErrInvalidInput)
	}

	q := s.db.WithContext(ctx).
		Table("warehouse_locations").
		Select(`warehouse_locations.*, warehouses.name AS warehouse_name,
			warehouses.store_id AS store_id, stores.country AS country`).
		Joins("JOIN warehouses ON warehouses.warehouse_id = warehouse_locations.warehouse_id").
		Joins("JOIN stores ON stores.store_id = warehouses.store_id").
		Where("warehouse_locations.product_sku = ?", sku)
	if country != "" {
		q = q.Where("LOWER(stores.country) = LOWER(?)", country)
	}

	var rows []locationRow
	if err := q.Order("warehouse_locations.warehouse_id, warehouse_locations.aisle").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("warehouse location query failed: %w", err)
	}

	locations := make([]Location, 0, len(rows))
	for _, r := range rows {
		locations = append(locations, Location{
			WarehouseID:   r.WarehouseID,
			WarehouseName: r.WarehouseName,
			StoreID:       r.StoreID,
			Country:       r.Country,
			Aisle:         r.Aisle,
			Shelf:         r.Shelf,
			Box:           r.Box,
			Quantity:      r.Quantity,
			StockBand:     StockBand(r.Quantity),
			LastUpdated:   r.LastUpdated.Format("3:04 PM"),
		})
	}
	return locations, nil
}

// Export serializes the filtered inventory to CSV or JSON. The
// returned content type matches the format.
func (s *Service) Export(ctx context.Context, f QueryFilter, format string) ([]byte, string, error) {
	items, err := s.Query(ctx, f)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"SKU", "Name", "Category", "Price", "Quantity", "Status", "Store", "City", "Country"})
		for _, it := range items {
			_ = w.Write([]string{
				it.SKU, it.Name, it.Category,
				strconv.FormatFloat(it.Price, 'f', 2, 64),
				strconv.Itoa(it.Quantity), it.Status,
				it.StoreName, it.StoreCity, it.StoreCountry,
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported export format %q", apperrors.ErrInvalidInput, format)
	}
}
